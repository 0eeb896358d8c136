package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/archive"
	"github.com/sells-group/profile-cli/internal/cost"
	"github.com/sells-group/profile-cli/internal/enrich"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/internal/store"
)

// profileEnv holds the store and the runner used by run, batch, serve and
// worker.
type profileEnv struct {
	Store  store.Store
	Runner *pipeline.Runner

	closeFetch func()
}

// Close releases the browser and the store.
func (e *profileEnv) Close() {
	if e.closeFetch != nil {
		e.closeFetch()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initRunner validates config for mode and builds the full run pipeline.
// Callers should defer env.Close().
func initRunner(ctx context.Context, mode string) (*profileEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &profileEnv{Store: st}

	calc := cost.NewCalculator(cost.FromConfig(cfg.Pricing))
	completer, err := llm.New(cfg, calc)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init model provider")
	}

	fetcher, closeFetch := fetch.New(cfg, st)
	env.closeFetch = closeFetch

	enricher, err := enrich.New(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init enrichment")
	}

	opts := []pipeline.Option{
		pipeline.WithEnricher(enricher),
		pipeline.WithListCap(cfg.Pipeline.ListCap),
		pipeline.WithPhoneRegion(cfg.Enrich.PhoneRegion),
	}
	arch, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init archive")
	}
	if arch != nil {
		opts = append(opts, pipeline.WithArchiver(arch))
		zap.L().Info("profile archive enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	profilers := pipeline.Orchestrators(fetcher, completer, pipeline.ProfileOptions(cfg.Pipeline))
	env.Runner = pipeline.NewRunner(st, profilers, opts...)

	zap.L().Info("pipeline ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("fetch_backend", cfg.Fetch.Backend),
		zap.String("store", cfg.Store.Driver),
	)
	return env, nil
}
