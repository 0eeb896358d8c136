// Package pipeline wraps a profile run with bookkeeping: it records the run
// and its phases in the store, normalizes and enriches the profile, upserts
// it and archives a copy.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/archive"
	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/enrich"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/profile"
	"github.com/sells-group/profile-cli/internal/seeds"
	"github.com/sells-group/profile-cli/internal/store"
)

// ErrInvalidURL is wrapped when a seed URL cannot be normalized.
var ErrInvalidURL = eris.New("pipeline: invalid url")

// stagePersist is the failure stage recorded when the upsert fails.
const stagePersist = "PERSIST"

// Profiler builds one profile from a seed URL.
type Profiler interface {
	Run(ctx context.Context, seedURL string) (*profile.Result, error)
}

// ProfilerFactory returns a Profiler that reports state changes to onState.
type ProfilerFactory func(onState func(profile.State)) Profiler

// Enricher adds third-party facts to a consolidated profile.
type Enricher interface {
	Enrich(ctx context.Context, p *model.CompanyProfile)
}

// Orchestrators returns a factory of orchestrators sharing f and c.
func Orchestrators(f fetch.Fetcher, c llm.Completer, opts profile.Options) ProfilerFactory {
	return func(onState func(profile.State)) Profiler {
		o := opts
		o.OnState = onState
		return profile.NewOrchestrator(f, c, o)
	}
}

// ProfileOptions converts pipeline config to run bounds.
func ProfileOptions(cfg config.PipelineConfig) profile.Options {
	return profile.Options{
		MaxLinks:     cfg.MaxLinks,
		MinTextChars: cfg.MinTextChars,
		ListCap:      cfg.ListCap,
		RunBudget:    time.Duration(cfg.RunBudgetSecs) * time.Second,
		LinkTimeout:  time.Duration(cfg.LinkTimeoutSecs) * time.Second,
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnricher enables post-consolidation enrichment.
func WithEnricher(e Enricher) Option {
	return func(r *Runner) { r.enricher = e }
}

// WithArchiver enables archiving of finished profiles.
func WithArchiver(a archive.Archiver) Option {
	return func(r *Runner) { r.archiver = a }
}

// WithListCap bounds list fields after enrichment.
func WithListCap(n int) Option {
	return func(r *Runner) { r.listCap = n }
}

// WithPhoneRegion sets the default region for contact normalization when no
// enricher is configured.
func WithPhoneRegion(region string) Option {
	return func(r *Runner) { r.phoneRegion = region }
}

// Runner executes profile runs with store bookkeeping. It is safe for
// concurrent use.
type Runner struct {
	store       store.Store
	profilers   ProfilerFactory
	enricher    Enricher
	archiver    archive.Archiver
	listCap     int
	phoneRegion string
}

// NewRunner creates a Runner.
func NewRunner(st store.Store, profilers ProfilerFactory, opts ...Option) *Runner {
	r := &Runner{
		store:     st,
		profilers: profilers,
		listCap:   model.DefaultListCap,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run profiles a single website.
func (r *Runner) Run(ctx context.Context, url string) (*model.Run, error) {
	return r.RunCompany(ctx, model.Company{URL: url})
}

// RunCompany creates a run for company and executes it.
func (r *Runner) RunCompany(ctx context.Context, company model.Company) (*model.Run, error) {
	run, err := r.CreateRun(ctx, company)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, run)
}

// CreateRun validates the company URL and records a queued run.
func (r *Runner) CreateRun(ctx context.Context, company model.Company) (*model.Run, error) {
	u, err := seeds.NormalizeURL(company.URL)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidURL, "%s: %v", company.URL, err)
	}
	company.URL = u
	run, err := r.store.CreateRun(ctx, company)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return run, nil
}

// Execute runs a queued run to completion and returns it in its terminal
// state. A profile failure is returned as a *profile.RunError alongside the
// failed run.
func (r *Runner) Execute(ctx context.Context, run *model.Run) (*model.Run, error) {
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("url", run.Company.URL))
	log.Info("pipeline: starting run")

	// Bookkeeping outlives the run budget so timeouts are still recorded.
	bctx := context.WithoutCancel(ctx)
	t := newTracker(bctx, r.store, run.ID, log)

	res, err := r.profilers(t.onState).Run(ctx, run.Company.URL)
	result := runResult(res)

	if err != nil {
		failure := &model.Failure{Kind: model.FailureConsolidation, URL: run.Company.URL, Message: err.Error()}
		if re, ok := profile.AsRunError(err); ok {
			failure = re.Failure()
		}
		t.fail(failure)
		result.Phases = t.results()
		if ferr := r.store.FailRun(bctx, run.ID, failure, result); ferr != nil {
			log.Error("pipeline: failed to record failure", zap.Error(ferr))
		}
		run.Status = model.RunStatusFailed
		run.Failure = failure
		run.Result = result
		return run, err
	}

	// Profiles are keyed by the seed, never by what the model reported.
	p := res.Profile
	p.WebsiteLink = run.Company.URL
	if p.Name == "" {
		p.Name = run.Company.Name
	}

	t.status(model.RunStatusEnriching)
	t.track("enrich", func() (*model.PhaseResult, error) {
		r.enrich(ctx, p)
		return &model.PhaseResult{Metadata: map[string]any{"fields_found": p.FilledFields()}}, nil
	})
	result.Profile = p
	result.FieldsFound = p.FilledFields()

	var persistErr error
	t.track("persist", func() (*model.PhaseResult, error) {
		_, persistErr = r.store.UpsertProfile(bctx, run.ID, p)
		return nil, persistErr
	})
	if persistErr != nil {
		failure := &model.Failure{
			Kind:    model.FailurePersist,
			Stage:   stagePersist,
			URL:     run.Company.URL,
			Message: persistErr.Error(),
		}
		t.fail(failure)
		result.Phases = t.results()
		if ferr := r.store.FailRun(bctx, run.ID, failure, result); ferr != nil {
			log.Error("pipeline: failed to record failure", zap.Error(ferr))
		}
		run.Status = model.RunStatusFailed
		run.Failure = failure
		run.Result = result
		return run, eris.Wrap(persistErr, "pipeline: upsert profile")
	}

	if r.archiver != nil {
		t.track("archive", func() (*model.PhaseResult, error) {
			key, aerr := r.archiver.Archive(bctx, run.ID, p)
			if aerr != nil {
				return nil, aerr
			}
			result.ArchiveKey = key
			return &model.PhaseResult{Metadata: map[string]any{"key": key}}, nil
		})
	}

	result.Phases = t.results()
	if err := r.store.CompleteRun(bctx, run.ID, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	log.Info("pipeline: run complete",
		zap.Int("fields_found", result.FieldsFound),
		zap.Int("pages_extracted", result.PagesExtracted),
		zap.Float64("cost_usd", result.Usage.Cost),
	)
	run.Status = model.RunStatusComplete
	run.Result = result
	return run, nil
}

func (r *Runner) enrich(ctx context.Context, p *model.CompanyProfile) {
	if r.enricher != nil {
		r.enricher.Enrich(ctx, p)
	} else {
		enrich.NormalizeContacts(p, r.phoneRegion)
	}
	p.Normalize(r.listCap)
}

func runResult(res *profile.Result) *model.RunResult {
	out := &model.RunResult{}
	if res == nil {
		return out
	}
	out.Pages = res.Pages
	out.SelectedLinks = res.SelectedLinks
	out.Usage = res.Usage.TokenUsage()
	for _, pg := range res.Pages {
		if pg.Status == model.PageStatusExtracted {
			out.PagesExtracted++
		}
	}
	return out
}
