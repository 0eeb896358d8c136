package main

import (
	"context"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/profile"
	"github.com/sells-group/profile-cli/pkg/notion"
)

var batchSeeds seedFlags

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build profiles for a batch of company websites",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		companies, nc, err := batchSeeds.load(ctx)
		if err != nil {
			return err
		}

		env, err := initRunner(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = processBatch(ctx, companies, cfg.Batch.MaxConcurrent, nc, env.Runner.RunCompany)
		return err
	},
}

func init() {
	batchSeeds.register(batchCmd)
	rootCmd.AddCommand(batchCmd)
}

// profileFunc runs one company to a terminal run.
type profileFunc func(ctx context.Context, company model.Company) (*model.Run, error)

// batchSummary counts batch outcomes.
type batchSummary struct {
	Succeeded int64
	Failed    int64
	ByKind    map[model.FailureKind]int64
}

// processBatch profiles companies concurrently, continuing past individual
// failures. When nc is non-nil, Notion rows are marked Done or Failed.
func processBatch(ctx context.Context, companies []model.Company, concurrency int, nc notion.Client, run profileFunc) (batchSummary, error) {
	summary := batchSummary{ByKind: map[model.FailureKind]int64{}}
	if len(companies) == 0 {
		zap.L().Info("batch: no seeds to process")
		return summary, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("batch: processing",
		zap.Int("seeds", len(companies)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		succeeded, failed atomic.Int64
		kindsMu           sync.Mutex
	)

	for _, company := range companies {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", company.URL))

			result, err := run(gctx, company)
			if err != nil {
				failed.Add(1)
				kind, stage := classify(result, err)
				kindsMu.Lock()
				summary.ByKind[kind]++
				kindsMu.Unlock()
				log.Error("batch: profile failed",
					zap.String("kind", string(kind)),
					zap.String("stage", stage),
					zap.Error(err),
				)
				if nc != nil && company.NotionPageID != "" {
					if nErr := notion.MarkFailed(gctx, nc, company.NotionPageID, string(kind), stage); nErr != nil {
						log.Warn("batch: failed to mark notion row failed", zap.Error(nErr))
					}
				}
				return nil
			}

			succeeded.Add(1)
			out := notion.Outcome{}
			if result != nil && result.Result != nil {
				out.FieldsFound = result.Result.FieldsFound
				out.Cost = result.Result.Usage.Cost
			}
			log.Info("batch: profile complete", zap.Int("fields_found", out.FieldsFound))
			if nc != nil && company.NotionPageID != "" {
				if nErr := notion.MarkDone(gctx, nc, company.NotionPageID, out); nErr != nil {
					log.Warn("batch: failed to mark notion row done", zap.Error(nErr))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, eris.Wrap(err, "batch: wait")
	}

	summary.Succeeded = succeeded.Load()
	summary.Failed = failed.Load()

	fields := []zap.Field{
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
	}
	kinds := make([]string, 0, len(summary.ByKind))
	for k := range summary.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fields = append(fields, zap.Int64("failed_"+k, summary.ByKind[model.FailureKind(k)]))
	}
	zap.L().Info("batch: complete", fields...)
	return summary, nil
}

// classify returns the failure kind and stage of a failed run, preferring
// the failure recorded on the run. Errors outside the profile run, such as
// an invalid seed, report as ERROR.
func classify(run *model.Run, err error) (model.FailureKind, string) {
	if re, ok := profile.AsRunError(err); ok {
		return re.Kind, string(re.Stage)
	}
	if run != nil && run.Failure != nil {
		return run.Failure.Kind, run.Failure.Stage
	}
	return "ERROR", ""
}
