package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/internal/profile"
	"github.com/sells-group/profile-cli/pkg/notion"
)

// Runner is the pipeline surface the activity drives.
type Runner interface {
	CreateRun(ctx context.Context, company model.Company) (*model.Run, error)
	Execute(ctx context.Context, run *model.Run) (*model.Run, error)
}

// RunGetter loads runs recorded by the dispatcher.
type RunGetter interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
}

// Activities holds the activity implementations.
type Activities struct {
	Runner Runner
	Runs   RunGetter
	// Notion, when set, receives the final status of seeds that came from
	// the Notion queue.
	Notion notion.Client
}

// RunProfile executes one pipeline run. Run failures become application
// errors typed by failure kind so the retry policy can tell them apart; the
// message carries the kind and stage only.
func (a *Activities) RunProfile(ctx context.Context, in ProfileInput) (*ProfileOutput, error) {
	run, err := a.loadRun(ctx, in)
	if err != nil {
		return nil, err
	}

	done, err := a.Runner.Execute(ctx, run)
	if err != nil {
		if re, ok := profile.AsRunError(err); ok {
			if a.tracksNotion(in) && (!re.Retryable() || lastAttempt(ctx)) {
				a.markFailed(ctx, in, string(re.Kind), string(re.Stage))
			}
			msg := fmt.Sprintf("%s during %s", re.Kind, re.Stage)
			return nil, temporal.NewApplicationError(msg, string(re.Kind))
		}
		return nil, eris.Wrap(err, "queue: execute run")
	}

	out := &ProfileOutput{RunID: done.ID, Status: done.Status}
	if done.Result != nil {
		out.FieldsFound = done.Result.FieldsFound
		out.CostUSD = done.Result.Usage.Cost
	}
	if a.tracksNotion(in) {
		if err := notion.MarkDone(ctx, a.Notion, in.NotionPageID, notion.Outcome{FieldsFound: out.FieldsFound, Cost: out.CostUSD}); err != nil {
			zap.L().Warn("queue: failed to mark notion row done", zap.String("page_id", in.NotionPageID), zap.Error(err))
		}
	}
	return out, nil
}

func (a *Activities) tracksNotion(in ProfileInput) bool {
	return a.Notion != nil && in.NotionPageID != ""
}

func (a *Activities) markFailed(ctx context.Context, in ProfileInput, kind, stage string) {
	if err := notion.MarkFailed(ctx, a.Notion, in.NotionPageID, kind, stage); err != nil {
		zap.L().Warn("queue: failed to mark notion row failed", zap.String("page_id", in.NotionPageID), zap.Error(err))
	}
}

// lastAttempt reports whether the retry policy will not schedule another
// attempt after this one.
func lastAttempt(ctx context.Context) bool {
	return activity.GetInfo(ctx).Attempt >= MaxAttempts
}

// loadRun reuses the dispatcher's run record when there is one.
func (a *Activities) loadRun(ctx context.Context, in ProfileInput) (*model.Run, error) {
	if in.RunID != "" && a.Runs != nil {
		run, err := a.Runs.GetRun(ctx, in.RunID)
		if err == nil {
			return run, nil
		}
		zap.L().Warn("queue: run record not found, creating a new one",
			zap.String("run_id", in.RunID),
			zap.Error(err),
		)
	}
	run, err := a.Runner.CreateRun(ctx, in.Company())
	if errors.Is(err, pipeline.ErrInvalidURL) {
		return nil, temporal.NewNonRetryableApplicationError("invalid seed url", "INVALID_SEED", err)
	}
	if err != nil {
		return nil, eris.Wrap(err, "queue: create run")
	}
	return run, nil
}
