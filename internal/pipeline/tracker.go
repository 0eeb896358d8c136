package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/profile"
	"github.com/sells-group/profile-cli/internal/store"
)

// tracker mirrors a run's progress into the store: run status and one
// phase row per orchestrator state or post-processing step.
type tracker struct {
	ctx   context.Context
	store store.Store
	runID string
	log   *zap.Logger

	mu      sync.Mutex
	current *model.RunPhase
	name    string
	start   time.Time
	phases  []model.PhaseResult
}

func newTracker(ctx context.Context, st store.Store, runID string, log *zap.Logger) *tracker {
	return &tracker{ctx: ctx, store: st, runID: runID, log: log}
}

var stateStatus = map[profile.State]model.RunStatus{
	profile.StateSeedFetch:   model.RunStatusFetching,
	profile.StateSeedExtract: model.RunStatusExtracting,
	profile.StateConsolidate: model.RunStatusConsolidating,
}

func (t *tracker) onState(s profile.State) {
	if status, ok := stateStatus[s]; ok {
		t.status(status)
	}
	switch s {
	case profile.StateDone:
		t.end(model.PhaseStatusComplete, "")
	case profile.StateFailed:
		// Closed by fail once the error is known.
	default:
		t.end(model.PhaseStatusComplete, "")
		t.begin(strings.ToLower(string(s)))
	}
}

func (t *tracker) status(s model.RunStatus) {
	if err := t.store.UpdateRunStatus(t.ctx, t.runID, s); err != nil {
		t.log.Warn("pipeline: failed to update status", zap.String("status", string(s)), zap.Error(err))
	}
}

func (t *tracker) begin(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	phase, err := t.store.CreatePhase(t.ctx, t.runID, name)
	if err != nil {
		t.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(err))
	}
	t.current, t.name, t.start = phase, name, time.Now()
}

// end closes the open phase, if any.
func (t *tracker) end(status model.PhaseStatus, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.name == "" {
		return
	}
	t.record(&model.PhaseResult{Name: t.name, Status: status, Error: errMsg})
	t.current, t.name = nil, ""
}

// fail closes the open phase with the failure kind and marks the run failed.
func (t *tracker) fail(f *model.Failure) {
	t.end(model.PhaseStatusFailed, string(f.Kind))
	t.log.Error("pipeline: run failed",
		zap.String("kind", string(f.Kind)),
		zap.String("stage", f.Stage),
	)
}

// record must be called with mu held.
func (t *tracker) record(res *model.PhaseResult) {
	res.Duration = time.Since(t.start).Milliseconds()
	if t.current != nil {
		if err := t.store.CompletePhase(t.ctx, t.current.ID, res); err != nil {
			t.log.Warn("pipeline: failed to complete phase", zap.String("phase", res.Name), zap.Error(err))
		}
	}
	if res.Status == model.PhaseStatusFailed {
		t.log.Error("pipeline: phase failed",
			zap.String("phase", res.Name),
			zap.Int64("duration_ms", res.Duration),
			zap.String("error", res.Error),
		)
	} else {
		t.log.Info("pipeline: phase complete",
			zap.String("phase", res.Name),
			zap.Int64("duration_ms", res.Duration),
		)
	}
	t.phases = append(t.phases, *res)
}

// track runs fn as a named phase.
func (t *tracker) track(name string, fn func() (*model.PhaseResult, error)) {
	t.begin(name)
	res, err := fn()
	if res == nil {
		res = &model.PhaseResult{}
	}
	res.Name = name
	res.Status = model.PhaseStatusComplete
	if err != nil {
		res.Status = model.PhaseStatusFailed
		res.Error = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(res)
	t.current, t.name = nil, ""
}

func (t *tracker) results() []model.PhaseResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.PhaseResult, len(t.phases))
	copy(out, t.phases)
	return out
}
