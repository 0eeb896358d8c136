// Package queue runs profile jobs on Temporal: a workflow per seed URL whose
// single activity executes one pipeline run.
package queue

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/profile-cli/internal/model"
)

// Registered names.
const (
	WorkflowName = "ProfileWorkflow"
	ActivityName = "RunProfile"
)

// DefaultJobTimeout bounds one activity attempt when the input sets none.
const DefaultJobTimeout = 10 * time.Minute

// MaxAttempts bounds activity retries of retryable failures.
const MaxAttempts = 3

// ProfileInput is the workflow and activity argument.
type ProfileInput struct {
	RunID        string        `json:"run_id,omitempty"`
	URL          string        `json:"url"`
	Name         string        `json:"name,omitempty"`
	NotionPageID string        `json:"notion_page_id,omitempty"`
	JobTimeout   time.Duration `json:"job_timeout,omitempty"`
}

// Company returns the seed the input describes.
func (in ProfileInput) Company() model.Company {
	return model.Company{URL: in.URL, Name: in.Name, NotionPageID: in.NotionPageID}
}

// ProfileOutput summarises a finished run.
type ProfileOutput struct {
	RunID       string          `json:"run_id"`
	Status      model.RunStatus `json:"status"`
	FieldsFound int             `json:"fields_found"`
	CostUSD     float64         `json:"cost_usd"`
}

// nonRetryable lists the failure kinds a resubmission cannot fix.
func nonRetryable() []string {
	var out []string
	for _, k := range []model.FailureKind{
		model.FailureFetch,
		model.FailureExtraction,
		model.FailureTimeout,
		model.FailureConsolidation,
		model.FailurePersist,
	} {
		if !k.Retryable() {
			out = append(out, string(k))
		}
	}
	return out
}

// ProfileWorkflow runs one profile activity with bounded retries.
func ProfileWorkflow(ctx workflow.Context, in ProfileInput) (*ProfileOutput, error) {
	timeout := in.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        MaxAttempts,
			NonRetryableErrorTypes: nonRetryable(),
		},
	})

	logger := workflow.GetLogger(ctx)
	logger.Info("queue: profile workflow started", "url", in.URL, "run_id", in.RunID)

	var out ProfileOutput
	if err := workflow.ExecuteActivity(ctx, ActivityName, in).Get(ctx, &out); err != nil {
		logger.Warn("queue: profile workflow failed", "url", in.URL, "error", err)
		return nil, err
	}
	return &out, nil
}
