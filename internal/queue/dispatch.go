package queue

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// Dispatcher starts profile workflows.
type Dispatcher struct {
	client     client.Client
	taskQueue  string
	jobTimeout time.Duration
}

// NewDispatcher creates a Dispatcher for taskQueue.
func NewDispatcher(c client.Client, taskQueue string, jobTimeout time.Duration) *Dispatcher {
	return &Dispatcher{client: c, taskQueue: taskQueue, jobTimeout: jobTimeout}
}

// WorkflowID names the workflow for a run, falling back to the URL.
func WorkflowID(in ProfileInput) string {
	if in.RunID != "" {
		return "profile-" + in.RunID
	}
	return "profile-" + in.URL
}

// Dispatch starts a workflow for in and returns its run ID.
func (d *Dispatcher) Dispatch(ctx context.Context, in ProfileInput) (string, error) {
	if in.JobTimeout <= 0 {
		in.JobTimeout = d.jobTimeout
	}
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(in),
		TaskQueue: d.taskQueue,
	}
	we, err := d.client.ExecuteWorkflow(ctx, opts, WorkflowName, in)
	if err != nil {
		return "", eris.Wrapf(err, "queue: start workflow for %s", in.URL)
	}
	zap.L().Info("queue: workflow started",
		zap.String("workflow_id", we.GetID()),
		zap.String("url", in.URL),
	)
	return we.GetRunID(), nil
}
