package queue

import (
	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/config"
)

// Dial connects to the Temporal frontend.
func Dial(cfg config.TemporalConfig) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    zapLogger{zap.L().Sugar()},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "queue: dial %s", cfg.HostPort)
	}
	return c, nil
}

// NewWorker registers the profile workflow and activity on taskQueue.
// maxConcurrent bounds parallel activity executions; zero keeps the SDK
// default.
func NewWorker(c client.Client, taskQueue string, acts *Activities, maxConcurrent int) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: maxConcurrent,
	})
	w.RegisterWorkflowWithOptions(ProfileWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(acts.RunProfile, activity.RegisterOptions{Name: ActivityName})
	return w
}

// zapLogger adapts zap to the SDK's key-value logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, keyvals ...any) { l.s.Debugw(msg, keyvals...) }
func (l zapLogger) Info(msg string, keyvals ...any)  { l.s.Infow(msg, keyvals...) }
func (l zapLogger) Warn(msg string, keyvals ...any)  { l.s.Warnw(msg, keyvals...) }
func (l zapLogger) Error(msg string, keyvals ...any) { l.s.Errorw(msg, keyvals...) }
