package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/queue"
	"github.com/sells-group/profile-cli/pkg/notion"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a Temporal worker that executes queued profile jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initRunner(ctx, "worker")
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := queue.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		acts := &queue.Activities{Runner: env.Runner, Runs: env.Store}
		if cfg.Notion.Token != "" {
			acts.Notion = notion.NewClient(cfg.Notion.Token)
		}
		w := queue.NewWorker(c, cfg.Temporal.TaskQueue, acts, cfg.Batch.MaxConcurrent)

		zap.L().Info("worker: started", zap.String("task_queue", cfg.Temporal.TaskQueue))
		if err := w.Run(worker.InterruptCh()); err != nil {
			return eris.Wrap(err, "worker run")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
