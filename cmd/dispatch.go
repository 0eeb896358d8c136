package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/queue"
)

var dispatchSeeds seedFlags

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Queue profile jobs on Temporal for a batch of seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("dispatch"); err != nil {
			return err
		}

		companies, _, err := dispatchSeeds.load(ctx)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c, err := queue.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		d := queue.NewDispatcher(c, cfg.Temporal.TaskQueue, time.Duration(cfg.Pipeline.JobTimeoutSecs)*time.Second)

		var queued, failed int
		for _, company := range companies {
			log := zap.L().With(zap.String("url", company.URL))
			run, err := st.CreateRun(ctx, company)
			if err != nil {
				failed++
				log.Error("dispatch: create run failed", zap.Error(err))
				continue
			}
			in := queue.ProfileInput{
				RunID:        run.ID,
				URL:          company.URL,
				Name:         company.Name,
				NotionPageID: company.NotionPageID,
			}
			if _, err := d.Dispatch(ctx, in); err != nil {
				failed++
				log.Error("dispatch: start workflow failed", zap.Error(err))
				continue
			}
			queued++
		}

		zap.L().Info("dispatch: complete", zap.Int("queued", queued), zap.Int("failed", failed))
		return nil
	},
}

func init() {
	dispatchSeeds.register(dispatchCmd)
	rootCmd.AddCommand(dispatchCmd)
}
