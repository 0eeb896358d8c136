package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

var (
	runURL  string
	runName string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the profile for a single company website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRunner(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Runner.RunCompany(ctx, model.Company{URL: runURL, Name: runName})
		if run != nil {
			if encErr := writeRun(os.Stdout, run); encErr != nil {
				return encErr
			}
		}
		if err != nil {
			return eris.Wrap(err, "profile run")
		}

		zap.L().Info("profile complete",
			zap.String("url", run.Company.URL),
			zap.String("run_id", run.ID),
			zap.Int("fields_found", run.Result.FieldsFound),
			zap.Float64("cost_usd", run.Result.Usage.Cost),
		)
		return nil
	},
}

// writeRun prints the profile of a finished run, or the run itself when it
// failed.
func writeRun(w io.Writer, run *model.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if run.Status == model.RunStatusComplete && run.Result != nil && run.Result.Profile != nil {
		return enc.Encode(run.Result.Profile)
	}
	return enc.Encode(struct {
		ID      string          `json:"id"`
		URL     string          `json:"url"`
		Status  model.RunStatus `json:"status"`
		Kind    string          `json:"failure_kind,omitempty"`
		Stage   string          `json:"failure_stage,omitempty"`
		Retries bool            `json:"retryable"`
	}{
		ID:      run.ID,
		URL:     run.Company.URL,
		Status:  run.Status,
		Kind:    failureKind(run),
		Stage:   failureStage(run),
		Retries: run.Failure != nil && run.Failure.Kind.Retryable(),
	})
}

func failureKind(run *model.Run) string {
	if run.Failure == nil {
		return ""
	}
	return string(run.Failure.Kind)
}

func failureStage(run *model.Run) string {
	if run.Failure == nil {
		return ""
	}
	return run.Failure.Stage
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "company website URL (required)")
	runCmd.Flags().StringVar(&runName, "name", "", "company name hint")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}
