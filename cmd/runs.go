package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/store"
)

var (
	runsStatus string
	runsURL    string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect profile runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:     model.RunStatus(runsStatus),
			CompanyURL: runsURL,
			Limit:      runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list runs")
		}
		return writeRunTable(cmd.OutOrStdout(), runs)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its phases and page outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get run")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect stored profiles",
}

var (
	profileURL   string
	profilesName string
	profilesLim  int
)

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.ListProfiles(ctx, store.ProfileFilter{Name: profilesName, Limit: profilesLim})
		if err != nil {
			return eris.Wrap(err, "list profiles")
		}
		return writeProfileTable(cmd.OutOrStdout(), recs)
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile for a website",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetProfile(ctx, profileURL)
		if err != nil {
			return eris.Wrap(err, "get profile")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Profile)
	},
}

func writeRunTable(w io.Writer, runs []model.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tURL\tSTATUS\tFIELDS\tFAILURE\tCREATED")
	for _, r := range runs {
		fields := "-"
		if r.Result != nil && r.Status == model.RunStatusComplete {
			fields = fmt.Sprintf("%d", r.Result.FieldsFound)
		}
		failure := "-"
		if r.Failure != nil {
			failure = fmt.Sprintf("%s@%s", r.Failure.Kind, r.Failure.Stage)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Company.URL, r.Status, fields, failure, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func writeProfileTable(w io.Writer, recs []model.ProfileRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tNAME\tFIELDS\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.URL, r.Name, r.FieldsFound, r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func init() {
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by run status")
	runsListCmd.Flags().StringVar(&runsURL, "url", "", "filter by company URL")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)

	profilesShowCmd.Flags().StringVar(&profileURL, "url", "", "company website URL")
	_ = profilesShowCmd.MarkFlagRequired("url")
	profilesListCmd.Flags().StringVar(&profilesName, "name", "", "filter by company name")
	profilesListCmd.Flags().IntVar(&profilesLim, "limit", 20, "max profiles to list")
	profilesCmd.AddCommand(profilesShowCmd, profilesListCmd)

	rootCmd.AddCommand(runsCmd, profilesCmd)
}
