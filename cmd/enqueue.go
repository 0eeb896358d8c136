package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-cli/internal/seeds"
	"github.com/sells-group/profile-cli/pkg/notion"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <file>",
	Short: "Add seeds from a file to the Notion seed database as Queued rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Notion.Token == "" || cfg.Notion.SeedDB == "" {
			return eris.New("notion.token and notion.seed_db are required")
		}

		companies, err := seeds.ReadFile(ctx, args[0])
		if err != nil {
			return err
		}

		rows := make([]notion.Seed, 0, len(companies))
		for _, c := range companies {
			rows = append(rows, notion.Seed{Name: c.Name, URL: c.URL})
		}

		nc := notion.NewClient(cfg.Notion.Token)
		n, err := notion.Enqueue(ctx, nc, cfg.Notion.SeedDB, rows)
		if err != nil {
			return eris.Wrapf(err, "enqueued %d of %d seeds", n, len(rows))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d seeds.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
}
