package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/seeds"
	"github.com/sells-group/profile-cli/pkg/notion"
)

// seedFlags selects where a batch of seeds comes from.
type seedFlags struct {
	file   string
	urls   []string
	notion bool
	limit  int
}

func (f *seedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "seed file (.txt, .csv or .xlsx)")
	cmd.Flags().StringArrayVar(&f.urls, "url", nil, "seed URL (repeatable)")
	cmd.Flags().BoolVar(&f.notion, "notion", false, "read Queued rows from the Notion seed database")
	cmd.Flags().IntVar(&f.limit, "limit", 100, "max number of seeds to process")
}

// load reads the selected seeds. The Notion client is nil unless --notion
// was given.
func (f *seedFlags) load(ctx context.Context) ([]model.Company, notion.Client, error) {
	var (
		companies []model.Company
		nc        notion.Client
	)
	switch {
	case f.notion:
		if cfg.Notion.Token == "" || cfg.Notion.SeedDB == "" {
			return nil, nil, eris.New("notion.token and notion.seed_db are required with --notion")
		}
		nc = notion.NewClient(cfg.Notion.Token)
		queued, err := notion.QueryQueuedSeeds(ctx, nc, cfg.Notion.SeedDB)
		if err != nil {
			return nil, nil, eris.Wrap(err, "query queued seeds")
		}
		companies = companiesFromNotion(queued)
	case f.file != "":
		c, err := seeds.ReadFile(ctx, f.file)
		if err != nil {
			return nil, nil, err
		}
		companies = c
	case len(f.urls) > 0:
		companies = seeds.FromURLs(f.urls)
	default:
		return nil, nil, eris.New("one of --file, --url or --notion is required")
	}

	if f.limit > 0 && len(companies) > f.limit {
		companies = companies[:f.limit]
	}
	return companies, nc, nil
}

func companiesFromNotion(rows []notion.Seed) []model.Company {
	out := make([]model.Company, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Company{URL: r.URL, Name: r.Name, NotionPageID: r.PageID})
	}
	return seeds.Normalize(out)
}
