package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/profile-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(masked(*cfg)); err != nil {
			return eris.Wrap(err, "encode config")
		}
		return enc.Close()
	},
}

// masked returns a copy of c with every credential replaced.
func masked(c config.Config) config.Config {
	for _, s := range []*string{
		&c.Anthropic.Key,
		&c.OpenAI.Key,
		&c.Jina.Key,
		&c.Firecrawl.Key,
		&c.Google.PlacesKey,
		&c.Google.YouTubeKey,
		&c.Archive.AccessKey,
		&c.Archive.SecretKey,
		&c.Notion.Token,
	} {
		*s = maskSecret(*s)
	}
	if c.Store.Driver == "postgres" {
		c.Store.DatabaseURL = maskSecret(c.Store.DatabaseURL)
	}
	return c
}

// maskSecret keeps the last four characters of long secrets.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
