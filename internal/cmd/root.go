package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sitecheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecheck",
		Short: "Link checker for a static blog",
		Long: `Sitecheck scans a Hugo-style content tree for the URLs each article
declares (its canonical /<section>/<slug>/ path plus any frontmatter aliases)
and checks that every one of them resolves with HTTP 200 against a running
instance of the site.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
