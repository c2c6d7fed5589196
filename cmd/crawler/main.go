// mcf-crawler — crawl CLI for the MyCareersFuture job board.
//
// Subcommands:
//   - crawl:  one incremental fetch-and-reconcile pass (or --daemon for
//     periodic runs on a cron interval)
//   - export: dump the stored job table to CSV
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd(log zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcf-crawler",
		Short:         "MyCareersFuture job board crawler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newCrawlCmd(log))
	root.AddCommand(newExportCmd(log))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("mcf-crawler version %s\n", version)
		},
	})
	return root
}
