package cmd

import (
	"github.com/bimmerbailey/htmlmin/internal/logging"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [flags] [paths...]",
		Short: "Show compression statistics",
		Long: `Compress files in memory and report what would change: sizes,
whitespace, inline script, style and event sizes, and the number of
protected blocks per category. No files are written.

Examples:
  htmlmin stats index.html
  htmlmin stats --format json site/
  htmlmin stats --remove-intertag-spaces --format table "site/*.html"`,
		RunE: runStats,
	}

	addCompressorFlags(cmd)
	addBatchFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	cfg.Compressor.Statistics = true
	comp, err := cfg.Compressor.Build(logger)
	if err != nil {
		return err
	}

	if isStdin(args) {
		return compressStream(cmd, cfg, comp, nil, cmd.OutOrStdout())
	}

	results, runErr := compressFiles(cmd, cfg, comp, logger, args, true)
	if results == nil {
		return runErr
	}
	if err := newWriter(cmd, cmd.OutOrStdout(), cfg).WriteStatistics(results); err != nil {
		return err
	}
	return runErr
}
