package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bimmerbailey/htmlmin/internal/batch"
	"github.com/bimmerbailey/htmlmin/internal/compressor"
	"github.com/bimmerbailey/htmlmin/internal/config"
	"github.com/bimmerbailey/htmlmin/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress [flags] [paths...]",
		Short: "Compress HTML files",
		Long: `Compress files, glob patterns, or directories. Directories are walked
recursively for files with one of the --ext extensions. Files are rewritten
in place unless --output-dir is given. With no paths, or "-", the document is
read from stdin and written to stdout.

Examples:
  htmlmin compress index.html about.html
  htmlmin compress --output-dir dist/ site/
  htmlmin compress --preserve '\{\{.*?\}\}' --remove-quotes "templates/*.html"
  htmlmin compress --dry-run --stats --format table site/`,
		RunE: runCompress,
	}

	addCompressorFlags(cmd)
	addBatchFlags(cmd)
	cmd.Flags().StringP("output-dir", "o", "", "write compressed files to this directory instead of overwriting")
	cmd.Flags().Bool("dry-run", false, "compress without writing any files")
	cmd.Flags().Bool("stats", false, "print per-file statistics")
	return cmd
}

func init() {
	rootCmd.AddCommand(newCompressCmd())
}

func runCompress(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	showStats, _ := cmd.Flags().GetBool("stats")

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	if showStats {
		cfg.Compressor.Statistics = true
	}
	comp, err := cfg.Compressor.Build(logger)
	if err != nil {
		return err
	}

	if isStdin(args) {
		// stdout carries the document, so statistics go to stderr
		var statsOut io.Writer
		if showStats {
			statsOut = cmd.ErrOrStderr()
		}
		return compressStream(cmd, cfg, comp, cmd.OutOrStdout(), statsOut)
	}

	results, runErr := compressFiles(cmd, cfg, comp, logger, args, dryRun)
	if results == nil {
		return runErr
	}

	wr := newWriter(cmd, cmd.OutOrStdout(), cfg)
	if showStats {
		err = wr.WriteStatistics(results)
	} else {
		err = wr.WriteResults(results)
	}
	if err != nil {
		return err
	}
	return runErr
}

// compressFiles expands args and runs them through a batch processor.
// A nil result slice means nothing was processed.
func compressFiles(cmd *cobra.Command, cfg *config.Config, comp batch.Engine, logger *zap.Logger, args []string, dryRun bool) ([]batch.Result, error) {
	files, err := config.ExpandPaths(args, cfg.Extensions)
	if err != nil {
		return nil, err
	}

	p := &batch.Processor{
		Compressor: comp,
		Workers:    cfg.Workers,
		OutputDir:  cfg.OutputDir,
		Root:       batchRoot(args),
		DryRun:     dryRun,
		Logger:     logger,
	}
	return p.Run(commandContext(cmd), files)
}

// compressStream compresses stdin, writing the document to docOut and the
// statistics to statsOut. Either may be nil.
func compressStream(cmd *cobra.Command, cfg *config.Config, comp *compressor.Compressor, docOut, statsOut io.Writer) error {
	start := time.Now()
	in, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	out, stats, err := comp.CompressWithStats(string(in))
	if err != nil {
		return err
	}
	if docOut != nil {
		if _, err := io.WriteString(docOut, out); err != nil {
			return err
		}
	}
	if statsOut == nil {
		return nil
	}
	return newWriter(cmd, statsOut, cfg).WriteStatistics([]batch.Result{{
		Path:           "-",
		OriginalSize:   len(in),
		CompressedSize: len(out),
		Stats:          stats,
		Duration:       time.Since(start),
	}})
}

func isStdin(args []string) bool {
	return len(args) == 0 || (len(args) == 1 && args[0] == "-")
}

// batchRoot returns the directory output paths are made relative to: the
// argument itself when a single directory is given.
func batchRoot(args []string) string {
	if len(args) != 1 {
		return ""
	}
	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return ""
	}
	return args[0]
}
