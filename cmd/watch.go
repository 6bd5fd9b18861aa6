package cmd

import (
	"github.com/bimmerbailey/htmlmin/internal/batch"
	"github.com/bimmerbailey/htmlmin/internal/config"
	"github.com/bimmerbailey/htmlmin/internal/logging"
	"github.com/bimmerbailey/htmlmin/internal/watch"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <dir>",
		Short: "Recompress files as they change",
		Long: `Watch a directory tree and recompress every matching file when it is
created or written, until interrupted. Changes to the configuration file are
picked up without a restart.

Examples:
  htmlmin watch site/
  htmlmin watch --output-dir dist/ --remove-intertag-spaces site/
  htmlmin watch --ext .html,.tmpl templates/`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	addCompressorFlags(cmd)
	addBatchFlags(cmd)
	cmd.Flags().StringP("output-dir", "o", "", "write compressed files to this directory instead of overwriting")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "wait this long after the last change before compressing")
	return cmd
}

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	debounce, _ := cmd.Flags().GetDuration("debounce")

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	p, err := newWatchProcessor(cfg, logger, dir)
	if err != nil {
		return err
	}

	wr := newWriter(cmd, cmd.OutOrStdout(), cfg)
	w := watch.New(watch.Options{
		Dir:        dir,
		Extensions: cfg.Extensions,
		Debounce:   debounce,
		Processor:  p,
		OnResult: func(r batch.Result) {
			_ = wr.WriteResult(r)
		},
		Logger: logger,
	})

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			reloadWatchConfig(cmd, w, logger, dir, e.Name)
		})
		viper.WatchConfig()
	}

	return w.Run(commandContext(cmd))
}

// reloadWatchConfig rebuilds the processor after the config file changed.
// An invalid configuration keeps the previous processor.
func reloadWatchConfig(cmd *cobra.Command, w *watch.Watcher, logger *zap.Logger, dir, file string) {
	cfg, err := loadConfig()
	if err == nil {
		err = applyPreserveFlags(cmd, cfg)
	}
	if err != nil {
		logger.Error("ignoring configuration change", zap.String("file", file), zap.Error(err))
		return
	}

	p, err := newWatchProcessor(cfg, logger, dir)
	if err != nil {
		logger.Error("ignoring configuration change", zap.String("file", file), zap.Error(err))
		return
	}
	w.SetProcessor(p)
	logger.Info("configuration reloaded", zap.String("file", file))
}

func newWatchProcessor(cfg *config.Config, logger *zap.Logger, dir string) (*batch.Processor, error) {
	comp, err := cfg.Compressor.Build(logger)
	if err != nil {
		return nil, err
	}
	return &batch.Processor{
		Compressor: comp,
		Workers:    1,
		OutputDir:  cfg.OutputDir,
		Root:       dir,
		Logger:     logger,
	}, nil
}
