package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bimmerbailey/htmlmin/internal/config"
	"github.com/bimmerbailey/htmlmin/internal/logging"
	"github.com/bimmerbailey/htmlmin/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "htmlmin",
	Short: "A whitespace-and-markup HTML compressor",
	Long: `htmlmin compresses HTML and XML documents by removing comments,
redundant whitespace, and unnecessary attributes while leaving protected
regions such as <pre>, <textarea>, scripts, and styles untouched.

Examples:
  htmlmin compress index.html
  htmlmin compress --remove-intertag-spaces --output-dir dist/ site/
  cat page.html | htmlmin compress --compress-js --compress-css > page.min.html
  htmlmin stats --format table site/
  htmlmin watch site/`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command and cancels
// its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.htmlmin.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", logging.FormatConsole, "log format (console, json)")
	rootCmd.PersistentFlags().String("color", "auto", "color output (auto, always, never)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".htmlmin")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HTMLMIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, value := range config.Defaults() {
		viper.SetDefault(key, value)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig unmarshals and validates the current viper state.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger on w. Verbose raises a quieter level
// to info so per-file results are logged.
func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	logCfg := cfg.Log
	if cfg.Verbose {
		if lvl, err := zapcore.ParseLevel(logCfg.Level); logCfg.Level == "" || (err == nil && lvl > zapcore.InfoLevel) {
			logCfg.Level = "info"
		}
	}
	return logging.New(logCfg, w)
}

// setup binds the command's flags, loads the configuration and builds the
// logger. Callers must logging.Sync the returned logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	if err := bindFlags(cmd); err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := applyPreserveFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newWriter(cmd *cobra.Command, w io.Writer, cfg *config.Config) *output.Writer {
	mode := output.ColorAuto
	if f := cmd.Flags().Lookup("color"); f != nil {
		mode = output.ParseColorMode(f.Value.String())
	}
	return output.NewWithColor(w, output.ParseFormat(cfg.Format), mode)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
