// humanify renames minified JavaScript identifiers to descriptive names
// suggested by a language model, preserving program behavior.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"humanify/internal/config"
	"humanify/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "humanify",
	Short: "humanify - LLM-assisted unminifier for JavaScript",
	Long: `humanify takes minified or obfuscated JavaScript and rewrites its
short, meaningless identifier names (a, X1, _0x4f) into descriptive names
suggested by a language model.

Renames are scope-aware: shadowed names, destructuring shorthand and exports
stay semantically intact. With --resume, long runs checkpoint next to the
given path so they can resume after an interruption.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
		}
		return logging.Initialize(cfg.Logging.StateDir, cfg.Logging.Debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".humanify.yaml", "config file path")

	rootCmd.AddCommand(geminiCmd)
	rootCmd.AddCommand(openaiCmd)
	rootCmd.AddCommand(identityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
