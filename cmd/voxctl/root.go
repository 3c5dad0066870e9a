package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.aimuz.me/voxlore/config"
	"go.aimuz.me/voxlore/internal/logging"
)

var version = "dev"

var (
	v      = viper.New()
	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "voxctl",
	Short: "Command line companion for Voxlore",
	Long: `voxctl drives the Voxlore dictation pipeline from a terminal.

It shares settings, API keys, models and history with the desktop app.
Every persistent flag can also be set through a VOXLORE_ environment
variable, for example VOXLORE_PROVIDER=mistral.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.Setup(logging.Options{
			Debug:   v.GetBool("debug"),
			Console: os.Stderr,
			NoColor: v.GetBool("no-color"),
		})

		var err error
		if path := v.GetString("config"); path != "" {
			cfg, err = config.LoadFrom(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyOverrides(cfg)
		slog.Debug("config loaded", "stt_provider", cfg.STTProvider, "language", cfg.STTLanguage)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
}

// applyOverrides copies flag and environment overrides into c. The
// overrides are not saved.
func applyOverrides(c *config.Config) {
	if v.IsSet("provider") {
		c.STTProvider = v.GetString("provider")
	}
	if v.IsSet("language") {
		c.STTLanguage = v.GetString("language")
	}
	if v.IsSet("model-dir") {
		c.LocalModel.Dir = v.GetString("model-dir")
	}
	if v.IsSet("output") {
		c.OutputDir = v.GetString("output")
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is the Voxlore config dir)")
	pf.Bool("debug", false, "enable debug logging")
	pf.Bool("no-color", false, "disable colored log output")
	pf.String("provider", "", "transcription provider (overrides config)")
	pf.String("language", "", "dictation language, or auto (overrides config)")
	pf.String("model-dir", "", "local model directory (overrides config)")
	pf.StringP("output", "o", "", "recordings directory (overrides config)")
	if err := v.BindPFlags(pf); err != nil {
		panic(err)
	}

	v.SetEnvPrefix("VOXLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
