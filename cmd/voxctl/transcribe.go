package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/secret"
	"go.aimuz.me/voxlore/stt"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file with the configured provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wav, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}

		local := stt.NewLocalEngine()
		if cfg.STTProvider == stt.ProviderLocal {
			if err := loadLocalModel(local); err != nil {
				return err
			}
		}
		d := stt.NewDispatcher(local, secret.New())

		snap := cfg.Snapshot()
		res, err := d.Transcribe(cmd.Context(), stt.Request{
			Provider:    snap.Provider,
			WAV:         wav,
			Language:    snap.Language,
			Model:       snap.Model,
			BaseURL:     snap.BaseURL,
			TimeoutSecs: snap.CloudTimeoutSecs,
		})
		if err != nil {
			return err
		}
		fmt.Println(res.Text)
		if res.Language != "" {
			fmt.Fprintf(os.Stderr, "language: %s\n", res.Language)
		}
		return nil
	},
}

// loadLocalModel loads the configured local model, or the first one found
// in the model directory.
func loadLocalModel(local *stt.LocalEngine) error {
	dir := cfg.LocalModel.Dir
	if dir == "" {
		var err error
		if dir, err = stt.DefaultModelDir(); err != nil {
			return err
		}
	}
	downloaded, err := stt.ListDownloaded(dir)
	if err != nil {
		return err
	}
	id := cfg.LocalModel.ID
	if !slices.Contains(downloaded, id) {
		if len(downloaded) == 0 {
			return fmt.Errorf("no local model in %s; run 'voxctl models download base'", dir)
		}
		id = downloaded[0]
	}
	return local.Load(id, dir)
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance [text]",
	Short: "Rewrite text with the configured enhancement provider",
	Long: `Rewrite text with the configured enhancement provider and mode.
The text is read from stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := ""
		if len(args) == 1 {
			text = args[0]
		} else {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(b)
		}

		e := cfg.EnhancementSettings()
		if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
			if !enhance.IsValidMode(mode) {
				return fmt.Errorf("unknown enhancement mode %q", mode)
			}
			e.Mode = mode
		}
		out, err := enhance.New(secret.New()).Enhance(cmd.Context(), strings.TrimSpace(text), enhance.ConfigFrom(e, cfg.STTLanguage))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	enhanceCmd.Flags().String("mode", "", "fix_grammar, add_punctuation, adjust_tone or custom (overrides config)")
}
