package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.aimuz.me/voxlore/internal/app"
	"go.aimuz.me/voxlore/internal/types"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Dictate from the microphone",
	Long: `Record from the default microphone until Ctrl+C (or --duration), then
transcribe, optionally enhance, and print the text.

With --insert the text is pasted into the focused application the same way
the desktop app does it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("duration")
		insert, _ := cmd.Flags().GetBool("insert")
		if cmd.Flags().Changed("enhance") {
			cfg.Enhancement.Enabled, _ = cmd.Flags().GetBool("enhance")
		}
		cfg.AutoInsert = insert
		cfg.PreviewBeforeInsert = false

		svc := app.New(version)
		svc.Init(app.Options{Config: cfg, SetDebugLogging: logger.SetDebug})
		defer svc.Shutdown()
		svc.SetEmitter(printStatus)

		if err := svc.StartRecording(); err != nil {
			return fmt.Errorf("start recording: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Recording... press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}
		<-ctx.Done()

		res, err := svc.StopRecording()
		if err != nil {
			return fmt.Errorf("stop recording: %w", err)
		}
		if res.Text == "" {
			return fmt.Errorf("no text transcribed")
		}
		slog.Info("dictation saved", "audio", res.AudioPath, "seconds", res.DurationSecs)
		fmt.Println(res.Text)
		return nil
	},
}

func printStatus(name string, data any) {
	switch name {
	case app.EventProcessing:
		if m, ok := data.(types.StatusMessage); ok {
			fmt.Fprintln(os.Stderr, m.Message)
		}
	case app.EventError:
		if m, ok := data.(types.StatusMessage); ok {
			fmt.Fprintln(os.Stderr, "error:", m.Message)
		}
	case app.EventDelivery:
		if d, ok := data.(types.DeliveryResult); ok {
			if d.AutoPasted {
				fmt.Fprintf(os.Stderr, "Inserted into %s\n", d.Target)
			} else {
				fmt.Fprintln(os.Stderr, "Copied to clipboard")
			}
		}
	}
}

func init() {
	recordCmd.Flags().Duration("duration", 0, "stop after this long (default: until Ctrl+C)")
	recordCmd.Flags().Bool("insert", false, "paste the text into the focused application")
	recordCmd.Flags().Bool("enhance", false, "rewrite the text with the configured enhancement (overrides config)")
}
