package recording

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.aimuz.me/voxlore/audiocapture"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/pcm"
)

// NoAudioMessage is reported when a session captured nothing.
const NoAudioMessage = "No audio captured. Check microphone permissions."

// TranscribeFunc converts 16 kHz mono samples to text.
type TranscribeFunc func(ctx context.Context, samples []int16) (string, error)

// FinishOptions configures one Finish call.
type FinishOptions struct {
	// OutputDir overrides the default recordings directory when non-empty.
	OutputDir string

	// Provider names the transcription provider for the processing message.
	Provider string

	Transcribe TranscribeFunc
}

// Finisher saves a capture to disk and transcribes it.
type Finisher struct {
	emit Emitter
	now  func() time.Time
}

// NewFinisher creates a Finisher publishing status through emit.
func NewFinisher(emit Emitter) *Finisher {
	if emit == nil {
		emit = func(string, any) {}
	}
	return &Finisher{emit: emit, now: time.Now}
}

// Finish writes the WAV file, transcribes it and writes the transcript
// next to it. A transcription failure is reported as an error event and
// yields empty text; only file system errors are returned.
func (f *Finisher) Finish(ctx context.Context, c Capture, opts FinishOptions) (types.RecordingResult, error) {
	if len(c.Samples) == 0 {
		f.emit(EventError, types.StatusMessage{Message: NoAudioMessage})
		return types.RecordingResult{}, nil
	}

	dir, err := ResolveOutputDir(opts.OutputDir)
	if err != nil {
		return types.RecordingResult{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.RecordingResult{}, apperr.Wrap(apperr.KindIO, err, "create recordings dir")
	}

	base := "recording_" + f.now().Format("20060102_150405")

	wavPath := filepath.Join(dir, base+".wav")
	wav := pcm.EncodeWAV(c.Samples, audiocapture.TargetSampleRate)
	if err := os.WriteFile(wavPath, wav, 0644); err != nil {
		return types.RecordingResult{}, apperr.Wrap(apperr.KindIO, err, "write wav")
	}
	slog.Info("saved recording", "path", wavPath, "bytes", len(wav))

	f.emit(EventProcessing, types.StatusMessage{Message: processingMessage(opts.Provider)})

	var text string
	if opts.Transcribe != nil {
		text, err = opts.Transcribe(ctx, c.Samples)
		if err != nil {
			slog.Error("transcription failed", "session", c.SessionID, "provider", opts.Provider, "error", err)
			f.emit(EventError, types.StatusMessage{Message: "Transcription failed: " + apperr.Message(err)})
			text = ""
		}
	}

	txtPath := filepath.Join(dir, base+".txt")
	if err := os.WriteFile(txtPath, []byte(text), 0644); err != nil {
		return types.RecordingResult{}, apperr.Wrap(apperr.KindIO, err, "write transcript")
	}

	f.emit(EventDone, nil)

	return types.RecordingResult{
		Text:         text,
		AudioPath:    wavPath,
		TextPath:     txtPath,
		DurationSecs: c.Duration(),
	}, nil
}

// ResolveOutputDir returns custom when set, otherwise
// ~/Documents/Voxlore/recordings.
func ResolveOutputDir(custom string) (string, error) {
	if custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "Cannot determine home directory")
	}
	return filepath.Join(home, "Documents", "Voxlore", "recordings"), nil
}

func processingMessage(provider string) string {
	if provider == "" || provider == "local" {
		return "Processing transcription locally..."
	}
	return fmt.Sprintf("Processing via cloud AI (%s)... If network is slow, this may timeout.", provider)
}
