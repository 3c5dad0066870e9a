package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.aimuz.me/voxlore/audiocapture"
	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/recording"
	"go.aimuz.me/voxlore/stt"
	"go.aimuz.me/voxlore/textinsert"
)

// errStartFailed cancels a cycle whose recorder never started.
var errStartFailed = errors.New("recording did not start")

// cycle scopes one dictation from press to result. A stop waiting on the
// recorder is abandoned when the matching start fails.
type cycle struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// aborted reports whether begin already returned the machine to idle.
func (c *cycle) aborted() bool {
	return errors.Is(context.Cause(c.ctx), errStartFailed)
}

func (s *Service) newCycle() *cycle {
	ctx, cancel := context.WithCancelCause(s.ctx)
	c := &cycle{ctx: ctx, cancel: cancel}
	s.mu.Lock()
	s.cycle = c
	s.mu.Unlock()
	return c
}

func (s *Service) currentCycle() *cycle {
	s.mu.RLock()
	c := s.cycle
	s.mu.RUnlock()
	if c == nil {
		return &cycle{ctx: s.ctx, cancel: func(error) {}}
	}
	return c
}

// StartRecording starts a dictation from the UI.
func (s *Service) StartRecording() error {
	if !s.machine.Begin() {
		return recording.ErrAlreadyRecording
	}
	return s.begin(s.newCycle())
}

// StopRecording ends a dictation started from the UI or the hotkey and
// returns its result.
func (s *Service) StopRecording() (types.RecordingResult, error) {
	if !s.machine.End() {
		return types.RecordingResult{}, recording.ErrNotRecording
	}
	return s.finish(s.currentCycle())
}

// begin captures the focused application and starts the recorder. The
// cycle returns to idle when the recorder cannot start, and a stop already
// waiting for it gives up.
func (s *Service) begin(c *cycle) error {
	target, _ := s.focus.CaptureRecordingTarget(c.ctx)
	slog.Info("dictation started", "target", target)

	if err := s.recorder.Start(c.ctx); err != nil {
		slog.Error("start recording", "error", err)
		c.cancel(errStartFailed)
		s.machine.Done()
		s.emitHotkeyState()
		return err
	}
	return nil
}

// finish stops the recorder and runs the rest of the cycle.
func (s *Service) finish(c *cycle) (types.RecordingResult, error) {
	defer func() {
		if !c.aborted() {
			s.machine.Done()
			s.emitHotkeyState()
		}
		c.cancel(nil)
	}()

	capture, err := s.recorder.Stop(c.ctx)
	if c.aborted() {
		slog.Debug("stop abandoned", "reason", context.Cause(c.ctx))
		return types.RecordingResult{}, recording.ErrNotRecording
	}
	if err != nil {
		slog.Error("stop recording", "error", err)
		if !errors.Is(err, recording.ErrNotRecording) {
			s.emit(EventError, types.StatusMessage{Message: apperr.Message(err)})
		}
		return types.RecordingResult{}, err
	}
	return s.process(c.ctx, capture)
}

// process saves and transcribes a capture, enhances the text when enabled,
// then previews or delivers it.
func (s *Service) process(ctx context.Context, c recording.Capture) (types.RecordingResult, error) {
	cfg := s.settings()
	snap := cfg.Snapshot()

	var language string
	result, err := s.finisher.Finish(ctx, c, recording.FinishOptions{
		OutputDir: snap.OutputDir,
		Provider:  snap.Provider,
		Transcribe: func(ctx context.Context, samples []int16) (string, error) {
			res, err := s.transcriber.Transcribe(ctx, stt.Request{
				Provider:    snap.Provider,
				Samples:     samples,
				SampleRate:  audiocapture.TargetSampleRate,
				Language:    snap.Language,
				Model:       snap.Model,
				BaseURL:     snap.BaseURL,
				TimeoutSecs: snap.CloudTimeoutSecs,
			})
			if err != nil {
				return "", err
			}
			language = res.Language
			return res.Text, nil
		},
	})
	if err != nil {
		s.emit(EventError, types.StatusMessage{Message: apperr.Message(err)})
		return result, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return result, nil
	}

	raw := result.Text
	if e := cfg.EnhancementSettings(); e.Enabled {
		result.Text = s.enhance(ctx, raw, e, languageFor(snap.Language, language))
	}
	s.emit(EventRecordingResult, result)

	entry := types.HistoryEntry{
		Text:         result.Text,
		Provider:     snap.Provider,
		Language:     language,
		AudioPath:    result.AudioPath,
		DurationSecs: result.DurationSecs,
		Target:       s.focus.RecordingTarget(),
	}
	if result.Text != raw {
		entry.RawText = raw
	}

	switch {
	case snap.PreviewBeforeApply:
		s.openPreview(ctx, result.Text, entry)
	case snap.AutoInsert:
		entry.AutoPasted, entry.Target = s.deliver(ctx, result.Text)
		s.record(entry)
	default:
		s.focus.Clear()
		s.record(entry)
	}
	return result, nil
}

// enhance returns the rewritten text, or text itself when the rewrite fails.
func (s *Service) enhance(ctx context.Context, text string, e types.EnhancementSettings, language string) string {
	s.emit(EventProcessing, types.StatusMessage{Message: fmt.Sprintf("Enhancing text via %s...", e.Provider)})
	out, err := s.enhancer.Enhance(ctx, text, enhance.ConfigFrom(e, language))
	if err != nil {
		slog.Warn("enhancement skipped", "provider", e.Provider, "error", err)
		s.notifier.Error("Enhancement failed: " + apperr.Message(err))
		return text
	}
	return out
}

// deliver pastes text into the apply target with one retry and reports
// the outcome. The focus slots are cleared afterwards.
func (s *Service) deliver(ctx context.Context, text string) (autoPasted bool, target string) {
	defer s.focus.Clear()

	target, _ = s.focus.ApplyTarget(ctx)
	t := s.focus.Timing()
	pasted, err := textinsert.DeliverToTarget(ctx, s.deliverer, s.focus, target, text, t.ActivationSettle, t.RetrySettle)
	if err != nil {
		slog.Error("deliver text", "target", target, "error", err)
		s.emit(EventError, types.StatusMessage{Message: apperr.Message(err)})
		return false, target
	}

	s.emit(EventDelivery, types.DeliveryResult{AutoPasted: pasted, Target: target})
	if pasted {
		s.notifier.Info(fmt.Sprintf("Inserted %d characters", len([]rune(text))))
	} else {
		s.notifier.Info("Text copied to clipboard. Paste with Cmd/Ctrl+V.")
	}
	return pasted, target
}

func (s *Service) record(e types.HistoryEntry) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Add(e); err != nil {
		slog.Warn("save history", "error", err)
		return
	}
	if limit := s.settings().HistoryLimit; limit > 0 {
		if n, err := s.history.Trim(limit); err != nil {
			slog.Warn("trim history", "error", err)
		} else if n > 0 {
			slog.Debug("trimmed history", "removed", n)
		}
	}
}

func (s *Service) emitHotkeyState() {
	s.emit(EventHotkeyState, types.HotkeyState{State: s.machine.State().String()})
}

// languageFor prefers the configured language and falls back to the
// detected one when dictating in auto mode.
func languageFor(configured, detected string) string {
	if configured != "" && configured != "auto" {
		return configured
	}
	return detected
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

// EnhanceText rewrites text with the configured enhancement settings,
// whether or not automatic enhancement is enabled.
func (s *Service) EnhanceText(text string) (string, error) {
	cfg := s.settings()
	ctx, cancel := context.WithTimeout(s.ctx, enhance.DefaultTimeout+5*time.Second)
	defer cancel()
	return s.enhancer.Enhance(ctx, text, enhance.ConfigFrom(cfg.EnhancementSettings(), cfg.STTLanguage))
}

// InsertText delivers text into the last recording target, or whatever
// application gains focus within the apply budget.
func (s *Service) InsertText(text string) types.DeliveryResult {
	pasted, target := s.deliver(s.ctx, text)
	return types.DeliveryResult{AutoPasted: pasted, Target: target}
}
