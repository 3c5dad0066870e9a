package app

import (
	"context"
	"log/slog"
	"strings"

	"go.aimuz.me/voxlore/internal/types"
)

type previewState struct {
	open  bool
	text  string
	entry types.HistoryEntry
}

// ShowPreview opens the preview window with text. The preview target is
// captured before the window takes focus.
func (s *Service) ShowPreview(text string) {
	s.openPreview(s.ctx, text, types.HistoryEntry{Text: text})
}

func (s *Service) openPreview(ctx context.Context, text string, entry types.HistoryEntry) {
	target, _ := s.focus.CapturePreviewTarget(ctx)

	s.mu.Lock()
	s.preview = previewState{open: true, text: text, entry: entry}
	s.mu.Unlock()

	slog.Info("preview opened", "target", target, "chars", len([]rune(text)))
	s.showPreviewWindow(true)
	s.emit(EventPreview, types.PreviewState{Open: true, Text: text, Target: target})
}

// PreviewText returns the text waiting in the preview window.
func (s *Service) PreviewText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview.text
}

// PreviewTarget returns the application the preview will paste into.
func (s *Service) PreviewTarget() string {
	return s.focus.PreviewTarget()
}

// ApplyPreview closes the preview and delivers text, which may have been
// edited, to the preview target.
func (s *Service) ApplyPreview(text string) types.DeliveryResult {
	entry := s.closePreview()
	s.emit(EventPreview, types.PreviewState{Open: false})

	if strings.TrimSpace(text) == "" {
		s.focus.Clear()
		s.emit(EventDone, nil)
		return types.DeliveryResult{}
	}

	pasted, target := s.deliver(s.ctx, text)
	s.emit(EventDone, nil)

	if entry.Text != "" && entry.Text != text && entry.RawText == "" {
		entry.RawText = entry.Text
	}
	entry.Text = text
	entry.AutoPasted = pasted
	entry.Target = target
	s.record(entry)
	return types.DeliveryResult{AutoPasted: pasted, Target: target}
}

// CancelPreview closes the preview without delivering anything.
func (s *Service) CancelPreview() {
	s.closePreview()
	s.focus.Clear()
	s.emit(EventPreview, types.PreviewState{Open: false})
	slog.Info("preview cancelled")
}

func (s *Service) closePreview() types.HistoryEntry {
	s.mu.Lock()
	entry := s.preview.entry
	s.preview = previewState{}
	s.mu.Unlock()

	s.showPreviewWindow(false)
	return entry
}
