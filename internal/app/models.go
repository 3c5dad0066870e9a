package app

import (
	"log/slog"
	"slices"

	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/stt"
)

// ─────────────────────────────────────────────────────────────────────────────
// Local models
// ─────────────────────────────────────────────────────────────────────────────

// ModelDir returns the configured model directory or the default one.
func (s *Service) ModelDir() (string, error) {
	if dir := s.settings().LocalModel.Dir; dir != "" {
		return dir, nil
	}
	return stt.DefaultModelDir()
}

// ListModels returns every known model with its download and load state.
func (s *Service) ListModels() ([]types.ModelInfo, error) {
	dir, err := s.ModelDir()
	if err != nil {
		return nil, err
	}
	downloaded, err := stt.ListDownloaded(dir)
	if err != nil {
		return nil, err
	}
	status := s.local.Status()

	out := make([]types.ModelInfo, 0, len(stt.Models))
	for _, m := range stt.Models {
		out = append(out, types.ModelInfo{
			ID:         m.ID,
			Size:       m.Size,
			Downloaded: slices.Contains(downloaded, m.ID),
			Loaded:     status.Loaded && status.ModelID == m.ID,
		})
	}
	return out, nil
}

// DownloadModel fetches a model, publishing model-download progress.
func (s *Service) DownloadModel(id string) (string, error) {
	dir, err := s.ModelDir()
	if err != nil {
		return "", err
	}
	last := -1
	path, err := stt.Download(s.ctx, s.http, id, dir, func(percent int) {
		if percent == last {
			return
		}
		last = percent
		s.emit(EventModelDownload, types.DownloadProgress{ModelID: id, Percent: percent})
	})
	if err != nil {
		slog.Error("download model", "model", id, "error", err)
		return "", err
	}
	s.notifier.Info("Model " + id + " downloaded")
	return path, nil
}

// LoadModel loads a downloaded model and remembers it for the next start.
func (s *Service) LoadModel(id string) error {
	dir, err := s.ModelDir()
	if err != nil {
		return err
	}
	if err := s.local.Load(id, dir); err != nil {
		return err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	cur := s.settings()
	cur.LocalModel.ID = id
	if err := s.save(cur); err != nil {
		slog.Warn("save loaded model", "model", id, "error", err)
	}
	s.mu.Lock()
	s.cfg.LocalModel.ID = id
	s.mu.Unlock()
	return nil
}

// UnloadModel releases the local model.
func (s *Service) UnloadModel() {
	s.local.Unload()
}

// ModelStatus describes the local model.
func (s *Service) ModelStatus() types.ModelStatus {
	return s.local.Status()
}

// autoLoadModel loads the configured model, or the first downloaded one.
func (s *Service) autoLoadModel() {
	if s.local.IsLoaded() {
		return
	}
	dir, err := s.ModelDir()
	if err != nil {
		return
	}
	downloaded, err := stt.ListDownloaded(dir)
	if err != nil || len(downloaded) == 0 {
		slog.Info("no downloaded local models", "dir", dir)
		return
	}

	id := s.settings().LocalModel.ID
	if !slices.Contains(downloaded, id) {
		id = downloaded[0]
	}
	if err := s.local.Load(id, dir); err != nil {
		slog.Warn("auto-load local model", "model", id, "error", err)
		return
	}
	slog.Info("auto-loaded local model", "model", id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Providers & API keys
// ─────────────────────────────────────────────────────────────────────────────

// CheckProviders reports key availability for every transcription and
// enhancement provider.
func (s *Service) CheckProviders() []types.ProviderHealth {
	var out []types.ProviderHealth
	seen := make(map[string]bool)
	for _, p := range stt.Providers {
		seen[p] = true
		out = append(out, types.ProviderHealth{
			Provider:  p,
			HasAPIKey: s.transcriber.HasKey(p),
			IsLocal:   p == stt.ProviderLocal,
		})
	}
	for _, p := range enhance.Providers {
		if seen[p] {
			continue
		}
		out = append(out, types.ProviderHealth{
			Provider:  p,
			HasAPIKey: enhance.IsLocal(p) || s.HasAPIKey(p),
			IsLocal:   enhance.IsLocal(p),
		})
	}
	return out
}

// HasAPIKey reports whether a key is stored for provider.
func (s *Service) HasAPIKey(provider string) bool {
	_, ok, err := s.keys.Get(provider)
	if err != nil {
		slog.Warn("read api key", "provider", provider, "error", err)
	}
	return ok && err == nil
}

// SaveAPIKey stores key for provider. An empty key deletes it.
func (s *Service) SaveAPIKey(provider, key string) error {
	if provider == "" {
		return apperr.Security("Provider required")
	}
	return s.keys.Set(provider, key)
}

// DeleteAPIKey removes the key for provider.
func (s *Service) DeleteAPIKey(provider string) error {
	return s.keys.Delete(provider)
}

// ─────────────────────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────────────────────

// ListHistory returns up to limit dictations, newest first.
func (s *Service) ListHistory(limit int) ([]types.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(limit)
}

// DeleteHistory removes one dictation.
func (s *Service) DeleteHistory(id string) error {
	if s.history == nil {
		return nil
	}
	return s.history.Delete(id)
}

// ClearHistory removes every dictation.
func (s *Service) ClearHistory() error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear()
}
