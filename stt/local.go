package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/pcm"
)

// ModelInfo describes a downloadable whisper.cpp model.
type ModelInfo struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Size int64  `json:"size"` // approximate, bytes
}

// Models lists the whisper.cpp models that can be downloaded.
var Models = []ModelInfo{
	{"tiny", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin", 75 << 20},
	{"base", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin", 142 << 20},
	{"small", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin", 466 << 20},
	{"medium", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin", 1500 << 20},
	{"large-v3", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin", 3000 << 20},
}

// LookupModel returns the registry entry for id.
func LookupModel(id string) (ModelInfo, bool) {
	i := slices.IndexFunc(Models, func(m ModelInfo) bool { return m.ID == id })
	if i < 0 {
		return ModelInfo{}, false
	}
	return Models[i], true
}

// DefaultModelDir returns ~/.voxlore/models.
func DefaultModelDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".voxlore", "models"), nil
}

// ModelPath returns where model id lives inside dir.
func ModelPath(dir, id string) string {
	return filepath.Join(dir, "ggml-"+id+".bin")
}

// loadedModel is immutable once published.
type loadedModel struct {
	id   string
	path string
	bin  string
}

// LocalEngine runs whisper.cpp on the local machine. A model must be
// loaded before Transcribe; Load and Unload swap the model atomically so
// an in-flight transcription keeps the model it started with.
type LocalEngine struct {
	// BinPath overrides whisper.cpp binary discovery.
	BinPath string

	model atomic.Pointer[loadedModel]

	// run executes the whisper.cpp binary; replaced in tests.
	run func(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// NewLocalEngine creates an engine with no model loaded.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{run: runCommand}
}

// Load makes model id from dir the active model.
func (e *LocalEngine) Load(id, dir string) error {
	if dir == "" {
		d, err := DefaultModelDir()
		if err != nil {
			return err
		}
		dir = d
	}
	path := ModelPath(dir, id)
	if _, err := os.Stat(path); err != nil {
		return apperr.STT("Model not downloaded: %s. Download it first.", id)
	}

	bin := e.BinPath
	if bin == "" {
		bin = findWhisperBinary()
	}
	if bin == "" {
		return apperr.STT("whisper.cpp binary not found. Install whisper.cpp (whisper-cli) first.")
	}

	e.model.Store(&loadedModel{id: id, path: path, bin: bin})
	slog.Info("local model loaded", "model", id, "path", path, "bin", bin)
	return nil
}

// Unload drops the active model.
func (e *LocalEngine) Unload() {
	if old := e.model.Swap(nil); old != nil {
		slog.Info("local model unloaded", "model", old.id)
	}
}

// IsLoaded reports whether a model is active.
func (e *LocalEngine) IsLoaded() bool {
	return e.model.Load() != nil
}

// Status describes the active model.
func (e *LocalEngine) Status() types.ModelStatus {
	m := e.model.Load()
	if m == nil {
		return types.ModelStatus{}
	}
	return types.ModelStatus{Loaded: true, ModelID: m.id, Path: m.path}
}

// Transcribe runs the active model over mono 16-bit samples.
func (e *LocalEngine) Transcribe(ctx context.Context, samples []int16, sampleRate int, language string) (*Result, error) {
	m := e.model.Load()
	if m == nil {
		return nil, ErrModelNotLoaded
	}

	tmp, err := os.MkdirTemp("", "voxlore-whisper-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	audioPath := filepath.Join(tmp, "audio.wav")
	if err := os.WriteFile(audioPath, pcm.EncodeWAV(samples, sampleRate), 0o644); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	lang := isoLanguage(language)
	if lang == "" {
		lang = "auto"
	}
	outPrefix := filepath.Join(tmp, "out")
	args := []string{
		"-m", m.path,
		"-f", audioPath,
		"-l", lang,
		"-oj",
		"-of", outPrefix,
		"-np",
	}

	run := e.run
	if run == nil {
		run = runCommand
	}
	stdout, err := run(ctx, m.bin, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apperr.Error{Kind: apperr.KindSTT, Msg: "whisper.cpp failed", Err: err}
	}

	data, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		// older builds print the transcript instead of writing JSON
		return &Result{
			Text:       strings.TrimSpace(string(stdout)),
			Language:   language,
			Confidence: 0.8,
		}, nil
	}

	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperr.STT("Failed to parse whisper.cpp output: %v", err)
	}

	var text strings.Builder
	for _, seg := range out.Transcription {
		text.WriteString(seg.Text)
	}
	return &Result{
		Text:       strings.TrimSpace(text.String()),
		Language:   out.Result.Language,
		Confidence: 0.9,
	}, nil
}

// ListDownloaded returns the ids of the models present in dir.
func ListDownloaded(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "ggml-") || !strings.HasSuffix(name, ".bin") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "ggml-"), ".bin"))
	}
	slices.Sort(ids)
	return ids, nil
}

// Download fetches model id into dir, reporting percentage progress.
// The file is written under a temporary name and renamed on success.
func Download(ctx context.Context, client *http.Client, id, dir string, progress func(percent int)) (string, error) {
	info, ok := LookupModel(id)
	if !ok {
		return "", apperr.STT("Unknown model: %s", id)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &apperr.Error{Kind: apperr.KindNetwork, Msg: "model download failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Network("model download failed: HTTP %d", resp.StatusCode)
	}

	expected := resp.ContentLength
	if expected <= 0 {
		expected = info.Size
	}

	path := ModelPath(dir, id)
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	pw := &progressWriter{total: expected, report: progress}
	if _, err := io.Copy(io.MultiWriter(f, pw), resp.Body); err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename file: %w", err)
	}
	if progress != nil {
		progress(100)
	}
	return path, nil
}

type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.report != nil && p.total > 0 {
		pct := int(min(p.written*100/p.total, 99))
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return len(b), nil
}

func runCommand(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func findWhisperBinary() string {
	// whisper-cli is the Homebrew name
	names := []string{"whisper-cli", "whisper-cpp", "whisper"}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp", "build", "bin"),
	}
	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	if runtime.GOOS == "darwin" {
		execPath, _ := os.Executable()
		bundlePath := filepath.Join(filepath.Dir(execPath), "..", "Resources", "whisper-cli")
		if _, err := os.Stat(bundlePath); err == nil {
			return bundlePath
		}
	}

	return ""
}

// whisperCppOutput is the JSON written by whisper.cpp with -oj.
type whisperCppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}
