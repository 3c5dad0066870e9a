package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.aimuz.me/voxlore/internal/apperr"
)

// formField is one text field of a multipart upload. Fields with an empty
// value are skipped.
type formField struct {
	name  string
	value string
}

// uploadWAV posts wav as a multipart form under fileField and returns the
// raw response body. Non-2xx responses become STT errors naming provider
// and the HTTP status.
func uploadWAV(ctx context.Context, cfg Config, provider, url, fileField string, wav []byte, fields []formField, header http.Header) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fileField, "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write %s field: %w", f.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return send(cfg, provider, req)
}

// postJSON posts body as JSON and returns the raw response body.
func postJSON(ctx context.Context, cfg Config, provider, url string, body any, header http.Header) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	return send(cfg, provider, req)
}

func send(cfg Config, provider string, req *http.Request) ([]byte, error) {
	resp, err := cfg.client().Do(req)
	if err != nil {
		return nil, &apperr.Error{
			Kind: apperr.KindNetwork,
			Msg:  provider + " request failed",
			Err:  err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.STT("%s API error (%d): %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func bearer(key string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+key)
	return h
}

// baseURL trims trailing slashes from custom, falling back to def.
func baseURL(custom, def string) string {
	custom = strings.TrimRight(strings.TrimSpace(custom), "/")
	if custom == "" {
		return def
	}
	return custom
}
