package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"cityconnect/logger"
)

// UnsignedHost posts the photo as multipart form data with an unsigned
// upload preset, the way Cloudinary style hosts accept client uploads.
type UnsignedHost struct {
	url    string
	preset string
	http   *http.Client
	log    *slog.Logger
}

func NewUnsignedHost(url, preset string, hc *http.Client, log *slog.Logger) *UnsignedHost {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &UnsignedHost{url: url, preset: preset, http: hc, log: log}
}

func (h *UnsignedHost) Upload(ctx context.Context, photo Photo) (string, error) {
	if len(photo.Data) == 0 {
		return "", ErrEmptyPhoto
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", photo.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("upload_preset", h.preset); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	// The boundary travels in the writer's content type.
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := payload.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		h.log.Warn("photo upload rejected", slog.Int("status", resp.StatusCode), slog.String("error", msg))
		return "", fmt.Errorf("upload rejected: %s", msg)
	}
	if payload.SecureURL == "" {
		return "", ErrNoURL
	}

	h.log.Info("photo uploaded", slog.String("url", payload.SecureURL), slog.Int("bytes", len(photo.Data)))
	return payload.SecureURL, nil
}
