// Package upload sends activity photos to an image host and hands back the
// public URL that gets stored on the activity.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPhoto  = errors.New("photo is empty")
	ErrNoURL       = errors.New("image host returned no url")
	ErrUnsupported = errors.New("unsupported image type")
)

// Photo is a picked image. Only the URL the host returns ever reaches the
// backend, never these bytes.
type Photo struct {
	Filename string
	Data     []byte
}

func (p Photo) ContentType() string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(p.Filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}

type ImageHost interface {
	Upload(ctx context.Context, photo Photo) (string, error)
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
}

// ReadPhoto loads an image from disk.
func ReadPhoto(path string) (Photo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExt[ext] {
		return Photo{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) == 0 {
		return Photo{}, ErrEmptyPhoto
	}
	return Photo{Filename: filepath.Base(path), Data: data}, nil
}
