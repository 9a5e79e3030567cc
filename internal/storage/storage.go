// Package storage keeps the binaries behind audio and file answers.
package storage

import (
	"context"
	"datalingua/internal/config"
	"datalingua/internal/model"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge            = errors.New("upload exceeds the size limit")
	ErrExtensionNotAllowed = errors.New("file type not allowed")
)

// Kind separates recorded audio from uploaded files
type Kind string

const (
	KindAudio Kind = "audio"
	KindFile  Kind = "files"
)

// Object is an upload waiting to be stored
type Object struct {
	Kind        Kind
	Name        string // original file name
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists an object and returns the reference saved on the answer
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
}

// New builds the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir), nil
	case "minio":
		return NewMinioStore(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Limits caps upload sizes independently of per-question settings
type Limits struct {
	MaxAudioBytes int64
	MaxFileBytes  int64
}

func LimitsFrom(cfg config.StorageConfig) Limits {
	return Limits{MaxAudioBytes: cfg.MaxAudioBytes(), MaxFileBytes: cfg.MaxFileBytes()}
}

// Check enforces the configured caps and the question's file settings
func (l Limits) Check(q model.Question, obj Object) error {
	limit := l.MaxFileBytes
	if obj.Kind == KindAudio {
		limit = l.MaxAudioBytes
	}
	if st := q.FileSettings; obj.Kind == KindFile && st != nil && st.MaxFileSizeMB > 0 {
		if perQuestion := int64(st.MaxFileSizeMB) << 20; limit <= 0 || perQuestion < limit {
			limit = perQuestion
		}
	}
	if limit > 0 && obj.Size > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, obj.Name, obj.Size, limit)
	}

	if obj.Kind == KindFile && q.FileSettings != nil && len(q.FileSettings.AllowedExtensions) > 0 {
		ext := normalizeExt(filepath.Ext(obj.Name))
		for _, allowed := range q.FileSettings.AllowedExtensions {
			if normalizeExt(allowed) == ext {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrExtensionNotAllowed, obj.Name)
	}
	return nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// objectName is a fresh name; audio is always stored as webm
func objectName(obj Object) string {
	if obj.Kind == KindAudio {
		return uuid.New().String() + ".webm"
	}
	ext := normalizeExt(filepath.Ext(obj.Name))
	if ext == "" {
		return uuid.New().String()
	}
	return uuid.New().String() + "." + ext
}
