package storage

import (
	"context"
	"datalingua/internal/model"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	ref, err := store.Put(context.Background(), Object{
		Kind: KindAudio,
		Name: "blob",
		Size: 5,
		Body: strings.NewReader("audio"),
	})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/audio/") || !strings.HasSuffix(ref, ".webm") {
		t.Fatalf("unexpected ref: %s", ref)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "audio" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestLocalStoreKeepsExtension(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ref, err := store.Put(context.Background(), Object{Kind: KindFile, Name: "CV.PDF", Body: strings.NewReader("%PDF")})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/files/") || !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("unexpected ref: %s", ref)
	}
}

func TestLocalStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocalStore(t.TempDir()).Put(ctx, Object{Kind: KindFile, Body: strings.NewReader("x")}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestLimitsCheck(t *testing.T) {
	limits := Limits{MaxAudioBytes: 100, MaxFileBytes: 10 << 20}
	q := model.Question{ID: "f", Type: model.QuestionFileUpload, FileSettings: &model.FileSettings{
		AllowedExtensions: []string{".pdf", "DOCX"},
		MaxFileSizeMB:     1,
	}}

	tests := []struct {
		name string
		obj  Object
		want error
	}{
		{"allowed", Object{Kind: KindFile, Name: "a.pdf", Size: 1000}, nil},
		{"case-insensitive extension", Object{Kind: KindFile, Name: "a.docx", Size: 1000}, nil},
		{"extension", Object{Kind: KindFile, Name: "a.exe", Size: 1000}, ErrExtensionNotAllowed},
		{"per-question size", Object{Kind: KindFile, Name: "a.pdf", Size: 2 << 20}, ErrTooLarge},
		{"audio cap", Object{Kind: KindAudio, Name: "rec", Size: 101}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.Check(q, tt.obj)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
