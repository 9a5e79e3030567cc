package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalStore writes uploads under <dir>/uploads and returns /uploads/... refs
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Root is the directory served under /uploads/
func (s *LocalStore) Root() string {
	return filepath.Join(s.dir, "uploads")
}

func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.Root(), string(obj.Kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := objectName(obj)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join("/uploads", string(obj.Kind), name), nil
}
