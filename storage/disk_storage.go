package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

type diskStorage struct {
	BaseDir string
}

// NewDiskStorage stores every key as a file below baseDir. Keys use '/' as the separator.
func NewDiskStorage(baseDir string) System {
	return &diskStorage{BaseDir: baseDir}
}

func (ds *diskStorage) path(key string) string {
	return filepath.Join(ds.BaseDir, filepath.FromSlash(key))
}

func (ds *diskStorage) GetKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := []string{}
	err := filepath.WalkDir(ds.BaseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == ds.BaseDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(ds.BaseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "can not list %s", prefix)
	}
	slices.Sort(matched)

	return matched, nil
}

type diskStreamWriter struct {
	file *os.File
}

func (w *diskStreamWriter) Write(data []byte) (int, error) {
	return w.file.Write(data)
}

func (w *diskStreamWriter) Close() error {
	return w.file.Close()
}

func (ds *diskStorage) BeginStream(ctx context.Context, key string) (StreamWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath := ds.path(key)
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "can not create directory for %s", key)
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "can not open stream %s", key)
	}

	return &diskStreamWriter{file: file}, nil
}

func (ds *diskStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath := ds.path(key)
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return errors.Wrapf(err, "can not create directory for %s", key)
	}

	// write then rename so readers never see a half written file
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "can not write %s", key)
	}
	return errors.Wrapf(os.Rename(tmp, filePath), "can not write %s", key)
}

func (ds *diskStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(ds.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(ErrDoesNotExist, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can not read %s", key)
	}
	return data, nil
}

func (ds *diskStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(ds.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "can not delete %s", key)
	}
	return nil
}
