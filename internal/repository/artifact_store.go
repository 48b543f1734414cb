package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/kv"
	applogger "FinAdvisor/pkg/logger"
)

const artifactExt = ".model"

// FileArtifactStore keeps one file per (name, version) under dir.
type FileArtifactStore struct {
	dir string
	l   *applogger.Logger
}

var _ domrepo.ArtifactStore = (*FileArtifactStore)(nil)

func NewFileArtifactStore(dir string) *FileArtifactStore {
	return &FileArtifactStore{dir: dir}
}

// SetLogger injects a structured logger.
func (s *FileArtifactStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *FileArtifactStore) Load(ctx context.Context, name, version string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(name, version)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s v%s: %w", name, version, domrepo.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a concurrent Load sees either the old or the new bytes.
func (s *FileArtifactStore) Save(ctx context.Context, name, version string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name, version)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("publish artifact: %w", err)
	}
	if s.l != nil {
		s.l.Debug("artifact written", applogger.String("path", path), applogger.Int("bytes", len(data)))
	}
	return nil
}

func (s *FileArtifactStore) path(name, version string) (string, error) {
	if err := checkArtifactKey(name, version); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_v%s%s", name, version, artifactExt)), nil
}

// RedisArtifactStore keeps artifacts as Redis string values. SET replaces
// the value atomically.
type RedisArtifactStore struct {
	kv *kv.Client
	l  *applogger.Logger
}

var _ domrepo.ArtifactStore = (*RedisArtifactStore)(nil)

func NewRedisArtifactStore(c *kv.Client) *RedisArtifactStore {
	return &RedisArtifactStore{kv: c}
}

// SetLogger injects a structured logger.
func (s *RedisArtifactStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *RedisArtifactStore) Load(ctx context.Context, name, version string) ([]byte, error) {
	if err := checkArtifactKey(name, version); err != nil {
		return nil, err
	}
	data, err := s.kv.Get(ctx, artifactKey(name, version))
	if errors.Is(err, kv.ErrMiss) {
		return nil, fmt.Errorf("%s v%s: %w", name, version, domrepo.ErrArtifactNotFound)
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("redis artifact get error", applogger.String("model", name), applogger.Error(err))
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return data, nil
}

func (s *RedisArtifactStore) Save(ctx context.Context, name, version string, data []byte) error {
	if err := checkArtifactKey(name, version); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, artifactKey(name, version), data, 0); err != nil {
		if s.l != nil {
			s.l.Error("redis artifact set error", applogger.String("model", name), applogger.Error(err))
		}
		return fmt.Errorf("set artifact: %w", err)
	}
	return nil
}

func artifactKey(name, version string) string {
	return "artifact:" + name + ":" + version
}

func checkArtifactKey(name, version string) error {
	for _, part := range []string{name, version} {
		if part == "" || strings.ContainsAny(part, `/\:`) || strings.Contains(part, "..") {
			return fmt.Errorf("invalid artifact key %q/%q", name, version)
		}
	}
	return nil
}
