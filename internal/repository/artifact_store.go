package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/util"
)

// fsArtifactStore implements domain.ArtifactStore on a local directory tree.
type fsArtifactStore struct {
	root   string
	ext    string
	logger *zap.Logger
}

// NewFSArtifactStore creates a store rooted at root that discovers files
// ending in ext (for example ".mp4").
func NewFSArtifactStore(root, ext string, logger *zap.Logger) domain.ArtifactStore {
	return &fsArtifactStore{root: root, ext: ext, logger: logger}
}

// Discover walks the root recursively. Only regular files whose name ends in
// the configured extension are returned. Unreadable paths below the root are
// skipped with a warning; only a failure on the root itself is returned.
func (s *fsArtifactStore) Discover(ctx context.Context) ([]domain.InputArtifact, error) {
	var artifacts []domain.InputArtifact
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			s.logger.Warn("Skipping unreadable path", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), s.ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.logger.Warn("Skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, domain.InputArtifact{
			Path:    p,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("failed to enumerate data dir", err).WithContext("root", s.root)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return lessByComponents(artifacts[i].RelPath, artifacts[j].RelPath)
	})
	return artifacts, nil
}

// lessByComponents orders paths segment by segment, so "a/z.mp4" sorts
// before "a.b/c.mp4" even though '/' > '.' bytewise.
func lessByComponents(a, b string) bool {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

func (s *fsArtifactStore) OutputExists(a domain.InputArtifact) (bool, error) {
	_, err := os.Stat(a.DocumentPath())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, domain.NewPersistenceError("failed to check output", err).WithContext("path", a.DocumentPath())
	}
}

func (s *fsArtifactStore) WriteRaw(a domain.InputArtifact, text string) error {
	if err := writeFileAtomic(a.RawPath(), []byte(text)); err != nil {
		return domain.NewPersistenceError("failed to write raw output", err).WithContext("path", a.RawPath())
	}
	return nil
}

func (s *fsArtifactStore) WriteDocument(a domain.InputArtifact, raw []byte) error {
	pretty, err := util.PrettyJSON(raw)
	if err != nil {
		return domain.NewPersistenceError("failed to format document", err).WithContext("path", a.DocumentPath())
	}
	if err := writeFileAtomic(a.DocumentPath(), pretty); err != nil {
		return domain.NewPersistenceError("failed to write document", err).WithContext("path", a.DocumentPath())
	}
	return nil
}

// writeFileAtomic writes to a temporary sibling and renames it over path, so
// readers see either the old content or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
