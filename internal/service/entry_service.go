package service

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/dto"
)

// EntryService defines the interface for browsing generated quiz entries.
type EntryService interface {
	List() []dto.EntrySummary
	Get(id string) (*dto.EntryDetail, error)
	ProfilePicURL(id string) (string, error)
	Count() int
	// Reload rebuilds the index from the data root and returns its size.
	Reload(ctx context.Context) (int, error)
}

type entryService struct {
	root   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*domain.Entry

	sfGroup singleflight.Group
}

// NewEntryService creates an entry index over root. The index is empty until
// Reload is called.
func NewEntryService(root string, logger *zap.Logger) EntryService {
	return &entryService{
		root:    root,
		logger:  logger,
		entries: make(map[string]*domain.Entry),
	}
}

// List returns summaries sorted case-insensitively by title.
func (s *entryService) List() []dto.EntrySummary {
	s.mu.RLock()
	summaries := make([]dto.EntrySummary, 0, len(s.entries))
	for _, e := range s.entries {
		summaries = append(summaries, dto.NewEntrySummary(e))
	}
	s.mu.RUnlock()

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := strings.ToLower(summaries[i].Title), strings.ToLower(summaries[j].Title)
		if a != b {
			return a < b
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

func (s *entryService) lookup(id string) (*domain.Entry, error) {
	if id == "" {
		return nil, domain.NewInvalidInputError("Missing id query param")
	}
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("Entry not found").WithContext("id", id)
	}
	return e, nil
}

func (s *entryService) Get(id string) (*dto.EntryDetail, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return dto.NewEntryDetail(e), nil
}

func (s *entryService) ProfilePicURL(id string) (string, error) {
	e, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	if e.IGMeta == nil || e.IGMeta.ProfilePicURL == "" {
		return "", domain.NewNotFoundError("Profile picture not found").WithContext("id", id)
	}
	return e.IGMeta.ProfilePicURL, nil
}

func (s *entryService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reload collapses concurrent calls into a single scan.
func (s *entryService) Reload(ctx context.Context) (int, error) {
	v, err, shared := s.sfGroup.Do("reload", func() (interface{}, error) {
		entries, err := loadEntries(ctx, s.root, s.logger)
		if err != nil {
			return 0, err
		}
		s.mu.Lock()
		s.entries = entries
		s.mu.Unlock()
		s.logger.Info("Loaded entries", zap.Int("entries", len(entries)), zap.String("data_root", s.root))
		return len(entries), nil
	})
	if err != nil {
		return 0, err
	}
	if shared {
		s.logger.Debug("Entry reload shared with concurrent caller")
	}
	return v.(int), nil
}

// loadEntries indexes every video under root that has a sibling quiz
// document. A missing root yields an empty index.
func loadEntries(ctx context.Context, root string, logger *zap.Logger) (map[string]*domain.Entry, error) {
	entries := make(map[string]*domain.Entry)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Warn("Data root not found", zap.String("data_root", root))
		return entries, nil
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			logger.Warn("Skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), domain.VideoSuffix) {
			return nil
		}

		entry, ok := loadEntry(root, p, logger)
		if ok {
			entries[entry.ID] = entry
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to index data root", err).WithContext("data_root", root)
	}
	return entries, nil
}

func loadEntry(root, videoPath string, logger *zap.Logger) (*domain.Entry, bool) {
	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), domain.VideoSuffix)
	docPath := filepath.Join(dir, base+domain.DocumentSuffix)

	if info, err := os.Stat(docPath); err != nil || !info.Mode().IsRegular() {
		return nil, false
	}

	rel, err := filepath.Rel(root, videoPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	id := strings.TrimSuffix(filepath.ToSlash(rel), domain.VideoSuffix)

	var doc *domain.QuizDocument
	data, err := os.ReadFile(docPath)
	if err != nil {
		logger.Warn("Failed to read entry document", zap.String("path", docPath), zap.Error(err))
		doc, _ = domain.ParseQuizDocument([]byte("{}"))
	} else {
		doc, err = domain.ParseQuizDocument(data)
		if err != nil {
			logger.Warn("Entry parsed with defaults due to validation issues", zap.String("path", docPath), zap.Error(err))
		}
	}

	var igMeta *domain.InstagramMeta
	metaPath := filepath.Join(dir, base+domain.InstagramMetaSuffix)
	if raw, err := os.ReadFile(metaPath); err == nil {
		igMeta, err = domain.ParseInstagramMeta(raw)
		if err != nil {
			logger.Warn("Failed to parse video metadata", zap.String("path", metaPath), zap.Error(err))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to read video metadata", zap.String("path", metaPath), zap.Error(err))
	}

	title := strings.TrimSpace(doc.Meta.TitleEN)
	if title == "" {
		title = base
	}

	return &domain.Entry{
		ID:           id,
		Title:        title,
		Document:     doc,
		IGMeta:       igMeta,
		VideoPath:    videoPath,
		DocumentPath: docPath,
		VideoURL:     videoURL(id),
		Counts:       doc.Counts(),
	}, true
}

// videoURL is the path of the video under the static /data mount.
func videoURL(id string) string {
	var segments []string
	for _, s := range strings.Split(id, "/") {
		if s != "" {
			segments = append(segments, url.PathEscape(s))
		}
	}
	return "/data/" + strings.Join(segments, "/") + domain.VideoSuffix
}
