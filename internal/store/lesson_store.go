package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coursetrack/internal/model"
	"coursetrack/internal/repository"

	"github.com/rs/zerolog"
)

// LessonStore is the lesson counterpart of CourseStore. It additionally
// supports a server-side course scope on fetch.
type LessonStore struct {
	repo   repository.LessonRepository
	logger zerolog.Logger

	opMu sync.Mutex

	mu      sync.RWMutex
	items   []model.Lesson
	loading bool
	lastErr string
}

func NewLessonStore(repo repository.LessonRepository, logger zerolog.Logger) *LessonStore {
	return &LessonStore{
		repo:   repo,
		logger: logger.With().Str("store", "lessons").Logger(),
	}
}

func (s *LessonStore) Items() []model.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Lesson, len(s.items))
	copy(out, s.items)
	return out
}

func (s *LessonStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *LessonStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// FetchAll replaces the cached list wholesale, optionally scoped to one
// course (courseID zero fetches everything). On failure the cache keeps its
// prior contents.
func (s *LessonStore) FetchAll(ctx context.Context, courseID int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	lessons, err := s.repo.ListLessons(ctx, courseID)
	if err != nil {
		s.fail("failed to load lessons", err)
		return err
	}
	s.mu.Lock()
	s.items = lessons
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

func (s *LessonStore) Add(ctx context.Context, draft model.Lesson) (*model.Lesson, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	draft.ID = 0
	draft.Name = strings.TrimSpace(draft.Name)
	draft.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateLesson(ctx, &draft)
	if err != nil {
		s.fail("failed to add lesson", err)
		return nil, err
	}
	s.mu.Lock()
	s.items = append([]model.Lesson{*created}, s.items...)
	s.lastErr = ""
	s.mu.Unlock()
	return created, nil
}

// Update preserves the immutable CreatedAt by fetching the current document
// before the PUT, then replaces the cached item in place.
func (s *LessonStore) Update(ctx context.Context, id int, patch model.Lesson) (*model.Lesson, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	existing, err := s.repo.GetLesson(ctx, id)
	if err != nil {
		s.fail("failed to update lesson", err)
		return nil, err
	}

	merged := model.Lesson{
		ID:              id,
		CourseID:        patch.CourseID,
		Name:            strings.TrimSpace(patch.Name),
		DurationMinutes: patch.DurationMinutes,
		Status:          patch.Status,
		CreatedAt:       existing.CreatedAt,
	}
	updated, err := s.repo.UpdateLesson(ctx, &merged)
	if err != nil {
		s.fail("failed to update lesson", err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = *updated
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()
	return updated, nil
}

func (s *LessonStore) Remove(ctx context.Context, id int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.repo.DeleteLesson(ctx, id); err != nil {
		s.fail("failed to delete lesson", err)
		return err
	}
	s.mu.Lock()
	kept := s.items[:0]
	for _, l := range s.items {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.items = kept
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

func (s *LessonStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *LessonStore) fail(msg string, err error) {
	s.logger.Error().Err(err).Msg(msg)
	s.mu.Lock()
	s.lastErr = fmt.Sprintf("%s: %v", msg, err)
	s.mu.Unlock()
}
