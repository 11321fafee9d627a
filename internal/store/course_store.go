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

// CourseStore caches the course collection in memory and keeps it in sync
// with the data service. The service is the source of truth; the store holds
// the last successfully fetched/mutated state.
//
// Operations are serialized through opMu so two overlapping mutations become
// FIFO instead of racing on the last network response.
type CourseStore struct {
	repo   repository.CourseRepository
	logger zerolog.Logger

	opMu sync.Mutex // serializes fetch/add/update/remove

	mu      sync.RWMutex // guards the fields below
	items   []model.Course
	loading bool
	lastErr string
}

func NewCourseStore(repo repository.CourseRepository, logger zerolog.Logger) *CourseStore {
	return &CourseStore{
		repo:   repo,
		logger: logger.With().Str("store", "courses").Logger(),
	}
}

// Items returns a snapshot of the cached collection.
func (s *CourseStore) Items() []model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Course, len(s.items))
	copy(out, s.items)
	return out
}

func (s *CourseStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the human-readable error of the most recent failed
// operation, or "" after a success.
func (s *CourseStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// FetchAll replaces the cached list wholesale. On failure the cache keeps
// its prior contents.
func (s *CourseStore) FetchAll(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		s.fail("failed to load courses", err)
		return err
	}
	s.mu.Lock()
	s.items = courses
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// Add trims the draft name, stamps the creation time and POSTs the draft.
// The created course is inserted at the front of the cache. Duplicate-name
// checking is a form-level precondition; the store performs no dedup.
func (s *CourseStore) Add(ctx context.Context, draft model.Course) (*model.Course, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	draft.ID = 0
	draft.Name = strings.TrimSpace(draft.Name)
	draft.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateCourse(ctx, &draft)
	if err != nil {
		s.fail("failed to add course", err)
		return nil, err
	}
	s.mu.Lock()
	s.items = append([]model.Course{*created}, s.items...)
	s.lastErr = ""
	s.mu.Unlock()
	return created, nil
}

// Update fetches the existing course first to preserve its immutable
// CreatedAt, then PUTs the merged record and replaces the cached item in
// place, keeping its position.
func (s *CourseStore) Update(ctx context.Context, id int, patch model.Course) (*model.Course, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	existing, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		s.fail("failed to update course", err)
		return nil, err
	}

	merged := model.Course{
		ID:        id,
		Name:      strings.TrimSpace(patch.Name),
		Status:    patch.Status,
		CreatedAt: existing.CreatedAt,
	}
	updated, err := s.repo.UpdateCourse(ctx, &merged)
	if err != nil {
		s.fail("failed to update course", err)
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

// Remove DELETEs by id and filters the item out of the cache. Removing an id
// that is already absent is not an error locally: the DELETE is still issued
// and the cache is simply left as is.
func (s *CourseStore) Remove(ctx context.Context, id int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		s.fail("failed to delete course", err)
		return err
	}
	s.mu.Lock()
	kept := s.items[:0]
	for _, c := range s.items {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.items = kept
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

func (s *CourseStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *CourseStore) fail(msg string, err error) {
	s.logger.Error().Err(err).Msg(msg)
	s.mu.Lock()
	s.lastErr = fmt.Sprintf("%s: %v", msg, err)
	s.mu.Unlock()
}
