package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"coursetrack/internal/model"
	"coursetrack/internal/remote"
)

// LessonRepository defines the interface for interacting with the lessons
// resource on the data service.
type LessonRepository interface {
	// ListLessons retrieves lessons, optionally scoped to a course. A zero
	// courseID lists the whole collection.
	ListLessons(ctx context.Context, courseID int) ([]model.Lesson, error)
	GetLesson(ctx context.Context, id int) (*model.Lesson, error)
	CreateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error)
	DeleteLesson(ctx context.Context, id int) error
}

type lessonRepo struct {
	client *remote.Client
}

// NewLessonRepo creates a new LessonRepository
func NewLessonRepo(client *remote.Client) LessonRepository {
	return &lessonRepo{client: client}
}

func (r *lessonRepo) ListLessons(ctx context.Context, courseID int) ([]model.Lesson, error) {
	var query url.Values
	if courseID != 0 {
		query = url.Values{"course_id": []string{strconv.Itoa(courseID)}}
	}
	var lessons []model.Lesson
	if err := r.client.Get(ctx, "/lessons", query, &lessons); err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}

func (r *lessonRepo) GetLesson(ctx context.Context, id int) (*model.Lesson, error) {
	var l model.Lesson
	if err := r.client.Get(ctx, fmt.Sprintf("/lessons/%d", id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error) {
	var created model.Lesson
	if err := r.client.Post(ctx, "/lessons", l, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *lessonRepo) UpdateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error) {
	var updated model.Lesson
	if err := r.client.Put(ctx, fmt.Sprintf("/lessons/%d", l.ID), l, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *lessonRepo) DeleteLesson(ctx context.Context, id int) error {
	return r.client.Delete(ctx, fmt.Sprintf("/lessons/%d", id))
}
