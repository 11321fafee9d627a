package repository

import (
	"context"
	"fmt"

	"coursetrack/internal/model"
	"coursetrack/internal/remote"
)

// CourseRepository defines the interface for interacting with the courses
// resource on the data service.
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse retrieves a course by its ID
	GetCourse(ctx context.Context, id int) (*model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	// UpdateCourse replaces an existing course document
	UpdateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	DeleteCourse(ctx context.Context, id int) error
}

type courseRepo struct {
	client *remote.Client
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(client *remote.Client) CourseRepository {
	return &courseRepo{client: client}
}

func (r *courseRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := r.client.Get(ctx, "/courses", nil, &courses); err != nil {
		return nil, err
	}
	// If no courses found, return an empty slice, not nil
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

func (r *courseRepo) GetCourse(ctx context.Context, id int) (*model.Course, error) {
	var c model.Course
	if err := r.client.Get(ctx, fmt.Sprintf("/courses/%d", id), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	var created model.Course
	if err := r.client.Post(ctx, "/courses", c, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	var updated model.Course
	if err := r.client.Put(ctx, fmt.Sprintf("/courses/%d", c.ID), c, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *courseRepo) DeleteCourse(ctx context.Context, id int) error {
	return r.client.Delete(ctx, fmt.Sprintf("/courses/%d", id))
}
