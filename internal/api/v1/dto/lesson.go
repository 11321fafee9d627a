package dto

import (
	"time"

	"coursetrack/internal/model"
)

// LessonDTO is returned in API responses for lessons
type LessonDTO struct {
	ID              int       `json:"id"`
	CourseID        int       `json:"course_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func LessonFromModel(l model.Lesson) LessonDTO {
	return LessonDTO{
		ID:              l.ID,
		CourseID:        l.CourseID,
		Name:            l.Name,
		DurationMinutes: l.DurationMinutes,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
}

// CourseOptionDTO populates the course selector in the lesson form. Options
// come from the course store cache only; the reference is not re-validated
// against the server.
type CourseOptionDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LessonListDTO mirrors CourseListDTO for the lessons table, plus the
// selector options for the create/edit form.
type LessonListDTO struct {
	Items         []LessonDTO       `json:"items"`
	EffectivePage int               `json:"effective_page"`
	TotalPages    int               `json:"total_pages"`
	TotalItems    int               `json:"total_items"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	CourseOptions []CourseOptionDTO `json:"course_options"`
}

// LessonActionDTO stages a lesson save or delete for confirmation.
type LessonActionDTO struct {
	Type            string `json:"type" validate:"required,oneof=save delete"`
	EditingID       int    `json:"editing_id,omitempty"`
	CourseID        int    `json:"course_id,omitempty"`
	Name            string `json:"name,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Status          string `json:"status,omitempty"`
	ID              int    `json:"id,omitempty"`
}
