package model

import "time"

// LessonStatus tracks completion of a single lesson.
type LessonStatus string

const (
	LessonCompleted  LessonStatus = "completed"
	LessonIncomplete LessonStatus = "incomplete"
)

// Lesson mirrors a lesson document in the data service. CourseID references
// the owning course; lesson names are unique per course, not globally.
type Lesson struct {
	ID              int          `json:"id"`
	CourseID        int          `json:"course_id"`
	Name            string       `json:"name"`
	DurationMinutes int          `json:"duration_minutes"`
	Status          LessonStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}
