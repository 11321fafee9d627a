package model

import "time"

// CourseStatus is the lifecycle flag shown on the admin course list.
type CourseStatus string

const (
	CourseActive   CourseStatus = "active"
	CourseInactive CourseStatus = "inactive"
)

// Course mirrors a course document in the data service.
type Course struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Status    CourseStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
