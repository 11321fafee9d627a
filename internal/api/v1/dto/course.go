package dto

import (
	"time"

	"coursetrack/internal/model"
)

// CourseDTO is returned in API responses for courses
type CourseDTO struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func CourseFromModel(c model.Course) CourseDTO {
	return CourseDTO{
		ID:        c.ID,
		Name:      c.Name,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}

// CourseListDTO is the derived admin table view: one page of the filtered
// collection plus the store's loading/error state.
type CourseListDTO struct {
	Items         []CourseDTO `json:"items"`
	EffectivePage int         `json:"effective_page"`
	TotalPages    int         `json:"total_pages"`
	TotalItems    int         `json:"total_items"`
	Loading       bool        `json:"loading"`
	Error         string      `json:"error,omitempty"`
}

// CourseActionDTO stages a save or delete for confirmation. For a save,
// EditingID distinguishes edit (non-zero) from add; for a delete, ID names
// the target.
type CourseActionDTO struct {
	Type      string `json:"type" validate:"required,oneof=save delete"`
	EditingID int    `json:"editing_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status,omitempty"`
	ID        int    `json:"id,omitempty"`
}
