// Package form validates the course and lesson create/edit forms. Validation
// errors are surfaced inline next to the offending field and never reach the
// network layer; a form that passes emits a normalized payload for staging.
package form

import (
	"strings"

	"coursetrack/internal/model"

	"github.com/go-playground/validator/v10"
)

// Field error codes. Duplicate checks run against the store cache and are
// best effort: the data service may still reject a create/update, which is a
// separate failure path.
const (
	CodeEmptyName        = "empty_name"
	CodeDuplicateName    = "duplicate_name"
	CodeInvalidDuration  = "invalid_duration"
	CodeNoCourseSelected = "no_course_selected"
	CodeInvalidStatus    = "invalid_status"
)

// Errors maps a field name to its error code.
type Errors map[string]string

func (e Errors) Empty() bool { return len(e) == 0 }

// CourseForm is the course create/edit form.
type CourseForm struct {
	Name   string `json:"name"`
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// LessonForm is the lesson create/edit form.
type LessonForm struct {
	CourseID        int    `json:"course_id" validate:"required"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	Status          string `json:"status" validate:"required,oneof=completed incomplete"`
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ValidateCourse checks the form against the current course collection.
// Uniqueness is global and case-insensitive after trimming; when editing,
// the edited course itself (by id) is excluded from the check. editingID is
// zero for an add.
func ValidateCourse(v *validator.Validate, f CourseForm, existing []model.Course, editingID int) (model.Course, Errors) {
	errs := Errors{}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs["name"] = CodeEmptyName
	} else {
		target := normalize(name)
		for _, c := range existing {
			if c.ID != editingID && normalize(c.Name) == target {
				errs["name"] = CodeDuplicateName
				break
			}
		}
	}

	if err := v.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				if fe.StructField() == "Status" {
					errs["status"] = CodeInvalidStatus
				}
			}
		}
	}

	if !errs.Empty() {
		return model.Course{}, errs
	}
	return model.Course{Name: name, Status: model.CourseStatus(f.Status)}, nil
}

// ValidateLesson checks the form against the current lesson collection.
// Uniqueness is scoped per course: the same lesson name under two different
// courses is fine.
func ValidateLesson(v *validator.Validate, f LessonForm, existing []model.Lesson, editingID int) (model.Lesson, Errors) {
	errs := Errors{}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs["name"] = CodeEmptyName
	}
	if f.CourseID == 0 {
		errs["course_id"] = CodeNoCourseSelected
	}
	if f.DurationMinutes <= 0 {
		errs["duration_minutes"] = CodeInvalidDuration
	}

	if err := v.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				if fe.StructField() == "Status" {
					errs["status"] = CodeInvalidStatus
				}
			}
		}
	}

	if name != "" && f.CourseID != 0 {
		target := normalize(name)
		for _, l := range existing {
			if l.CourseID == f.CourseID && l.ID != editingID && normalize(l.Name) == target {
				errs["name"] = CodeDuplicateName
				break
			}
		}
	}

	if !errs.Empty() {
		return model.Lesson{}, errs
	}
	return model.Lesson{
		CourseID:        f.CourseID,
		Name:            name,
		DurationMinutes: f.DurationMinutes,
		Status:          model.LessonStatus(f.Status),
	}, nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
