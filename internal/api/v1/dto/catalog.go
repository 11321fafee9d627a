package dto

// CatalogLessonDTO is one lesson row on the home page card.
type CatalogLessonDTO struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// CatalogCourseDTO is one home page card: a course joined with its lessons'
// completion flags.
type CatalogCourseDTO struct {
	ID      int                `json:"id"`
	Title   string             `json:"title"`
	Lessons []CatalogLessonDTO `json:"lessons"`
}
