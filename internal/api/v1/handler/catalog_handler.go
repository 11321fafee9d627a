package handler

import (
	"net/http"
	"strings"

	"coursetrack/internal/api/v1/dto"
	"coursetrack/internal/model"
	"coursetrack/internal/repository"

	"github.com/rs/zerolog"
)

// CatalogHandler serves the end-user home view: every course joined with
// its lessons' completion flags. It reads the data service directly instead
// of going through the admin stores.
type CatalogHandler struct {
	courses repository.CourseRepository
	lessons repository.LessonRepository
	logger  zerolog.Logger
}

func NewCatalogHandler(courses repository.CourseRepository, lessons repository.LessonRepository, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		courses: courses,
		lessons: lessons,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes mounts the catalog route behind the auth guard.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/catalog", authMw(http.HandlerFunc(h.catalog)))
}

// catalog supports the home page controls: a case-insensitive title search
// and the tabs all, started (at least one lesson done) and not_started (has
// lessons, none done). Search narrows first, then the tab.
func (h *CatalogHandler) catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	courses, err := h.courses.ListCourses(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load courses")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}
	lessons, err := h.lessons.ListLessons(r.Context(), 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load lessons")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}

	cards := make([]dto.CatalogCourseDTO, 0, len(courses))
	for _, c := range courses {
		card := dto.CatalogCourseDTO{ID: c.ID, Title: c.Name, Lessons: []dto.CatalogLessonDTO{}}
		for _, l := range lessons {
			if l.CourseID == c.ID {
				card.Lessons = append(card.Lessons, dto.CatalogLessonDTO{
					Name: l.Name,
					Done: l.Status == model.LessonCompleted,
				})
			}
		}
		cards = append(cards, card)
	}

	if q := strings.TrimSpace(r.URL.Query().Get("search")); q != "" {
		needle := strings.ToLower(q)
		cards = filterCards(cards, func(c dto.CatalogCourseDTO) bool {
			return strings.Contains(strings.ToLower(c.Title), needle)
		})
	}

	switch r.URL.Query().Get("tab") {
	case "started":
		cards = filterCards(cards, func(c dto.CatalogCourseDTO) bool {
			return anyDone(c)
		})
	case "not_started":
		cards = filterCards(cards, func(c dto.CatalogCourseDTO) bool {
			return len(c.Lessons) > 0 && !anyDone(c)
		})
	}

	writeJSON(w, http.StatusOK, cards)
}

func anyDone(c dto.CatalogCourseDTO) bool {
	for _, l := range c.Lessons {
		if l.Done {
			return true
		}
	}
	return false
}

func filterCards(cards []dto.CatalogCourseDTO, keep func(dto.CatalogCourseDTO) bool) []dto.CatalogCourseDTO {
	out := make([]dto.CatalogCourseDTO, 0, len(cards))
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
