package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"coursetrack/internal/api/v1/dto"
	"coursetrack/internal/form"
	"coursetrack/internal/listview"
	"coursetrack/internal/model"
	"coursetrack/internal/notify"
	"coursetrack/internal/repository"
	"coursetrack/internal/store"
	"coursetrack/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LessonHandler mirrors CourseHandler for the admin lesson table. Lessons
// add a course scope: fetches can be narrowed server-side to one course and
// name uniqueness only applies within the owning course.
type LessonHandler struct {
	lessons  *store.LessonStore
	courses  *store.CourseStore
	repo     repository.LessonRepository
	wf       *workflow.Workflow
	validate *validator.Validate
	logger   zerolog.Logger

	loadOnce sync.Once

	viewMu sync.Mutex
	view   listview.State
}

func NewLessonHandler(lessons *store.LessonStore, courses *store.CourseStore, repo repository.LessonRepository, wf *workflow.Workflow, validate *validator.Validate, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		lessons:  lessons,
		courses:  courses,
		repo:     repo,
		wf:       wf,
		validate: validate,
		logger:   logger.With().Str("handler", "lessons").Logger(),
		view:     listview.NewState(),
	}
}

// RegisterRoutes mounts the admin lesson routes behind the admin guard.
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/lessons", adminMw(http.HandlerFunc(h.list)))
	mux.Handle("/admin/lessons/refresh", adminMw(http.HandlerFunc(h.refresh)))
	mux.Handle("/admin/lessons/actions", adminMw(http.HandlerFunc(h.stage)))
	mux.Handle("/admin/lessons/actions/confirm", adminMw(http.HandlerFunc(h.confirm)))
	mux.Handle("/admin/lessons/actions/cancel", adminMw(http.HandlerFunc(h.cancel)))
}

func (h *LessonHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if raw := q.Get("course_id"); raw != "" {
		// A course scope re-fetches server-side instead of filtering the cache.
		courseID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid course_id")
			return
		}
		h.loadOnce.Do(func() {})
		if err := h.lessons.FetchAll(r.Context(), courseID); err != nil {
			writeError(w, http.StatusBadGateway, "failed to load lessons")
			return
		}
	} else {
		h.loadOnce.Do(func() {
			if err := h.lessons.FetchAll(r.Context(), 0); err != nil {
				h.logger.Error().Err(err).Msg("initial lesson fetch failed")
			}
		})
	}

	h.viewMu.Lock()
	if q.Has("status") {
		h.view.SetStatus(q.Get("status"))
	}
	if q.Has("search") {
		h.view.SetSearch(q.Get("search"))
	}
	if q.Has("page") {
		if p, err := strconv.Atoi(q.Get("page")); err == nil {
			h.view.SetPage(p)
		}
	}
	state := h.view
	h.viewMu.Unlock()

	page := listview.Derive(h.lessons.Items(), state,
		func(l model.Lesson) string { return l.Name },
		func(l model.Lesson) string { return string(l.Status) })

	items := make([]dto.LessonDTO, 0, len(page.Items))
	for _, l := range page.Items {
		items = append(items, dto.LessonFromModel(l))
	}
	options := make([]dto.CourseOptionDTO, 0)
	for _, c := range h.courses.Items() {
		options = append(options, dto.CourseOptionDTO{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, dto.LessonListDTO{
		Items:         items,
		EffectivePage: page.EffectivePage,
		TotalPages:    page.TotalPages,
		TotalItems:    page.TotalItems,
		Loading:       h.lessons.IsLoading(),
		Error:         h.lessons.LastError(),
		CourseOptions: options,
	})
}

// refresh reloads the lesson cache, optionally scoped to one course via the
// course_id query parameter.
func (h *LessonHandler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	courseID := 0
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid course_id")
			return
		}
		courseID = id
	}
	h.loadOnce.Do(func() {})
	if err := h.lessons.FetchAll(r.Context(), courseID); err != nil {
		writeError(w, http.StatusBadGateway, "failed to load lessons")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LessonHandler) stage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.LessonActionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	h.loadOnce.Do(func() {
		if err := h.lessons.FetchAll(r.Context(), 0); err != nil {
			h.logger.Error().Err(err).Msg("initial lesson fetch failed")
		}
	})

	switch req.Type {
	case "save":
		h.stageSave(w, r, req)
	case "delete":
		h.stageDelete(w, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action type")
	}
}

func (h *LessonHandler) stageSave(w http.ResponseWriter, r *http.Request, req dto.LessonActionDTO) {
	// The course selector is populated from the course store cache; validity
	// of the reference is not re-checked against the server.
	//
	// Duplicate names are scoped per course, and after a scoped fetch the
	// cache may hold a different course's lessons. Pull the target course's
	// siblings for the check; fall back to the cache if the service is down.
	siblings := h.lessons.Items()
	if req.CourseID != 0 {
		fetched, err := h.repo.ListLessons(r.Context(), req.CourseID)
		if err != nil {
			h.logger.Error().Err(err).Msg("sibling lesson lookup failed")
		} else {
			siblings = fetched
		}
	}
	payload, errs := form.ValidateLesson(h.validate,
		form.LessonForm{
			CourseID:        req.CourseID,
			Name:            req.Name,
			DurationMinutes: req.DurationMinutes,
			Status:          req.Status,
		},
		siblings, req.EditingID)
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, dto.FieldErrorsDTO{Errors: errs})
		return
	}

	editingID := req.EditingID
	action := workflow.Action{
		Prompt:  "Do you want to apply this change?",
		Failure: notify.Failure("Error", "Something went wrong, please try again"),
	}
	if editingID != 0 {
		action.Success = notify.Success("Success", "Lesson updated successfully")
		action.Run = func(ctx context.Context) error {
			_, err := h.lessons.Update(ctx, editingID, payload)
			return err
		}
	} else {
		action.Success = notify.Success("Success", "Lesson added successfully")
		action.Run = func(ctx context.Context) error {
			_, err := h.lessons.Add(ctx, payload)
			return err
		}
	}

	prompt, err := h.wf.Stage(action)
	if err != nil {
		writeError(w, http.StatusConflict, "another action is already pending")
		return
	}
	writeJSON(w, http.StatusAccepted, dto.StagedDTO{Prompt: prompt})
}

func (h *LessonHandler) stageDelete(w http.ResponseWriter, req dto.LessonActionDTO) {
	if req.ID == 0 {
		writeError(w, http.StatusBadRequest, "missing lesson id")
		return
	}

	name := ""
	for _, l := range h.lessons.Items() {
		if l.ID == req.ID {
			name = l.Name
			break
		}
	}

	id := req.ID
	prompt, err := h.wf.Stage(workflow.Action{
		Prompt:  fmt.Sprintf("Are you sure you want to delete lesson %q?", name),
		Success: notify.Success("Success", fmt.Sprintf("Lesson %q deleted successfully", name)),
		Failure: notify.Failure("Error", "Something went wrong, please try again"),
		Run: func(ctx context.Context) error {
			return h.lessons.Remove(ctx, id)
		},
	})
	if err != nil {
		writeError(w, http.StatusConflict, "another action is already pending")
		return
	}
	writeJSON(w, http.StatusAccepted, dto.StagedDTO{Prompt: prompt})
}

func (h *LessonHandler) confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	toast, err := h.wf.Confirm(r.Context())
	if errors.Is(err, workflow.ErrNothingStaged) {
		writeError(w, http.StatusConflict, "no action staged")
		return
	}
	writeJSON(w, http.StatusOK, dto.ConfirmResultDTO{OK: err == nil, Toast: toast})
}

func (h *LessonHandler) cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.wf.Cancel(); err != nil {
		writeError(w, http.StatusConflict, "no action staged")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
