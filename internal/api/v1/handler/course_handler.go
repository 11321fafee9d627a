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

// CourseHandler is the managed list controller for the admin course table:
// it derives the filtered/paginated view from the course store and drives
// every mutation through the pending-action workflow.
type CourseHandler struct {
	courses  *store.CourseStore
	lessons  repository.LessonRepository
	wf       *workflow.Workflow
	validate *validator.Validate
	logger   zerolog.Logger

	loadOnce sync.Once

	viewMu sync.Mutex
	view   listview.State
}

func NewCourseHandler(courses *store.CourseStore, lessons repository.LessonRepository, wf *workflow.Workflow, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		lessons:  lessons,
		wf:       wf,
		validate: validate,
		logger:   logger.With().Str("handler", "courses").Logger(),
		view:     listview.NewState(),
	}
}

// RegisterRoutes mounts the admin course routes behind the admin guard.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/courses", adminMw(http.HandlerFunc(h.list)))
	mux.Handle("/admin/courses/refresh", adminMw(http.HandlerFunc(h.refresh)))
	mux.Handle("/admin/courses/actions", adminMw(http.HandlerFunc(h.stage)))
	mux.Handle("/admin/courses/actions/confirm", adminMw(http.HandlerFunc(h.confirm)))
	mux.Handle("/admin/courses/actions/cancel", adminMw(http.HandlerFunc(h.cancel)))
}

// list returns the current derived page. Query parameters update the view
// state first: changing status or search snaps back to page 1, a page out of
// range is clamped.
func (h *CourseHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.loadOnce.Do(func() {
		if err := h.courses.FetchAll(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("initial course fetch failed")
		}
	})

	h.viewMu.Lock()
	q := r.URL.Query()
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

	page := listview.Derive(h.courses.Items(), state,
		func(c model.Course) string { return c.Name },
		func(c model.Course) string { return string(c.Status) })

	items := make([]dto.CourseDTO, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, dto.CourseFromModel(c))
	}
	writeJSON(w, http.StatusOK, dto.CourseListDTO{
		Items:         items,
		EffectivePage: page.EffectivePage,
		TotalPages:    page.TotalPages,
		TotalItems:    page.TotalItems,
		Loading:       h.courses.IsLoading(),
		Error:         h.courses.LastError(),
	})
}

func (h *CourseHandler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.loadOnce.Do(func() {})
	if err := h.courses.FetchAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "failed to load courses")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) stage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.CourseActionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	// Duplicate checks and delete prompts read the cache, which may not have
	// been warmed by a list call yet.
	h.loadOnce.Do(func() {
		if err := h.courses.FetchAll(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("initial course fetch failed")
		}
	})

	switch req.Type {
	case "save":
		h.stageSave(w, r, req)
	case "delete":
		h.stageDelete(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action type")
	}
}

func (h *CourseHandler) stageSave(w http.ResponseWriter, r *http.Request, req dto.CourseActionDTO) {
	payload, errs := form.ValidateCourse(h.validate,
		form.CourseForm{Name: req.Name, Status: req.Status},
		h.courses.Items(), req.EditingID)
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
		action.Success = notify.Success("Success", "Course updated successfully")
		action.Run = func(ctx context.Context) error {
			_, err := h.courses.Update(ctx, editingID, payload)
			return err
		}
	} else {
		action.Success = notify.Success("Success", "Course added successfully")
		action.Run = func(ctx context.Context) error {
			_, err := h.courses.Add(ctx, payload)
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

// stageDelete blocks the delete when dependent lessons still reference the
// course; there is no cascade.
func (h *CourseHandler) stageDelete(w http.ResponseWriter, r *http.Request, req dto.CourseActionDTO) {
	if req.ID == 0 {
		writeError(w, http.StatusBadRequest, "missing course id")
		return
	}

	name := ""
	for _, c := range h.courses.Items() {
		if c.ID == req.ID {
			name = c.Name
			break
		}
	}

	dependents, err := h.lessons.ListLessons(r.Context(), req.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("dependent lesson lookup failed")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}
	if len(dependents) > 0 {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("course still has %d lesson(s); delete them first", len(dependents)))
		return
	}

	id := req.ID
	prompt, err := h.wf.Stage(workflow.Action{
		Prompt:  fmt.Sprintf("Are you sure you want to delete course %q?", name),
		Success: notify.Success("Success", fmt.Sprintf("Course %q deleted successfully", name)),
		Failure: notify.Failure("Error", "Something went wrong, please try again"),
		Run: func(ctx context.Context) error {
			return h.courses.Remove(ctx, id)
		},
	})
	if err != nil {
		writeError(w, http.StatusConflict, "another action is already pending")
		return
	}
	writeJSON(w, http.StatusAccepted, dto.StagedDTO{Prompt: prompt})
}

func (h *CourseHandler) confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	toast, err := h.wf.Confirm(r.Context())
	if errors.Is(err, workflow.ErrNothingStaged) {
		writeError(w, http.StatusConflict, "no action staged")
		return
	}
	// Operation failures still answer 200: the outcome is the toast, and the
	// list state stays authoritative.
	writeJSON(w, http.StatusOK, dto.ConfirmResultDTO{OK: err == nil, Toast: toast})
}

func (h *CourseHandler) cancel(w http.ResponseWriter, r *http.Request) {
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
