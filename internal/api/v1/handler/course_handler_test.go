package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"coursetrack/internal/api/v1/dto"
	"coursetrack/internal/middleware"
	"coursetrack/internal/mockapi"
	"coursetrack/internal/model"
	"coursetrack/internal/notify"
	"coursetrack/internal/remote"
	"coursetrack/internal/repository"
	"coursetrack/internal/session"
	"coursetrack/internal/store"
	"coursetrack/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// toastRecorder collects emitted toasts instead of pushing them over a
// websocket.
type toastRecorder struct {
	mu     sync.Mutex
	toasts []notify.Toast
}

func (r *toastRecorder) Notify(t notify.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *toastRecorder) all() []notify.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// newTestValidator mirrors the router's validator setup: errors report json
// field names.
func newTestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// mockData is the in-process data service behind a write-counting wrapper,
// so tests can assert that a rejected form never reached the network.
type mockData struct {
	srv    *httptest.Server
	data   *mockapi.Server
	writes int32
}

func newMockData(t *testing.T, logger zerolog.Logger) *mockData {
	t.Helper()
	m := &mockData{data: mockapi.NewServer(logger)}
	inner := m.data.Handler()
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			atomic.AddInt32(&m.writes, 1)
		}
		inner.ServeHTTP(w, r)
	}))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockData) seed(t *testing.T, resource, raw string) {
	t.Helper()
	if err := m.data.SeedJSON(resource, raw); err != nil {
		t.Fatalf("seeding %s: %v", resource, err)
	}
}

func (m *mockData) writeCount() int32 { return atomic.LoadInt32(&m.writes) }
func (m *mockData) resetWrites()      { atomic.StoreInt32(&m.writes, 0) }

type courseEnv struct {
	api      *httptest.Server
	mock     *mockData
	recorder *toastRecorder
	wf       *workflow.Workflow
}

func newCourseEnv(t *testing.T) *courseEnv {
	t.Helper()
	logger := zerolog.Nop()

	mock := newMockData(t, logger)

	client := remote.New(mock.srv.URL, logger)
	courseRepo := repository.NewCourseRepo(client)
	lessonRepo := repository.NewLessonRepo(client)
	courses := store.NewCourseStore(courseRepo, logger)

	recorder := &toastRecorder{}
	wf := workflow.New(recorder, logger)
	h := NewCourseHandler(courses, lessonRepo, wf, newTestValidator(), logger)

	sessions := session.NewMemoryManager()
	sessions.SetRecord(session.Record{UserID: 1, Email: "admin@example.com", FullName: "Site Admin", Role: model.RoleAdmin})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.RequireAdmin(sessions))
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)

	return &courseEnv{api: api, mock: mock, recorder: recorder, wf: wf}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func seedCourses(t *testing.T, e *courseEnv, n int) {
	t.Helper()
	docs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		status := "active"
		if i%4 == 0 {
			status = "inactive"
		}
		docs = append(docs, fmt.Sprintf(
			`{"id": %d, "name": "Course %02d", "status": %q, "created_at": "2025-11-%02dT08:00:00Z"}`,
			i, i, status, i))
	}
	e.mock.seed(t, "courses", "["+strings.Join(docs, ",")+"]")
	e.mock.seed(t, "lessons", "[]")
}

func fetchList(t *testing.T, e *courseEnv, query string) dto.CourseListDTO {
	t.Helper()
	resp, err := http.Get(e.api.URL + "/admin/courses" + query)
	if err != nil {
		t.Fatalf("GET /admin/courses: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list dto.CourseListDTO
	decodeInto(t, resp, &list)
	return list
}

func TestCourseListPaginatesAndClamps(t *testing.T) {
	e := newCourseEnv(t)
	seedCourses(t, e, 10)

	list := fetchList(t, e, "")
	if list.TotalItems != 10 || list.TotalPages != 2 {
		t.Fatalf("expected 10 items over 2 pages, got %d/%d", list.TotalItems, list.TotalPages)
	}
	if len(list.Items) != 8 || list.EffectivePage != 1 {
		t.Fatalf("expected a full first page, got %d items on page %d", len(list.Items), list.EffectivePage)
	}

	// A page far out of range clamps to the last page.
	list = fetchList(t, e, "?page=9")
	if list.EffectivePage != 2 || len(list.Items) != 2 {
		t.Fatalf("expected clamped page 2 with 2 items, got page %d with %d", list.EffectivePage, len(list.Items))
	}
}

func TestCourseListFiltersByStatusAndSearch(t *testing.T) {
	e := newCourseEnv(t)
	seedCourses(t, e, 10) // ids 4 and 8 are inactive

	list := fetchList(t, e, "?status=inactive")
	if list.TotalItems != 2 {
		t.Fatalf("expected 2 inactive courses, got %d", list.TotalItems)
	}
	for _, c := range list.Items {
		if c.Status != "inactive" {
			t.Errorf("unexpected status %q in filtered view", c.Status)
		}
	}

	// Search is a case-insensitive substring match and snaps back to page 1.
	list = fetchList(t, e, "?status=all&search=course+0")
	if list.TotalItems != 9 || list.EffectivePage != 1 {
		t.Fatalf("expected 9 matches on page 1, got %d on page %d", list.TotalItems, list.EffectivePage)
	}
}

func TestStageSaveDuplicateNameNeverReachesTheNetwork(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", `[{"id": 1, "name": "Math", "status": "active", "created_at": "2025-11-01T08:00:00Z"}]`)
	e.mock.seed(t, "lessons", "[]")
	fetchList(t, e, "") // warm the cache

	e.mock.resetWrites()
	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"save","name":"  math ","status":"active"}`)
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var fe dto.FieldErrorsDTO
	decodeInto(t, resp, &fe)
	if fe.Errors["name"] != "duplicate_name" {
		t.Fatalf("expected duplicate_name, got %v", fe.Errors)
	}
	if e.mock.writeCount() != 0 {
		t.Errorf("a rejected form issued %d network write(s)", e.mock.writeCount())
	}
	if got := e.wf.State(); got != workflow.StateIdle {
		t.Errorf("workflow should stay idle after a validation failure, got %s", got)
	}
}

func TestAddCourseStageConfirmFlow(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", `[{"id": 1, "name": "Math", "status": "active", "created_at": "2025-11-01T08:00:00Z"}]`)
	e.mock.seed(t, "lessons", "[]")
	fetchList(t, e, "")

	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"save","name":"  Triết học ","status":"active"}`)
	if resp.StatusCode != http.StatusAccepted {
		resp.Body.Close()
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var staged dto.StagedDTO
	decodeInto(t, resp, &staged)
	if staged.Prompt != "Do you want to apply this change?" {
		t.Fatalf("unexpected prompt %q", staged.Prompt)
	}

	// Nothing runs until the confirmation.
	if len(e.recorder.all()) != 0 {
		t.Fatal("no toast should be emitted before confirm")
	}

	resp = postJSON(t, e.api.URL+"/admin/courses/actions/confirm", "")
	var result dto.ConfirmResultDTO
	decodeInto(t, resp, &result)
	if !result.OK || result.Toast.Kind != notify.KindSuccess {
		t.Fatalf("expected a success outcome, got %+v", result)
	}

	toasts := e.recorder.all()
	if len(toasts) != 1 || toasts[0].Kind != notify.KindSuccess {
		t.Fatalf("expected exactly one success toast, got %v", toasts)
	}

	// The new course lands at the front of the list, name trimmed.
	list := fetchList(t, e, "")
	if list.TotalItems != 2 || list.Items[0].Name != "Triết học" {
		t.Fatalf("expected the created course first, got %+v", list.Items)
	}
}

func TestDeleteBlockedWhileLessonsRemain(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", `[{"id": 1, "name": "Math", "status": "active", "created_at": "2025-11-01T08:00:00Z"}]`)
	e.mock.seed(t, "lessons", `[
		{"id": 1, "course_id": 1, "name": "Intro", "duration_minutes": 45, "status": "incomplete", "created_at": "2025-11-02T08:00:00Z"},
		{"id": 2, "course_id": 1, "name": "Limits", "duration_minutes": 45, "status": "incomplete", "created_at": "2025-11-03T08:00:00Z"}
	]`)
	fetchList(t, e, "")

	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"delete","id":1}`)
	if resp.StatusCode != http.StatusConflict {
		resp.Body.Close()
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeInto(t, resp, &body)
	if !strings.Contains(body["error"], "2 lesson(s)") {
		t.Fatalf("expected the dependent count in the message, got %q", body["error"])
	}
	if got := e.wf.State(); got != workflow.StateIdle {
		t.Errorf("blocked delete must not stage anything, state is %s", got)
	}
}

func TestCancelDiscardsWithoutRunning(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", `[{"id": 1, "name": "Math", "status": "active", "created_at": "2025-11-01T08:00:00Z"}]`)
	e.mock.seed(t, "lessons", "[]")
	fetchList(t, e, "")

	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"delete","id":1}`)
	if resp.StatusCode != http.StatusAccepted {
		resp.Body.Close()
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var staged dto.StagedDTO
	decodeInto(t, resp, &staged)
	if !strings.Contains(staged.Prompt, `"Math"`) {
		t.Fatalf("prompt should name the course, got %q", staged.Prompt)
	}

	e.mock.resetWrites()
	resp = postJSON(t, e.api.URL+"/admin/courses/actions/cancel", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from cancel, got %d", resp.StatusCode)
	}
	if e.mock.writeCount() != 0 {
		t.Error("cancel must not issue network writes")
	}
	if len(e.recorder.all()) != 0 {
		t.Error("cancel must not emit a toast")
	}
	if list := fetchList(t, e, ""); list.TotalItems != 1 {
		t.Fatalf("the course should survive a cancelled delete, got %d items", list.TotalItems)
	}

	// Confirming with nothing staged answers 409.
	resp = postJSON(t, e.api.URL+"/admin/courses/actions/confirm", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 after cancel, got %d", resp.StatusCode)
	}
}

func TestStageBeforeAnyListWarmsTheCache(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", `[{"id": 1, "name": "Math", "status": "active", "created_at": "2025-11-01T08:00:00Z"}]`)
	e.mock.seed(t, "lessons", "[]")

	// No list call yet: staging must still see the existing collection and
	// reject the duplicate.
	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"save","name":"math","status":"active"}`)
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var fe dto.FieldErrorsDTO
	decodeInto(t, resp, &fe)
	if fe.Errors["name"] != "duplicate_name" {
		t.Fatalf("expected duplicate_name against the warmed cache, got %v", fe.Errors)
	}
}

func TestSecondStageWhilePendingIsRejected(t *testing.T) {
	e := newCourseEnv(t)
	e.mock.seed(t, "courses", "[]")
	e.mock.seed(t, "lessons", "[]")
	fetchList(t, e, "")

	resp := postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"save","name":"First","status":"active"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	resp = postJSON(t, e.api.URL+"/admin/courses/actions", `{"type":"save","name":"Second","status":"active"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("a second stage while pending should answer 409, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	logger := zerolog.Nop()
	mock := newMockData(t, logger)
	client := remote.New(mock.srv.URL, logger)
	courses := store.NewCourseStore(repository.NewCourseRepo(client), logger)
	h := NewCourseHandler(courses, repository.NewLessonRepo(client), workflow.New(&toastRecorder{}, logger), newTestValidator(), logger)

	sessions := session.NewMemoryManager()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.RequireAdmin(sessions))
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)

	// No session at all.
	resp, err := http.Get(api.URL + "/admin/courses")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}

	// Signed in, but not an admin.
	sessions.SetRecord(session.Record{UserID: 2, Email: "user@example.com", FullName: "Plain User", Role: model.RoleUser})
	resp, err = http.Get(api.URL + "/admin/courses")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin, got %d", resp.StatusCode)
	}
}
