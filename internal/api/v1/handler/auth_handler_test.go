package handler

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursetrack/internal/api/v1/dto"
	"coursetrack/internal/middleware"
	"coursetrack/internal/model"
	"coursetrack/internal/remote"
	"coursetrack/internal/repository"
	"coursetrack/internal/session"

	"github.com/rs/zerolog"
)

type authEnv struct {
	api    *httptest.Server
	mock   *mockData
	client *http.Client
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	logger := zerolog.Nop()

	mock := newMockData(t, logger)
	mock.seed(t, "users", "[]")

	users := repository.NewUserRepo(remote.New(mock.srv.URL, logger))
	sessions := session.NewCookieManager("test-secret", "coursetrack_session", time.Hour)
	h := NewAuthHandler(users, sessions, newTestValidator(), logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.RequireAuth(sessions))
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &authEnv{api: api, mock: mock, client: &http.Client{Jar: jar}}
}

func (e *authEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.api.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

const registerBody = `{
	"first_name": "Ha",
	"last_name": "Nguyen",
	"email": "ha@example.com",
	"password": "secret123",
	"agree": true
}`

func TestRegisterLoginMeLogout(t *testing.T) {
	e := newAuthEnv(t)

	resp := e.post(t, "/auth/register", registerBody)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var registered dto.RegisteredDTO
	decodeInto(t, resp, &registered)
	if registered.Email != "ha@example.com" || registered.ID == 0 {
		t.Fatalf("unexpected registration result %+v", registered)
	}

	resp = e.post(t, "/auth/login", `{"email": "ha@example.com", "password": "secret123"}`)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200 from login, got %d", resp.StatusCode)
	}
	var sess dto.SessionDTO
	decodeInto(t, resp, &sess)
	if sess.FullName != "Ha Nguyen" || sess.Role != string(model.RoleUser) {
		t.Fatalf("unexpected session %+v", sess)
	}

	// The cookie carries the session to /auth/me.
	resp, err := e.client.Get(e.api.URL + "/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200 from /auth/me, got %d", resp.StatusCode)
	}
	var me dto.SessionDTO
	decodeInto(t, resp, &me)
	if me.Email != "ha@example.com" {
		t.Fatalf("expected the logged-in user, got %+v", me)
	}

	resp = e.post(t, "/auth/logout", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", resp.StatusCode)
	}

	resp, err = e.client.Get(e.api.URL + "/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestRegisterStoresAHashedPassword(t *testing.T) {
	e := newAuthEnv(t)

	resp := e.post(t, "/auth/register", registerBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	raw, err := http.Get(e.mock.srv.URL + "/users")
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Body.Close()
	var users []model.User
	if err := json.NewDecoder(raw.Body).Decode(&users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(users))
	}
	if users[0].Password == "secret123" || !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("password must be stored as a bcrypt hash, got %q", users[0].Password)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := newAuthEnv(t)

	resp := e.post(t, "/auth/register", registerBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// Same address in a different case is still taken.
	resp = e.post(t, "/auth/register", strings.Replace(registerBody, "ha@example.com", "HA@example.com", 1))
	if resp.StatusCode != http.StatusConflict {
		resp.Body.Close()
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var fe dto.FieldErrorsDTO
	decodeInto(t, resp, &fe)
	if fe.Errors["email"] != "email_taken" {
		t.Fatalf("expected email_taken, got %v", fe.Errors)
	}
}

func TestRegisterValidatesFields(t *testing.T) {
	e := newAuthEnv(t)

	resp := e.post(t, "/auth/register", `{
		"first_name": "Ha",
		"last_name": "Nguyen",
		"email": "not-an-email",
		"password": "short",
		"agree": false
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var fe dto.FieldErrorsDTO
	decodeInto(t, resp, &fe)
	for _, field := range []string{"email", "password", "agree"} {
		if fe.Errors[field] == "" {
			t.Errorf("expected an error for %s, got %v", field, fe.Errors)
		}
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	e := newAuthEnv(t)

	resp := e.post(t, "/auth/register", registerBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// Wrong password and unknown email produce the same answer, so the
	// endpoint does not leak which addresses exist.
	for _, body := range []string{
		`{"email": "ha@example.com", "password": "wrongpass"}`,
		`{"email": "nobody@example.com", "password": "whatever1"}`,
	} {
		resp = e.post(t, "/auth/login", body)
		if resp.StatusCode != http.StatusUnauthorized {
			resp.Body.Close()
			t.Fatalf("expected 401 for %s, got %d", body, resp.StatusCode)
		}
		var got map[string]string
		decodeInto(t, resp, &got)
		if got["error"] != "invalid email or password" {
			t.Fatalf("expected the uniform message, got %q", got["error"])
		}
	}
}

func TestMeWithoutSession(t *testing.T) {
	e := newAuthEnv(t)

	resp, err := http.Get(e.api.URL + "/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}
