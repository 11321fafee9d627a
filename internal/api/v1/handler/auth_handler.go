package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"coursetrack/internal/api/v1/dto"
	"coursetrack/internal/middleware"
	"coursetrack/internal/model"
	"coursetrack/internal/repository"
	"coursetrack/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration, login and the session endpoints.
type AuthHandler struct {
	users    repository.UserRepository
	sessions session.Manager
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAuthHandler(users repository.UserRepository, sessions session.Manager, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		validate: validate,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes mounts auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/login", h.login)
	mux.Handle("/auth/logout", authMw(http.HandlerFunc(h.logout)))
	mux.Handle("/auth/me", authMw(http.HandlerFunc(h.me)))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if errs := fieldErrors(h.validate, &req); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.FieldErrorsDTO{Errors: errs})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error().Err(err).Msg("duplicate email lookup failed")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, dto.FieldErrorsDTO{Errors: map[string]string{"email": "email_taken"}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process password")
		return
	}
	created, err := h.users.CreateUser(r.Context(), &model.User{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      model.RoleUser,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create user")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisteredDTO{ID: created.ID, Email: created.Email})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if errs := fieldErrors(h.validate, &req); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.FieldErrorsDTO{Errors: errs})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("user lookup failed")
		writeError(w, http.StatusBadGateway, "data service unavailable")
		return
	}
	// One message for both unknown email and bad password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	rec := session.Record{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName(),
		Role:     user.Role,
	}
	if err := h.sessions.Set(w, rec); err != nil {
		h.logger.Error().Err(err).Msg("failed to establish session")
		writeError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO(rec))
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO(*rec))
}

func sessionDTO(rec session.Record) dto.SessionDTO {
	return dto.SessionDTO{
		UserID:   rec.UserID,
		Email:    rec.Email,
		FullName: rec.FullName,
		Role:     string(rec.Role),
	}
}

// fieldErrors maps validator failures to per-field codes for inline display.
func fieldErrors(v *validator.Validate, req interface{}) map[string]string {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": "invalid"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}
