package router

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"coursetrack/internal/api/v1/handler"
	"coursetrack/internal/config"
	"coursetrack/internal/middleware"
	"coursetrack/internal/notify"
	"coursetrack/internal/remote"
	"coursetrack/internal/repository"
	"coursetrack/internal/session"
	"coursetrack/internal/store"
	"coursetrack/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the whole front-end together: remote client, repositories,
// stores, session manager, toast hub, workflows and the HTTP surface.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, error) {
	logger.Info().Str("data_service", cfg.DataServiceURL).Msg("Router initialized")

	// 1. Remote client + repositories
	client := remote.New(cfg.DataServiceURL, logger)
	courseRepo := repository.NewCourseRepo(client)
	lessonRepo := repository.NewLessonRepo(client)
	userRepo := repository.NewUserRepo(client)

	// 2. Collection stores (one per resource type)
	courseStore := store.NewCourseStore(courseRepo, logger)
	lessonStore := store.NewLessonStore(lessonRepo, logger)

	// 3. Validator; field errors report json names so they land next to the
	// right form field
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 4. Session manager + guards
	sessions := session.NewCookieManager(
		cfg.SessionSecret,
		cfg.SessionCookieName,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
	)
	authMw := middleware.RequireAuth(sessions)
	adminMw := middleware.RequireAdmin(sessions)

	// 5. Toast hub and one pending-action workflow per resource
	hub := notify.NewHub(logger)
	courseWf := workflow.New(hub, logger)
	lessonWf := workflow.New(hub, logger)

	// 6. Handlers
	authHandler := handler.NewAuthHandler(userRepo, sessions, validate, logger)
	catalogHandler := handler.NewCatalogHandler(courseRepo, lessonRepo, logger)
	courseHandler := handler.NewCourseHandler(courseStore, lessonRepo, courseWf, validate, logger)
	lessonHandler := handler.NewLessonHandler(lessonStore, courseStore, lessonRepo, lessonWf, validate, logger)
	eventsHandler := handler.NewEventsHandler(hub, logger)

	// 7. Create ServeMux router with the /v1 prefix
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, authMw)
	catalogHandler.RegisterRoutes(apiV1Mux, authMw)
	courseHandler.RegisterRoutes(apiV1Mux, adminMw)
	lessonHandler.RegisterRoutes(apiV1Mux, adminMw)
	eventsHandler.RegisterRoutes(apiV1Mux, adminMw)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// 8. Apply CORS middleware
	origins := strings.Split(cfg.AllowedOrigins, ",")
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), nil
}
