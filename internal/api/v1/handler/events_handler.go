package handler

import (
	"net/http"

	"coursetrack/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// EventsHandler upgrades admin clients onto the toast push channel.
type EventsHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewEventsHandler(hub *notify.Hub, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The session cookie gates the upgrade; origins are handled by
			// the CORS layer for the rest of the API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("handler", "events").Logger(),
	}
}

// RegisterRoutes mounts the events route behind the admin guard.
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/events", adminMw(http.HandlerFunc(h.events)))
}

func (h *EventsHandler) events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.hub.Register(conn)
}
