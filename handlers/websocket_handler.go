package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin to the dashboard host before exposing this
		// publicly.
		return true
	},
}

type WebSocketHandler struct {
	hub          *events.Hub
	scrimService services.ScrimService
	logger       *slog.Logger
}

func NewWebSocketHandler(hub *events.Hub, ss services.ScrimService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, scrimService: ss, logger: logger}
}

// ServeScrim subscribes the caller to one scrim's event room. The room id is
// the scrim id, so lifecycle and team events broadcast by the services land
// here.
func (h *WebSocketHandler) ServeScrim(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.scrimService.GetScrim(r.Context(), scrimID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		h.logger.Warn("websocket upgrade failed",
			slog.Int("scrim_id", scrimID),
			slog.Any("error", err))
		return
	}

	client := events.NewClient(h.hub, conn, chi.URLParam(r, "scrimID"))
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
