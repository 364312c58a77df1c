package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akiroussama/codeClashServer/internal/logging"
	"github.com/akiroussama/codeClashServer/internal/registry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades observer connections and hands them to the registry.
type WSHandler struct {
	registry *registry.Registry
}

func NewWSHandler(reg *registry.Registry) *WSHandler {
	return &WSHandler{registry: reg}
}

// HandleConnect upgrades the request and blocks until the observer
// disconnects. The registry owns the connection for its whole lifetime.
func (h *WSHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", logging.Error(err))
		return
	}
	h.registry.Serve(ws)
}
