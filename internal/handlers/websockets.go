package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	hub "github.com/Lolo20020803/ProyectoSBC/internal/services/websocket"
)

const viewerReadTimeout = 60 * time.Second

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers viewers with the hub. Viewers only receive;
// anything they send is read and discarded to keep the connection alive.
func ViewWebsocketHandler(viewers *hub.HubService, logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
			return nil
		})

		ctx := r.Context()
		if !viewers.Register(ctx, connection) {
			connection.Close()
			return
		}
		defer viewers.Unregister(ctx, connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
			connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		}
	}
}
