package handler

import (
	"net/http"
	"time"

	"productvision/internal/logger"
	feed "productvision/internal/service/websocket"

	"github.com/gorilla/websocket"
)

// Keepalive timing for feed viewers. A viewer that answers no ping within
// pongWait is dropped. Tests shorten these.
var (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DetectionFeedHandler registers viewers with the hub so they receive a
// message after every successful detection.
func DetectionFeedHandler(hub *feed.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		wait, period := pongWait, pingPeriod
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(wait))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(wait))
			return nil
		})

		if !hub.Register(connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go keepAlive(connection, period, done, logger)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}

// keepAlive pings the viewer every period until done is closed.
// WriteControl may run alongside the hub's writes on the same connection.
func keepAlive(connection *websocket.Conn, period time.Duration, done <-chan struct{}, logger *logger.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Warning("Ping failed: %v", err)
				return
			}
		}
	}
}
