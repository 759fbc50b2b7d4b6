package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// StreamHandler pushes every view state change to WebSocket clients.
type StreamHandler struct {
	dashboardService *service.DashboardService
	upgrader         websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
// Connections are accepted from the given origins only; "*" accepts any origin.
func NewStreamHandler(dashboardService *service.DashboardService, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &StreamHandler{
		dashboardService: dashboardService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Stream upgrades the connection and sends the current view state followed by
// every published change. Client messages are ignored.
//
// Endpoint: GET /api/dashboard/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	updates, unsubscribe := h.dashboardService.Subscribe()

	go writePump(conn, updates)
	go readPump(conn, unsubscribe)
}

// writePump forwards view states until the subscription is closed.
func writePump(conn *websocket.Conn, updates <-chan model.ViewState) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case state, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // a failed write below ends the pump
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck // connection is closing
				return
			}

			data, err := json.Marshal(NewDashboardResponse(state))
			if err != nil {
				log.Printf("Failed to encode view state: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // a failed write below ends the pump
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the read deadline alive on pongs and unsubscribes once the client goes away.
func readPump(conn *websocket.Conn, unsubscribe func()) {
	defer func() {
		unsubscribe()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // a failed read below ends the pump
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}
