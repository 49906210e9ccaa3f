package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     allowOrigin,
}

type wsConnWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConnWriter) write(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

// websocket answers each text frame, a dispatch request, with one response
// frame in the same order.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	writer := &wsConnWriter{conn: conn}
	ctx := r.Context()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				httpLog.Warn("websocket_closed_unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			_ = writer.write([]byte(`{"success":false,"error":"rate limited"}`))
			continue
		}
		if err := writer.write(s.d.HandleJSON(ctx, payload)); err != nil {
			httpLog.Warn("websocket_write_failed", slog.String("error", err.Error()))
			return
		}
	}
}
