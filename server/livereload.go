package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// LiveReloadPath is where browsers connect for reload notifications.
const LiveReloadPath = "/_zine/livereload"

const liveReloadScript = `<script>(function(){var p=location.protocol==="https:"?"wss://":"ws://";` +
	`var s=new WebSocket(p+location.host+"` + LiveReloadPath + `");` +
	`s.onmessage=function(){location.reload()};})();</script>`

// LiveReload tells connected browsers to reload after each build.
type LiveReload struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan struct{}
}

// NewLiveReload creates an empty hub.
func NewLiveReload(logger *slog.Logger) *LiveReload {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveReload{logger: logger, clients: make(map[*websocket.Conn]chan struct{})}
}

// Clients returns the number of connected browsers.
func (l *LiveReload) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Broadcast queues a reload for every client. Clients that already have
// one pending are not queued twice.
func (l *LiveReload) Broadcast() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, notify := range l.clients {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (l *LiveReload) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		l.logger.Debug("livereload accept", "error", err)
		return
	}

	notify := make(chan struct{}, 1)
	l.mu.Lock()
	l.clients[conn] = notify
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.clients, conn)
		l.mu.Unlock()
	}()

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-notify:
			if err := l.write(ctx, conn, []byte("reload")); err != nil {
				l.logger.Debug("livereload write", "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (l *LiveReload) write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// injectScript places the reload client before </body>, or appends it.
func injectScript(page []byte) []byte {
	marker := []byte("</body>")
	idx := bytes.LastIndex(bytes.ToLower(page), marker)
	if idx < 0 {
		return append(page, liveReloadScript...)
	}
	out := make([]byte, 0, len(page)+len(liveReloadScript))
	out = append(out, page[:idx]...)
	out = append(out, liveReloadScript...)
	return append(out, page[idx:]...)
}
