package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/app"
)

// writeTimeout bounds a single snapshot write to a slow client.
const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// KioskHandler runs one session loop per websocket connection. Each binary
// message is an encoded frame and is answered with one JSON snapshot.
type KioskHandler struct {
	app    *app.App
	log    *zap.Logger
	active atomic.Int64

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewKioskHandler creates a new KioskHandler.
func NewKioskHandler(a *app.App, log *zap.Logger) *KioskHandler {
	return &KioskHandler{
		app:   a,
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Active returns the number of open kiosk sessions.
func (h *KioskHandler) Active() int64 {
	return h.active.Load()
}

// CloseAll closes every open connection, ending their loops.
func (h *KioskHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
}

// ServeHTTP upgrades the request and processes frames until the client goes away.
func (h *KioskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.track(conn, true)
	defer h.track(conn, false)

	id := uuid.NewString()
	loop := h.app.NewLoop(id)
	log := h.log.With(zap.String("session_id", id))
	log.Info("session started", zap.String("remote", r.RemoteAddr))

	frames := 0
	defer func() {
		log.Info("session ended", zap.Int("frames", frames))
	}()

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", zap.Error(err))
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			log.Warn("skipping non-binary message")
			continue
		}
		frames++

		// Adapter failures fail open inside the loop; only undecodable
		// frames come back as errors.
		snap, err := loop.ProcessFrame(ctx, data)
		if err != nil {
			log.Warn("skipping frame", zap.Error(err))
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(snap); err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (h *KioskHandler) track(conn *websocket.Conn, open bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if open {
		h.conns[conn] = struct{}{}
		h.active.Add(1)
		return
	}
	delete(h.conns, conn)
	h.active.Add(-1)
}
