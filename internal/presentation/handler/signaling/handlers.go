package signaling

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/auth"
	"github.com/korlin/auditorium/internal/infrastructure/json"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
	"github.com/korlin/auditorium/internal/infrastructure/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Origin checks belong to the deployment's reverse proxy; the token
	// is the admission credential here.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	authenticator *auth.Authenticator
	registry      *ws.Registry
	router        *ws.Router
	outboxSize    int
	logger        *zap.SugaredLogger
	metrics       *metrics.Metrics
}

func NewHandler(
	authenticator *auth.Authenticator,
	registry *ws.Registry,
	router *ws.Router,
	outboxSize int,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		authenticator: authenticator,
		registry:      registry,
		router:        router,
		outboxSize:    outboxSize,
		logger:        logger,
		metrics:       m,
	}
}

// ConnectHandler upgrades GET /ws/{roomId}?token=... into a signaling
// session. Verification happens before any Room or Peer exists; a bad
// credential closes the socket right after the handshake and leaves no
// trace in the registry.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteError(w, http.StatusBadRequest, "room ID is missing")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "room", roomID, "error", err)
		return
	}

	role, err := h.authenticator.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.metrics.AuthFailures.Inc()
		h.logger.Infow("rejecting connection", "room", roomID, "error", err)
		closeWithReason(conn, "authentication failed")
		return
	}

	peer := domain.NewPeer(uuid.NewString(), role, h.outboxSize)

	room, err := h.registry.JoinRoom(roomID, peer)
	if err != nil {
		if errors.Is(err, domain.ErrAdminConflict) {
			h.logger.Infow("rejecting second admin", "room", roomID)
			closeWithReason(conn, domain.ErrAdminConflict.Error())
		} else {
			h.logger.Errorw("join failed", "room", roomID, "peer", peer.ID, "error", err)
			closeWithReason(conn, "join failed")
		}
		return
	}

	h.metrics.ActiveConnections.Inc()
	h.logger.Infow("peer connected", "room", roomID, "peer", peer.ID, "role", role)

	client := ws.NewClient(conn, peer, room, h.logger)

	go client.WritePump()
	h.router.OnConnect(room, peer)

	go client.ReadPump(
		func(raw []byte) { h.router.Dispatch(room, peer, raw) },
		func() { h.disconnect(room, peer) },
	)
}

func (h *Handler) disconnect(room *domain.Room, peer *domain.Peer) {
	h.router.OnDisconnect(room, peer)
	h.registry.Release(room.ID)
	h.metrics.ActiveConnections.Dec()
	h.logger.Infow("peer disconnected", "room", room.ID, "peer", peer.ID)
}

func closeWithReason(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
