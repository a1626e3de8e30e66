package ice

import (
	"net/http"
	"strings"

	"github.com/korlin/auditorium/internal/infrastructure/configs"
	"github.com/korlin/auditorium/internal/infrastructure/json"
)

// Handler serves the ICE server descriptors clients need to configure
// their transport. The list is static, externally configured state;
// nothing here is room-aware.
type Handler struct {
	servers []configs.ICEServer
}

func NewHandler(servers []configs.ICEServer) *Handler {
	return &Handler{servers: servers}
}

func (h *Handler) GetICEServers(w http.ResponseWriter, r *http.Request) {
	servers := h.servers

	// Always hand out at least one STUN server.
	if !hasSTUN(servers) {
		servers = append([]configs.ICEServer{{
			URLs: []string{"stun:stun.l.google.com:19302"},
		}}, servers...)
	}

	json.Write(w, http.StatusOK, iceServersResponse{ICEServers: servers})
}

func hasSTUN(servers []configs.ICEServer) bool {
	for _, s := range servers {
		for _, url := range s.URLs {
			if strings.HasPrefix(url, "stun:") {
				return true
			}
		}
	}
	return false
}
