package ice

import "github.com/korlin/auditorium/internal/infrastructure/configs"

type iceServersResponse struct {
	ICEServers []configs.ICEServer `json:"iceServers"`
}
