package ws

// Frame kinds, client to server.
const (
	KindAdmit         = "admit"
	KindOffer         = "offer"
	KindAnswer        = "answer"
	KindICE           = "ice"
	KindChat          = "chat"
	KindMaterialEvent = "material_event"
)

// Frame kinds, server to client.
const (
	KindWaiting       = "waiting"
	KindNewWaiting    = "new_waiting"
	KindAdmitted      = "admitted"
	KindReadyForOffer = "ready_for_offer"
	KindPeerLeft      = "peer_left"
)
