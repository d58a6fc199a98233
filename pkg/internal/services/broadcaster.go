package services

// Broadcaster is the fan-out seam the topic services publish through after
// a successful write. The websocket hub registers itself here at boot; the
// services never reach into the hub's connection state directly.
type Broadcaster interface {
	ToAll(event string, payload any)
	ToRole(role string, event string, payload any)
}

var broadcaster Broadcaster = noopBroadcaster{}

func SetBroadcaster(b Broadcaster) {
	if b != nil {
		broadcaster = b
	}
}

// noopBroadcaster keeps the write path alive when no hub is attached, e.g.
// in tests or one-off maintenance runs. Messages are simply lost, which is
// the contract anyway: durability lives in the store, not the fan-out.
type noopBroadcaster struct{}

func (noopBroadcaster) ToAll(event string, payload any)               {}
func (noopBroadcaster) ToRole(role string, event string, payload any) {}
