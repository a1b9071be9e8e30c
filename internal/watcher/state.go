package watcher

// State is a position in the watcher's reconciliation state machine.
type State int32

const (
	StateBootstrap State = iota
	StateConnecting
	StateSubscribed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateBootstrap:
		return "bootstrap"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
