package domain

// ConnectionStatus describes the health of the link to a remote file.
type ConnectionStatus uint8

const (
	// StatusHidden is the quiescent default. Local sources stay hidden forever.
	StatusHidden ConnectionStatus = iota
	// StatusConnected means the last remote interaction succeeded.
	StatusConnected
	// StatusReconnecting means a push watch died and the source is backing off.
	StatusReconnecting
	// StatusDisconnected means the last polling probe failed.
	StatusDisconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "hidden"
	}
}

// WatchStrategy is a state of the remote watch state machine.
type WatchStrategy uint8

const (
	// StrategyProbing checks which notification tools the remote host has.
	StrategyProbing WatchStrategy = iota
	// StrategyPushPrimary runs a persistent fswatch loop.
	StrategyPushPrimary
	// StrategyPushSecondary runs a persistent inotifywait loop.
	StrategyPushSecondary
	// StrategyReconnecting waits out the backoff after a push loop died.
	StrategyReconnecting
	// StrategyPolling samples a hash or mtime on a fixed interval.
	StrategyPolling
)

func (s WatchStrategy) String() string {
	switch s {
	case StrategyProbing:
		return "probing"
	case StrategyPushPrimary:
		return "push-primary"
	case StrategyPushSecondary:
		return "push-secondary"
	case StrategyReconnecting:
		return "reconnecting"
	case StrategyPolling:
		return "polling"
	default:
		return "unknown"
	}
}

// IsPush reports whether s is one of the push tiers.
func (s WatchStrategy) IsPush() bool {
	return s == StrategyPushPrimary || s == StrategyPushSecondary
}
