package models

// NetworkStatus is the phase of the most recent remote fetch.
type NetworkStatus int

const (
	StatusIdle NetworkStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s NetworkStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// NetworkState is what observers of a pager see. Message is set only for
// StatusFailed.
type NetworkState struct {
	Status  NetworkStatus
	Message string
}

var (
	NetworkIdle    = NetworkState{Status: StatusIdle}
	NetworkLoading = NetworkState{Status: StatusLoading}
	NetworkLoaded  = NetworkState{Status: StatusLoaded}
)

func NetworkFailed(msg string) NetworkState {
	return NetworkState{Status: StatusFailed, Message: msg}
}

func (s NetworkState) String() string {
	if s.Status == StatusFailed && s.Message != "" {
		return "failed: " + s.Message
	}
	return s.Status.String()
}
