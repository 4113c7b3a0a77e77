package search

// State is a step of the paginated search state machine.
type State int

// Search states. Done, Failed and Cancelled are terminal.
const (
	StateIdle State = iota
	StateFetchingPage
	StateAwaitingTokenDelay
	StateDone
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:               "idle",
	StateFetchingPage:       "fetching_page",
	StateAwaitingTokenDelay: "awaiting_token_delay",
	StateDone:               "done",
	StateFailed:             "failed",
	StateCancelled:          "cancelled",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}
