package session

// State is a position in the per-clip lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateDeciding
	StateRouting
	StateSkipped
	StateError
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDeciding:
		return "deciding"
	case StateRouting:
		return "routing"
	case StateSkipped:
		return "skipped"
	case StateError:
		return "error"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Error is transient and always returns to Loading; Completed is terminal.
var transitions = map[State][]State{
	StateIdle:     {StateLoading},
	StateLoading:  {StateReady, StateError, StateCompleted},
	StateReady:    {StateDeciding},
	StateDeciding: {StateRouting, StateSkipped},
	StateRouting:  {StateLoading, StateError},
	StateSkipped:  {StateLoading},
	StateError:    {StateLoading},
}

// CanTransition reports whether from → to is a legal step. Abandoning a
// session may move any non-terminal state straight to Completed.
func CanTransition(from, to State, abandon bool) bool {
	if from == StateCompleted {
		return false
	}
	if abandon && to == StateCompleted {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
