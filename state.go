package bewegung

// State is a playback state of an Animation.
type State int

const (
	StateIdle State = iota
	// StateLoading is entered implicitly while the keyframes are computed
	// for a requested transition.
	StateLoading
	StateRunning
	StatePaused
	StateScrolling
	StateReversing
	StateFinished
	StateCanceled
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateLoading:   "loading",
	StateRunning:   "running",
	StatePaused:    "paused",
	StateScrolling: "scrolling",
	StateReversing: "reversing",
	StateFinished:  "finished",
	StateCanceled:  "canceled",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCanceled
}

// transitions lists the guarded transitions. Loading accepts every playback
// request and keeps the latest one for replay.
var transitions = map[State][]State{
	StateIdle:      {StateRunning, StateScrolling, StateReversing},
	StateLoading:   {StateRunning, StatePaused, StateScrolling, StateReversing, StateFinished, StateCanceled},
	StateRunning:   {StatePaused, StateReversing, StateFinished, StateCanceled},
	StatePaused:    {StateRunning, StateScrolling, StateReversing, StateFinished, StateCanceled},
	StateScrolling: {StateScrolling, StatePaused, StateRunning, StateFinished, StateCanceled},
	StateReversing: {StatePaused, StateRunning, StateFinished, StateCanceled},
}

func (s State) can(to State) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// playing reports whether native animations are mounted in s.
func (s State) playing() bool {
	switch s {
	case StateRunning, StatePaused, StateScrolling, StateReversing:
		return true
	}
	return false
}
