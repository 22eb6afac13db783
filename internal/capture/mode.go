package capture

import "fmt"

// Mode is the state of the capture state machine
type Mode int

const (
	Idle Mode = iota
	Projecting
	Settling
	// Done is passed through when the catalog is exhausted; the machine
	// settles back to Idle within the same Step call.
	Done
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Projecting:
		return "projecting"
	case Settling:
		return "settling"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// transitions lists every legal move. Stop is the only way out of a
// running session other than exhausting the catalog.
var transitions = map[Mode][]Mode{
	Idle:       {Projecting},
	Projecting: {Settling, Idle},
	Settling:   {Projecting, Done, Idle},
	Done:       {Idle},
}

// CanTransition reports whether from -> to is a legal transition
func CanTransition(from, to Mode) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
