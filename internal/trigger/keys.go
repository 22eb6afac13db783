package trigger

import "strings"

// Action is what the host loop does in response to a key
type Action int

const (
	None Action = iota
	Start
	Stop
	Quit
)

func (a Action) String() string {
	switch a {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Quit:
		return "quit"
	default:
		return "none"
	}
}

// Bindings maps key codes to actions. Start and Stop list every character
// that triggers the action; Quit is a raw key code (27 for ESC).
type Bindings struct {
	Start string
	Stop  string
	Quit  int
}

// Decode returns the action bound to key, None for unbound keys and for
// the "no key" code (-1) reported by window toolkits.
func (b Bindings) Decode(key int) Action {
	if key < 0 {
		return None
	}
	if key == b.Quit {
		return Quit
	}
	// window toolkits may set modifier bits above the low byte
	r := rune(key & 0xff)
	if strings.ContainsRune(b.Start, r) {
		return Start
	}
	if b.Stop != "" && strings.ContainsRune(b.Stop, r) {
		return Stop
	}
	return None
}

// Source yields key codes without blocking
type Source interface {
	Poll() (key int, ok bool)
}
