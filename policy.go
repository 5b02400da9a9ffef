package criteria

import "fmt"

// Isolation decides what happens when a hook fails.
type Isolation int

const (
	// Propagate returns the hook error from Suite.Run, aborting the suite and
	// every suite after it.
	Propagate Isolation = iota
	// Isolate reports the hook error and continues as if the hook succeeded.
	Isolate
)

func (i Isolation) String() string {
	switch i {
	case Propagate:
		return "propagate"
	case Isolate:
		return "isolate"
	default:
		return fmt.Sprintf("Isolation(%d)", int(i))
	}
}

// ParseIsolation parses "propagate" or "isolate".
func ParseIsolation(s string) (Isolation, error) {
	switch s {
	case "", "propagate":
		return Propagate, nil
	case "isolate":
		return Isolate, nil
	default:
		return Propagate, fmt.Errorf("unknown isolation %q", s)
	}
}

// Policy holds the failure isolation of each hook kind. The zero value
// propagates every hook failure.
type Policy struct {
	BeforeAll  Isolation
	BeforeEach Isolation
	AfterEach  Isolation
	AfterAll   Isolation
}

// For returns the isolation configured for kind.
func (p Policy) For(kind HookKind) Isolation {
	switch kind {
	case BeforeAll:
		return p.BeforeAll
	case BeforeEach:
		return p.BeforeEach
	case AfterEach:
		return p.AfterEach
	case AfterAll:
		return p.AfterAll
	default:
		return Propagate
	}
}
