package criteria

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarktest"
)

// A Reporter is a value to which errors may be reported.
// It is satisfied by *testing.T.
type Reporter = starlarktest.Reporter

// SetReporter associates an error reporter with the Starlark thread so that
// the assert.star module may report errors to it.
func SetReporter(thread *starlark.Thread, r Reporter) {
	starlarktest.SetReporter(thread, r)
}

// GetReporter returns the Starlark thread's error reporter.
// It must be preceded by a call to SetReporter.
func GetReporter(thread *starlark.Thread) Reporter {
	return starlarktest.GetReporter(thread)
}

// LoadAssertModule loads the assert module.
// It is concurrency-safe and idempotent.
func LoadAssertModule(thread *starlark.Thread) (starlark.StringDict, error) {
	return starlarktest.LoadAssertModule()
}

// recorder collects the errors reported by assert.star while one callback
// runs. Any collected error fails the callback.
type recorder struct {
	msgs []string
}

func (r *recorder) Error(args ...interface{}) {
	r.msgs = append(r.msgs, fmt.Sprint(args...))
}

func (r *recorder) err() error {
	if len(r.msgs) == 0 {
		return nil
	}
	msgs := make([]string, len(r.msgs))
	copy(msgs, r.msgs)
	return &AssertionError{Messages: msgs}
}
