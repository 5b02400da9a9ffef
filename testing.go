package criteria

import (
	"strings"
	"testing"
)

// RunTests loads every test file under root and runs the registered suites
// inside a Go test. Output goes to t.Log; a propagated hook or load error is
// reported with t.Error and any failed test marks t as failed.
// To use add it to a Test function:
//
//	func TestStarlark(t *testing.T) {
//		criteria.RunTests(t, "testdata")
//	}
func RunTests(t *testing.T, root string, opts ...Option) *Registry {
	t.Helper()

	w := &logWriter{t: t}
	opts = append([]Option{WithOutput(w, w)}, opts...)
	l := NewLoader(opts...)

	if err := l.Load(root); err != nil {
		t.Error(err)
		return l.Registry()
	}
	if err := l.RunAll(); err != nil {
		t.Error(err)
	}
	if l.Registry().Failed() {
		t.Fail()
	}
	return l.Registry()
}

type logWriter struct {
	t testing.TB
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	if s := strings.TrimRight(string(p), "\n"); s != "" {
		w.t.Log(s)
	}
	return len(p), nil
}
