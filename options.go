package criteria

import (
	"io"
	"log/slog"

	"go.starlark.net/starlark"
)

// DefaultExtensions are the source extensions recognised after the
// ".test"/".spec" suffix of a test file name.
var DefaultExtensions = []string{"star", "sky", "starlark"}

// DefaultSkipPatterns are directory names that are never descended into.
var DefaultSkipPatterns = []string{".git", "node_modules", "vendor"}

type settings struct {
	report     *Report
	policy     Policy
	extensions []string
	skip       []string
	globals    starlark.StringDict
	load       func(*starlark.Thread, string) (starlark.StringDict, error)
	logger     *slog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		extensions: DefaultExtensions,
		skip:       DefaultSkipPatterns,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.report == nil {
		s.report = NewReport()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Option configures a Registry or a Loader.
type Option func(*settings)

// WithReport sets the Report results are printed to.
func WithReport(r *Report) Option {
	return func(s *settings) { s.report = r }
}

// WithOutput prints unstyled results to out and failures to errOut.
func WithOutput(out, errOut io.Writer) Option {
	return WithReport(NewReportWithWriters(out, errOut, false))
}

// WithPolicy sets the hook failure policy.
func WithPolicy(p Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithExtensions replaces the recognised test file extensions.
func WithExtensions(exts ...string) Option {
	return func(s *settings) { s.extensions = exts }
}

// WithSkip replaces the directory skip patterns. Patterns are doublestar
// globs matched against both the directory name and its path relative to
// the root.
func WithSkip(patterns ...string) Option {
	return func(s *settings) { s.skip = patterns }
}

// WithGlobals adds predeclared values to every Starlark test file.
func WithGlobals(globals starlark.StringDict) Option {
	return func(s *settings) { s.globals = globals }
}

// WithLoad adds a loader for Starlark load statements. If the loader returns
// nil, the next loader is called.
func WithLoad(load func(*starlark.Thread, string) (starlark.StringDict, error)) Option {
	return func(s *settings) {
		prev := s.load
		s.load = func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
			m, err := load(thread, module)
			if m != nil || err != nil {
				return m, err
			}
			if prev != nil {
				return prev(thread, module)
			}
			return nil, nil
		}
	}
}

// WithLogger sets the structured logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}
