package criteria

import (
	"runtime/debug"
)

// Suite is a named node of the suite tree. It owns its tests, its child
// suites and four hook lists. Registration methods return the same Suite so
// calls can be chained; Criteria returns the new child instead.
//
// Suites are normally created by Registry.Criteria. A zero Suite reports to
// NewReport with the default Policy.
//
// Registering on a suite while it or its registry is running panics with
// ErrRegistrationClosed; inside a test or hook callback that panic is
// recovered as a failure.
type Suite struct {
	name     string
	level    int
	registry *Registry
	running  bool

	tests    []Test
	children []*Suite
	hooks    [numHookKinds][]Func

	successes int
	failures  int
	total     int

	results    []TestResult
	hookErrors []HookFailure
}

// TestResult is the outcome of one test of a run.
type TestResult struct {
	Name string
	Err  error
}

// Passed reports whether the test completed without error.
func (r TestResult) Passed() bool { return r.Err == nil }

// HookFailure is an isolated hook error recorded during a run.
type HookFailure struct {
	Hook HookKind
	Err  error
}

func newSuite(r *Registry, name string, level int) *Suite {
	return &Suite{name: name, level: level, registry: r}
}

func (s *Suite) Name() string       { return s.name }
func (s *Suite) Level() int         { return s.level }
func (s *Suite) Tests() []Test      { return s.tests }
func (s *Suite) Children() []*Suite { return s.children }

// Counters of the last run, counting only this suite's own tests.
func (s *Suite) Successes() int { return s.successes }
func (s *Suite) Failures() int  { return s.failures }
func (s *Suite) Total() int     { return s.total }

// Results returns the outcome of each test run so far, in run order.
func (s *Suite) Results() []TestResult { return s.results }

// HookFailures returns the hook errors that were isolated during runs.
func (s *Suite) HookFailures() []HookFailure { return s.hookErrors }

// Hooks returns the callbacks registered for kind.
func (s *Suite) Hooks(kind HookKind) []Func { return s.hooks[kind] }

// Criteria creates a child suite one level deeper and returns it.
func (s *Suite) Criteria(name string) *Suite {
	s.checkOpen()
	child := newSuite(s.registry, name, s.level+1)
	s.children = append(s.children, child)
	return child
}

// Test registers a test case.
func (s *Suite) Test(name string, fn Func) *Suite {
	s.checkOpen()
	s.tests = append(s.tests, Test{Name: name, Fn: fn})
	return s
}

// Spec is an alias for Test.
func (s *Suite) Spec(name string, fn Func) *Suite { return s.Test(name, fn) }

// It is an alias for Test.
func (s *Suite) It(name string, fn Func) *Suite { return s.Test(name, fn) }

func (s *Suite) BeforeAll(fn Func) *Suite  { return s.hook(BeforeAll, fn) }
func (s *Suite) BeforeEach(fn Func) *Suite { return s.hook(BeforeEach, fn) }
func (s *Suite) AfterEach(fn Func) *Suite  { return s.hook(AfterEach, fn) }
func (s *Suite) AfterAll(fn Func) *Suite   { return s.hook(AfterAll, fn) }

func (s *Suite) hook(kind HookKind, fn Func) *Suite {
	s.checkOpen()
	s.hooks[kind] = append(s.hooks[kind], fn)
	return s
}

func (s *Suite) checkOpen() {
	if s.running || (s.registry != nil && s.registry.running) {
		panic(ErrRegistrationClosed)
	}
}

func (s *Suite) report() *Report {
	if s.registry == nil || s.registry.report == nil {
		return NewReport()
	}
	return s.registry.report
}

func (s *Suite) policy() Policy {
	if s.registry == nil {
		return Policy{}
	}
	return s.registry.policy
}

// Run executes the suite's own tests with their hooks, prints the results
// and then runs every child suite. A suite without direct tests prints
// nothing and only recurses. Counters and results start from zero on every
// run. Hook errors are returned as *HookError unless the registry's Policy
// isolates that hook kind.
func (s *Suite) Run() error {
	s.successes, s.failures, s.total = 0, 0, 0
	s.results, s.hookErrors = nil, nil

	s.running = true
	defer func() { s.running = false }()

	report := s.report()

	if len(s.tests) > 0 {
		report.Header(s.level, s.name)

		if err := s.runHooks(BeforeAll); err != nil {
			return err
		}

		for _, test := range s.tests {
			if err := s.runHooks(BeforeEach); err != nil {
				return err
			}

			err := call(test.Fn)
			s.results = append(s.results, TestResult{Name: test.Name, Err: err})
			if err != nil {
				s.failures++
				report.Fail(s.level, test.Name, Detail(err))
			} else {
				s.successes++
				report.Pass(s.level, test.Name)
			}

			if err := s.runHooks(AfterEach); err != nil {
				return err
			}
			s.total++
		}

		if err := s.runHooks(AfterAll); err != nil {
			return err
		}

		report.Summary(s.level, s.successes, s.failures, s.total)
	}

	for _, child := range s.children {
		if err := child.Run(); err != nil {
			return err
		}
	}
	return nil
}

// Failed reports whether this suite or any descendant recorded a failed
// test or an isolated hook error.
func (s *Suite) Failed() bool {
	if s.failures > 0 || len(s.hookErrors) > 0 {
		return true
	}
	for _, child := range s.children {
		if child.Failed() {
			return true
		}
	}
	return false
}

func (s *Suite) runHooks(kind HookKind) error {
	for _, fn := range s.hooks[kind] {
		err := call(fn)
		if err == nil {
			continue
		}
		if s.policy().For(kind) == Isolate {
			s.hookErrors = append(s.hookErrors, HookFailure{Hook: kind, Err: err})
			s.report().HookFail(s.level, kind, Detail(err))
			continue
		}
		return &HookError{Suite: s.name, Hook: kind, Err: err}
	}
	return nil
}

// call runs fn, converting a panic into a *PanicError.
func call(fn Func) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	if fn == nil {
		return nil
	}
	return fn()
}
