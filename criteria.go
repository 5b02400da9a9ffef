// Package criteria is a small test-execution framework. Test definition units
// register named tests into nested suites with lifecycle hooks, a Loader
// discovers and executes the units once each, and every registered suite is
// then run in order with its results printed to a Report.
//
// Units are usually Starlark files named like "math.test.star":
//
//	load("assert.star", "assert")
//
//	(criteria("MATH")
//	    .before_each(reset)
//	    .test("Addition", lambda: assert.eq(2 + 3, 5))
//	    .criteria("NESTED")
//	    .test("Truth", lambda: expect.true(True)))
//
// Module globals of a test file are not frozen after loading, so hooks and
// tests may share state through lists and dicts defined at the top level.
//
// Go code can register suites directly through a Registry or a Unit.
package criteria

import "fmt"

// Func is a test or hook callback. A non-nil error, or a panic, is a failure.
type Func func() error

// Test is a named test case owned by a Suite.
type Test struct {
	Name string
	Fn   Func
}

// HookKind identifies one of the four lifecycle hook lists of a Suite.
type HookKind int

const (
	BeforeAll HookKind = iota
	BeforeEach
	AfterEach
	AfterAll

	numHookKinds
)

var hookNames = [numHookKinds]string{
	BeforeAll:  "beforeAll",
	BeforeEach: "beforeEach",
	AfterEach:  "afterEach",
	AfterAll:   "afterAll",
}

func (k HookKind) String() string {
	if k < 0 || k >= numHookKinds {
		return fmt.Sprintf("HookKind(%d)", int(k))
	}
	return hookNames[k]
}
