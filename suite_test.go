package criteria

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(opts ...Option) (*Registry, *bytes.Buffer) {
	var buf bytes.Buffer
	opts = append([]Option{WithOutput(&buf, &buf)}, opts...)
	return NewRegistry(opts...), &buf
}

func pass() error { return nil }

func TestSuiteRunMath(t *testing.T) {
	r, buf := newTestRegistry()

	add := func(x, y int) int { return x + y }
	sub := func(x, y int) int { return x - y }
	check := func(got, want int) Func {
		return func() error {
			if got != want {
				return fmt.Errorf("%d != %d", got, want)
			}
			return nil
		}
	}

	s := r.Criteria("MATH").
		Test("Addition", check(add(2, 3), 5)).
		Test("Subtraction", check(sub(2, 3), -1)).
		Test("Faulty", func() error { return errors.New("boom") })

	require.NoError(t, s.Run())

	assert.Equal(t, 2, s.Successes())
	assert.Equal(t, 1, s.Failures())
	assert.Equal(t, 3, s.Total())

	want := "\n   MATH   \n\n" +
		"  ✅ Addition\n" +
		"  ✅ Subtraction\n" +
		"❌ Faulty\n" +
		"boom\n" +
		"\n2 passed (1 failed) out of 3 total\n\n"
	assert.Equal(t, want, buf.String())
}

func TestSuiteRunEmpty(t *testing.T) {
	r, buf := newTestRegistry()
	s := r.Criteria("EMPTY")

	require.NoError(t, s.Run())
	assert.Empty(t, buf.String())
	assert.Zero(t, s.Total())
}

func TestSuiteChildOrder(t *testing.T) {
	r, buf := newTestRegistry()
	a := r.Criteria("A").Test("a1", pass)
	b := a.Criteria("B").Test("b1", pass)

	assert.Equal(t, 0, a.Level())
	assert.Equal(t, 1, b.Level())
	assert.Equal(t, []*Suite{b}, a.Children())
	assert.Len(t, r.Suites(), 1, "child suites are not registered at the top level")

	require.NoError(t, r.Run())

	want := "\n   A   \n\n" +
		"  ✅ a1\n" +
		"\n1 passed out of 1 total\n\n" +
		"\n     B   \n\n" +
		"    ✅ b1\n" +
		"\n  1 passed out of 1 total\n\n"
	assert.Equal(t, want, buf.String())
}

func TestSuiteWithoutTestsRecurses(t *testing.T) {
	r, buf := newTestRegistry()
	var ran []string
	parent := r.Criteria("PARENT").
		BeforeAll(func() error { ran = append(ran, "parent beforeAll"); return nil })
	parent.Criteria("CHILD").Test("c", func() error { ran = append(ran, "child test"); return nil })

	require.NoError(t, parent.Run())
	assert.Equal(t, []string{"child test"}, ran, "hooks of a suite without tests never run")
	assert.NotContains(t, buf.String(), "PARENT")
	assert.Contains(t, buf.String(), "CHILD")
}

func TestSuiteChaining(t *testing.T) {
	r, _ := newTestRegistry()
	s := r.Criteria("S")

	assert.Same(t, s, s.Test("t", pass))
	assert.Same(t, s, s.Spec("spec", pass))
	assert.Same(t, s, s.It("it", pass))
	assert.Same(t, s, s.BeforeAll(pass))
	assert.Same(t, s, s.BeforeEach(pass))
	assert.Same(t, s, s.AfterEach(pass))
	assert.Same(t, s, s.AfterAll(pass))

	child := s.Criteria("C")
	assert.NotSame(t, s, child)
	assert.Equal(t, "C", child.Name())

	assert.Len(t, s.Tests(), 3)
	for kind := BeforeAll; kind < numHookKinds; kind++ {
		assert.Len(t, s.Hooks(kind), 1, kind.String())
	}
}

func TestSuiteHookOrder(t *testing.T) {
	r, _ := newTestRegistry()
	var events []string
	record := func(event string) Func {
		return func() error {
			events = append(events, event)
			return nil
		}
	}

	s := r.Criteria("HOOKS").
		BeforeAll(record("beforeAll 1")).
		BeforeAll(record("beforeAll 2")).
		BeforeEach(record("beforeEach")).
		AfterEach(record("afterEach 1")).
		AfterEach(record("afterEach 2")).
		AfterAll(record("afterAll")).
		Test("one", record("one")).
		Test("two", func() error {
			events = append(events, "two")
			return errors.New("two failed")
		}).
		Test("three", record("three"))
	s.Criteria("CHILD").Test("child", record("child"))

	require.NoError(t, s.Run())

	assert.Equal(t, []string{
		"beforeAll 1", "beforeAll 2",
		"beforeEach", "one", "afterEach 1", "afterEach 2",
		"beforeEach", "two", "afterEach 1", "afterEach 2",
		"beforeEach", "three", "afterEach 1", "afterEach 2",
		"afterAll",
		"child",
	}, events)
	assert.Equal(t, 2, s.Successes())
	assert.Equal(t, 1, s.Failures())
	assert.Equal(t, 3, s.Total())
}

func TestSuiteCountersOwnTestsOnly(t *testing.T) {
	r, _ := newTestRegistry()
	parent := r.Criteria("P").Test("p1", pass).Test("p2", func() error { return errors.New("x") })
	child := parent.Criteria("C").Test("c1", pass).Test("c2", pass).Test("c3", pass)

	require.NoError(t, r.Run())

	for _, s := range []*Suite{parent, child} {
		assert.Equal(t, len(s.Tests()), s.Total(), s.Name())
		assert.Equal(t, s.Total(), s.Successes()+s.Failures(), s.Name())
	}
	assert.Equal(t, 2, parent.Total())
	assert.Equal(t, 3, child.Total())
	assert.True(t, parent.Failed())
	assert.False(t, child.Failed())
	assert.True(t, r.Failed())
}

func TestSuitePanicIsFailure(t *testing.T) {
	r, buf := newTestRegistry()
	s := r.Criteria("PANIC").
		Test("panics", func() error { panic("kaboom") }).
		Test("after", pass)

	require.NoError(t, s.Run())
	assert.Equal(t, 1, s.Successes())
	assert.Equal(t, 1, s.Failures())

	var pe *PanicError
	require.ErrorAs(t, s.Results()[0].Err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Contains(t, buf.String(), "panic: kaboom")
	assert.Contains(t, buf.String(), "  ✅ after")
}

func TestSuiteBeforeAllPropagates(t *testing.T) {
	r, buf := newTestRegistry()
	var ran bool
	r.Criteria("SETUP").
		BeforeAll(func() error { return errors.New("no database") }).
		Test("never", func() error { ran = true; return nil })
	next := r.Criteria("NEXT").Test("never either", func() error { ran = true; return nil })

	err := r.Run()

	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "SETUP", he.Suite)
	assert.Equal(t, BeforeAll, he.Hook)
	assert.EqualError(t, he, `suite "SETUP": beforeAll hook: no database`)

	assert.False(t, ran)
	assert.Zero(t, next.Total())
	assert.Equal(t, "\n   SETUP   \n\n", buf.String(), "only the header is printed")
}

func TestSuiteHookPolicy(t *testing.T) {
	hookErr := errors.New("hook failed")

	tests := []struct {
		kind       HookKind
		policy     Policy
		wantErr    bool
		successes  int
		total      int
		hookFailed int
		summary    bool
	}{
		{kind: BeforeAll, policy: Policy{}, wantErr: true},
		{kind: BeforeAll, policy: Policy{BeforeAll: Isolate}, successes: 2, total: 2, hookFailed: 1, summary: true},
		{kind: BeforeEach, policy: Policy{}, wantErr: true},
		{kind: BeforeEach, policy: Policy{BeforeEach: Isolate}, successes: 2, total: 2, hookFailed: 2, summary: true},
		{kind: AfterEach, policy: Policy{}, wantErr: true, successes: 1},
		{kind: AfterEach, policy: Policy{AfterEach: Isolate}, successes: 2, total: 2, hookFailed: 2, summary: true},
		{kind: AfterAll, policy: Policy{}, wantErr: true, successes: 2, total: 2},
		{kind: AfterAll, policy: Policy{AfterAll: Isolate}, successes: 2, total: 2, hookFailed: 1, summary: true},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s/%s", tt.kind, tt.policy.For(tt.kind))
		t.Run(name, func(t *testing.T) {
			r, buf := newTestRegistry(WithPolicy(tt.policy))
			s := r.Criteria("POLICY").Test("a", pass).Test("b", pass)
			s.hook(tt.kind, func() error { return hookErr })

			err := s.Run()
			if tt.wantErr {
				var he *HookError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, tt.kind, he.Hook)
				assert.ErrorIs(t, err, hookErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.successes, s.Successes())
			assert.Equal(t, tt.total, s.Total())
			assert.Len(t, s.HookFailures(), tt.hookFailed)
			assert.Equal(t, tt.hookFailed > 0, s.Failed())
			assert.Equal(t, tt.summary, bytes.Contains(buf.Bytes(), []byte("out of")))
			if tt.hookFailed > 0 {
				assert.Contains(t, buf.String(), tt.kind.String()+" failed")
			}
		})
	}
}

func TestRegistryRunOrder(t *testing.T) {
	r, _ := newTestRegistry()
	var order []string
	for _, name := range []string{"first", "second", "first"} {
		r.Suite(name).Test("t", func() error { order = append(order, name); return nil })
	}

	require.NoError(t, r.Run())
	assert.Equal(t, []string{"first", "second", "first"}, order, "duplicate names are kept")
}

func TestParseIsolation(t *testing.T) {
	for _, s := range []string{"", "propagate"} {
		iso, err := ParseIsolation(s)
		require.NoError(t, err)
		assert.Equal(t, Propagate, iso)
	}
	iso, err := ParseIsolation("isolate")
	require.NoError(t, err)
	assert.Equal(t, Isolate, iso)
	assert.Equal(t, "isolate", iso.String())

	_, err = ParseIsolation("ignore")
	assert.Error(t, err)
}

func TestSuiteRunTwice(t *testing.T) {
	r, buf := newTestRegistry(WithPolicy(Policy{AfterAll: Isolate}))
	s := r.Criteria("AGAIN").
		Test("a", pass).
		Test("b", func() error { return errors.New("b failed") }).
		AfterAll(func() error { return errors.New("cleanup") })
	child := s.Criteria("CHILD").Test("c", pass)

	for i := 0; i < 2; i++ {
		buf.Reset()
		require.NoError(t, r.Run())

		assert.Equal(t, 1, s.Successes())
		assert.Equal(t, 1, s.Failures())
		assert.Equal(t, len(s.Tests()), s.Total())
		assert.Len(t, s.Results(), 2)
		assert.Len(t, s.HookFailures(), 1)
		assert.Equal(t, 1, child.Total())
		assert.Contains(t, buf.String(), "\n1 passed (1 failed) out of 2 total\n")
	}
}

func TestSuiteRegisterWhileRunning(t *testing.T) {
	r, _ := newTestRegistry()
	var s *Suite
	s = r.Criteria("LATE").
		Test("adds a test", func() error {
			s.Test("late", pass)
			return nil
		}).
		Test("adds a child", func() error {
			s.Criteria("LATER")
			return nil
		}).
		Test("adds a suite", func() error {
			r.Criteria("TOP")
			return nil
		})

	require.NoError(t, r.Run())

	assert.Len(t, s.Tests(), 3)
	assert.Empty(t, s.Children())
	assert.Len(t, r.Suites(), 1)
	assert.Equal(t, 3, s.Failures())
	for _, res := range s.Results() {
		assert.ErrorIs(t, res.Err, ErrRegistrationClosed, res.Name)
	}

	assert.NotPanics(t, func() { s.Test("after the run", pass) })
	assert.Len(t, s.Tests(), 4)
}

func TestZeroSuite(t *testing.T) {
	var s Suite
	s.Test("t", pass)
	s.Criteria("CHILD")

	assert.NotPanics(t, func() { require.NoError(t, s.Run()) })
	assert.Equal(t, 1, s.Successes())
	assert.Equal(t, 1, s.Total())
	assert.Equal(t, 1, s.Children()[0].Level())
}
