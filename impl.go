package criteria

import (
	"errors"
	"fmt"
	"regexp"

	. "go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

type method struct {
	recv Value
	name string
	fn   func(*Thread, Tuple, []Tuple) (Value, error)
}

func (m method) Name() string          { return m.name }
func (m method) Freeze()               {}
func (m method) Hash() (uint32, error) { return 0, nil }
func (m method) String() string {
	return fmt.Sprintf("<builtin_method %s of %s value>", m.Name(), m.recv.Type())
}
func (m method) Type() string { return "builtin_method" }
func (m method) Truth() Bool  { return true }
func (m method) CallInternal(thread *Thread, args Tuple, kwargs []Tuple) (Value, error) {
	return m.fn(thread, args, kwargs)
}

// expectModule holds assertions that fail the calling test by raising an
// error, unlike assert.star which reports and continues.
//
//	expect.eq(add(2, 3), 5)
//	expect.fails(lambda: 1 // 0, "division by zero")
var expectModule = &starlarkstruct.Module{
	Name: "expect",
	Members: StringDict{
		"eq":          NewBuiltin("expect.eq", expectEq),
		"ne":          NewBuiltin("expect.ne", expectNe),
		"true":        NewBuiltin("expect.true", expectTrue),
		"false":       NewBuiltin("expect.false", expectFalse),
		"lt":          NewBuiltin("expect.lt", expectLt),
		"contains":    NewBuiltin("expect.contains", expectContains),
		"fails":       NewBuiltin("expect.fails", expectFails),
		"type":        NewBuiltin("expect.type", expectType),
		"matches":     NewBuiltin("expect.matches", expectMatches),
		"not_matches": NewBuiltin("expect.not_matches", expectNotMatches),
	},
}

func expectEq(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var x, y Value
	if err := UnpackArgs(b.Name(), args, kwargs, "x", &x, "y", &y); err != nil {
		return nil, err
	}
	ok, err := Equal(x, y)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s != %s", x, y)
	}
	return None, nil
}

func expectNe(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var x, y Value
	if err := UnpackArgs(b.Name(), args, kwargs, "x", &x, "y", &y); err != nil {
		return nil, err
	}
	ok, err := Equal(x, y)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%s == %s", x, y)
	}
	return None, nil
}

func expectTrue(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var (
		cond Value
		msg  string
	)
	if err := UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}
	if !cond.Truth() {
		if msg == "" {
			msg = fmt.Sprintf("%s is not truthy", cond)
		}
		return nil, errors.New(msg)
	}
	return None, nil
}

func expectFalse(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var (
		cond Value
		msg  string
	)
	if err := UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}
	if cond.Truth() {
		if msg == "" {
			msg = fmt.Sprintf("%s is truthy", cond)
		}
		return nil, errors.New(msg)
	}
	return None, nil
}

func expectLt(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var x, y Value
	if err := UnpackArgs(b.Name(), args, kwargs, "x", &x, "y", &y); err != nil {
		return nil, err
	}
	ok, err := Compare(syntax.LT, x, y)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s is not less than %s", x, y)
	}
	return None, nil
}

func expectContains(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var (
		x Iterable
		y Value
	)
	if err := UnpackArgs(b.Name(), args, kwargs, "x", &x, "y", &y); err != nil {
		return nil, err
	}
	iter := x.Iterate()
	defer iter.Done()

	var p Value
	for iter.Next(&p) {
		ok, err := Equal(y, p)
		if err != nil {
			return nil, err
		}
		if ok {
			return None, nil
		}
	}
	return nil, fmt.Errorf("%s does not contain %s", x, y)
}

func expectFails(thread *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var (
		f       Callable
		pattern string
	)
	if err := UnpackArgs(b.Name(), args, kwargs, "f", &f, "pattern", &pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	_, callErr := Call(thread, f, nil, nil)
	if callErr == nil {
		return nil, fmt.Errorf("evaluation succeeded unexpectedly (want error matching %s)", String(pattern))
	}
	if msg := callErr.Error(); !re.MatchString(msg) {
		return nil, fmt.Errorf("regular expression (%s) did not match error (%s)", pattern, msg)
	}
	return None, nil
}

func expectType(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var (
		x    Value
		name string
	)
	if err := UnpackArgs(b.Name(), args, kwargs, "x", &x, "name", &name); err != nil {
		return nil, err
	}
	if got := x.Type(); got != name {
		return nil, fmt.Errorf("%s has type %s, want %s", x, got, name)
	}
	return None, nil
}

func expectMatches(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var pattern, s string
	if err := UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "s", &s); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if !re.MatchString(s) {
		return nil, fmt.Errorf("%s does not match %s", String(s), pattern)
	}
	return None, nil
}

func expectNotMatches(_ *Thread, b *Builtin, args Tuple, kwargs []Tuple) (Value, error) {
	var pattern, s string
	if err := UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "s", &s); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.MatchString(s) {
		return nil, fmt.Errorf("%s matches %s", String(s), pattern)
	}
	return None, nil
}
