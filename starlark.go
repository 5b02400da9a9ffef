package criteria

import (
	"errors"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// LoadFile executes a single Starlark test file into the loader's registry,
// applying the same dedup rule as Load. If src is nil the file is read from
// disk, otherwise src may be a string, []byte or io.Reader.
func (l *Loader) LoadFile(filename string, src interface{}) error {
	key, ok := dedupKey(filename, l.set.extensions)
	if !ok {
		key = filename
	}
	if key == "" || l.seen[key] {
		l.set.logger.Debug("skipping test file", "path", filename, "key", key)
		return nil
	}
	l.seen[key] = true

	l.set.report.Loading(filename, key)
	if err := l.exec(filename, src); err != nil {
		return &LoadError{Path: filename, Err: err}
	}
	return nil
}

func (l *Loader) execFile(filename string) error {
	return l.exec(filename, nil)
}

func (l *Loader) exec(filename string, src interface{}) error {
	fx := &fileExec{set: &l.set, registry: l.registry, filename: filename}
	defer func() { fx.closed = true }()

	predeclared := fx.predeclared()
	_, prog, err := starlark.SourceProgram(filename, src, predeclared.Has)
	if err != nil {
		return err
	}

	// Init, unlike ExecFile, leaves the globals unfrozen for the run phase.
	thread, rec := fx.newThread(filename)
	if _, err := prog.Init(thread, predeclared); err != nil {
		return locate(filename, err)
	}
	return rec.err()
}

// locate prefixes an evaluation error with the innermost position inside
// filename.
func locate(filename string, err error) error {
	evalErr, ok := err.(*starlark.EvalError)
	if !ok {
		return err
	}
	for i := len(evalErr.CallStack) - 1; i >= 0; i-- {
		posn := evalErr.CallStack.At(i).Pos
		if posn.Filename() == filename {
			return fmt.Errorf("%s:%d: %w", filename, posn.Line, err)
		}
	}
	return err
}

// fileExec is the state shared by everything one test file registers.
type fileExec struct {
	set      *settings
	registry *Registry
	filename string
	closed   bool
}

func (fx *fileExec) predeclared() starlark.StringDict {
	globals := starlark.StringDict{
		"criteria": starlark.NewBuiltin("criteria", fx.criteria),
		"suite":    starlark.NewBuiltin("suite", fx.criteria),
		"expect":   expectModule,
		"struct":   starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
	for k, v := range fx.set.globals {
		globals[k] = v
	}
	return globals
}

func (fx *fileExec) newThread(name string) (*starlark.Thread, *recorder) {
	thread := &starlark.Thread{Name: name}

	rec := &recorder{}
	SetReporter(thread, rec)
	thread.Print = func(_ *starlark.Thread, msg string) {
		fx.set.report.Println(msg)
	}
	thread.Load = func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
		if module == "assert.star" {
			return LoadAssertModule(thread)
		}
		if fx.set.load != nil {
			m, err := fx.set.load(thread, module)
			if m != nil || err != nil {
				return m, err
			}
		}
		return nil, errors.New("module not found")
	}
	return thread, rec
}

// callback adapts a Starlark callable into a Func run on a fresh thread.
func (fx *fileExec) callback(name string, fn starlark.Callable) Func {
	return func() error {
		thread, rec := fx.newThread(fx.filename + "/" + name)
		if _, err := starlark.Call(thread, fn, nil, nil); err != nil {
			return err
		}
		return rec.err()
	}
}

func (fx *fileExec) criteria(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if fx.closed {
		return nil, fmt.Errorf("%s: %w", b.Name(), ErrRegistrationClosed)
	}
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	return &suiteValue{s: fx.registry.Criteria(name), fx: fx}, nil
}

// suiteValue exposes a Suite to Starlark.
//
//	criteria("MATH").test("add", lambda: expect.eq(1 + 1, 2))
type suiteValue struct {
	s  *Suite
	fx *fileExec
}

func (v *suiteValue) String() string        { return fmt.Sprintf("<criteria %q>", v.s.name) }
func (v *suiteValue) Type() string          { return "criteria" }
func (v *suiteValue) Freeze()               {}
func (v *suiteValue) Truth() starlark.Bool  { return true }
func (v *suiteValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", v.Type()) }

type suiteAttr func(v *suiteValue) starlark.Value

var suiteAttrs = map[string]suiteAttr{
	"name":  func(v *suiteValue) starlark.Value { return starlark.String(v.s.name) },
	"level": func(v *suiteValue) starlark.Value { return starlark.MakeInt(v.s.level) },

	"test":     func(v *suiteValue) starlark.Value { return method{v, "test", v.test("test")} },
	"spec":     func(v *suiteValue) starlark.Value { return method{v, "spec", v.test("spec")} },
	"it":       func(v *suiteValue) starlark.Value { return method{v, "it", v.test("it")} },
	"criteria": func(v *suiteValue) starlark.Value { return method{v, "criteria", v.child} },

	"before_all":  func(v *suiteValue) starlark.Value { return method{v, "before_all", v.hook("before_all", BeforeAll)} },
	"before_each": func(v *suiteValue) starlark.Value { return method{v, "before_each", v.hook("before_each", BeforeEach)} },
	"after_each":  func(v *suiteValue) starlark.Value { return method{v, "after_each", v.hook("after_each", AfterEach)} },
	"after_all":   func(v *suiteValue) starlark.Value { return method{v, "after_all", v.hook("after_all", AfterAll)} },
}

func (v *suiteValue) Attr(name string) (starlark.Value, error) {
	if m := suiteAttrs[name]; m != nil {
		return m(v), nil
	}
	return nil, nil
}
func (v *suiteValue) AttrNames() []string {
	names := make([]string, 0, len(suiteAttrs))
	for name := range suiteAttrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type builtinFunc = func(*starlark.Thread, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

func (v *suiteValue) test(fnname string) builtinFunc {
	return func(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if v.fx.closed {
			return nil, fmt.Errorf("%s: %w", fnname, ErrRegistrationClosed)
		}
		var (
			name string
			fn   starlark.Callable
		)
		if err := starlark.UnpackArgs(fnname, args, kwargs, "name", &name, "fn", &fn); err != nil {
			return nil, err
		}
		v.s.Test(name, v.fx.callback(name, fn))
		return v, nil
	}
}

func (v *suiteValue) child(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if v.fx.closed {
		return nil, fmt.Errorf("criteria: %w", ErrRegistrationClosed)
	}
	var name string
	if err := starlark.UnpackArgs("criteria", args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	return &suiteValue{s: v.s.Criteria(name), fx: v.fx}, nil
}

func (v *suiteValue) hook(fnname string, kind HookKind) builtinFunc {
	return func(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if v.fx.closed {
			return nil, fmt.Errorf("%s: %w", fnname, ErrRegistrationClosed)
		}
		var fn starlark.Callable
		if err := starlark.UnpackArgs(fnname, args, kwargs, "fn", &fn); err != nil {
			return nil, err
		}
		v.s.hook(kind, v.fx.callback(fnname, fn))
		return v, nil
	}
}
