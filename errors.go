package criteria

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes returned by the criteria CLI.
const (
	ExitSuccess     = 0 // All tests passed.
	ExitFailure     = 1 // A test or isolated hook failed, or a hook/load error aborted the run.
	ExitConfigError = 2 // Invalid configuration or arguments.
	ExitEnvError    = 3 // The root directory could not be discovered.
)

// ErrRegistrationClosed is returned when a suite is modified from Starlark
// after the file that created it has finished loading, and is the panic
// value when Go code registers on a running suite.
var ErrRegistrationClosed = errors.New("criteria: registration is closed")

// HookError is a hook failure propagated out of Suite.Run.
type HookError struct {
	Suite string
	Hook  HookKind
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("suite %q: %s hook: %v", e.Suite, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// LoadError is returned when a test definition unit fails to execute.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DiscoveryError is returned when the root directory cannot be walked.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering tests in %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap returns the recovered value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// AssertionError collects the non-fatal assertion failures reported while a
// Starlark callback ran.
type AssertionError struct {
	Messages []string
}

func (e *AssertionError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// ExitCode returns the CLI exit code for an error returned by the Loader.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var de *DiscoveryError
	if errors.As(err, &de) {
		return ExitEnvError
	}
	return ExitFailure
}

type backtracer interface {
	Backtrace() string
}

// Detail returns the diagnostic text printed under a failure line: the
// Starlark backtrace, the panic stack, or the error message.
func Detail(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s\n%s", pe.Error(), strings.TrimRight(string(pe.Stack), "\n"))
	}
	var bt backtracer
	if errors.As(err, &bt) {
		return strings.TrimRight(bt.Backtrace(), "\n")
	}
	return err.Error()
}
