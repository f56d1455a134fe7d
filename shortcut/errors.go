package shortcut

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when neither an inline nor a block query was given.
	ErrEmptyQuery = errors.New("No query provided")

	// ErrDuplicateShortcut is returned when registering a name that is already taken.
	ErrDuplicateShortcut = errors.New("Shortcut already registered")

	// ErrInvalidShortcut is returned when registering a malformed name or a nil policy.
	ErrInvalidShortcut = errors.New("Invalid shortcut")

	// ErrUnknownShortcut is returned when dispatching a name that isn't registered.
	ErrUnknownShortcut = errors.New("Unknown shortcut")

	// ErrExecutionFailed tags any failure returned by the Executor.
	ErrExecutionFailed = errors.New("Query execution failed")

	// ErrRenderFailed is returned when a policy cannot produce its output.
	ErrRenderFailed = errors.New("Failed to render result")
)

// Error is returned by Dispatch. It records the shortcut and query that failed.
type Error struct {
	Name  Name
	Query string

	// Kind is one of the sentinel errors of this package.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Shortcut %q: %v", e.Name, e.Kind)
	}

	return fmt.Sprintf("Shortcut %q: %v: %v", e.Name, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// failure tags an error returned by a policy with its kind.
type failure struct {
	kind error
	err  error
}

func (f *failure) Error() string {
	return f.err.Error()
}

func (f *failure) Unwrap() []error {
	return []error{f.kind, f.err}
}

// ExecutionFailed tags err as a failure of the Executor or of evaluating a Result.
// Policies use it so that Dispatch reports the error as ErrExecutionFailed.
func ExecutionFailed(err error) error {
	return &failure{kind: ErrExecutionFailed, err: err}
}

// RenderFailed tags err as a failure to produce the policy output.
// Untagged policy errors are reported as ErrRenderFailed too.
func RenderFailed(err error) error {
	return &failure{kind: ErrRenderFailed, err: err}
}

// classify splits a policy error into its kind and cause.
func classify(err error) (kind error, cause error) {
	var f *failure
	if errors.As(err, &f) {
		return f.kind, f.err
	}

	return ErrRenderFailed, err
}
