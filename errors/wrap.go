// Package errors mirrors the API of github.com/pkg/errors and adds coded errors for the execution layer.
//
// Stack traces
//
// Errors are wrapped at every layer so that a logged error always carries a stack trace. When a chain of wraps
// shares a caller the redundant traces are dropped, so a report usually ends up with only the root trace.
package errors

import (
	stderrors "errors" //nolint: depguard
	"fmt"
	"io"
	"runtime"

	"github.com/pkg/errors" //nolint: depguard
)

// New returns an error with the supplied message and the stack trace at the point it was called.
func New(message string) error {
	return newStackErr(nil, message)
}

// Errorf formats according to a format specifier and records the stack trace at the point it was called.
func Errorf(format string, args ...interface{}) error {
	return newStackErr(nil, fmt.Sprintf(format, args...))
}

// Wrapf annotates err with a formatted message and a stack trace. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, fmt.Sprintf(format, args...))
}

// Wrap annotates err with a message and a stack trace. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, message)
}

// WithStack annotates err with a stack trace. Returns nil if err is nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, "")
}

// Cause walks the chain of causers and returns the innermost error.
func Cause(err error) error {
	for err != nil {
		cause, ok := err.(causer)
		if !ok {
			break
		}
		if cause.Cause() == nil {
			break
		}
		err = cause.Cause()
	}
	return err
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

type stackErr struct {
	cause error
	stack errors.StackTrace
	msg   string
}

func newStackErr(cause error, msg string) error {
	// drop this frame and the public api frame
	stack := errors.New("").(stackTracer).StackTrace()[2:]
	return &stackErr{
		cause: cause,
		stack: stack,
		msg:   msg,
	}
}

func (e *stackErr) Error() string {
	if e.cause != nil {
		if e.msg != "" {
			return e.msg + ": " + e.cause.Error()
		}
		return e.cause.Error()
	}
	return e.msg
}

func (e *stackErr) Cause() error {
	return e.cause
}

// StackTrace returns nil when the cause already carries a trace from the same call path, so that only unique
// traces are printed.
func (e *stackErr) StackTrace() errors.StackTrace {
	var cStack errors.StackTrace
	if sCause, ok := e.cause.(stackTracer); ok {
		if pCause, ok := e.cause.(*stackErr); ok {
			// read the raw field, calling StackTrace() here could return nil for a cause that has a trace
			cStack = pCause.stack
		} else {
			cStack = sCause.StackTrace()
		}
	}
	if cStack == nil || len(cStack) < len(e.stack) {
		return e.stack
	}
	// walk up from the bottom of both stacks, the top frame is compared by function name only
	for i := 1; i < len(e.stack); i++ {
		if cStack[len(cStack)-i] != e.stack[len(e.stack)-i] {
			return e.stack
		}
	}
	if sameFn(cStack[len(cStack)-len(e.stack)], e.stack[0]) {
		return nil
	}
	return e.stack
}

// sameFn ignores line numbers so that
//
// if err := thing(); err != nil {
//   return errors.WithStack(err)
// }
//
// is treated as the same frame.
func sameFn(f1 errors.Frame, f2 errors.Frame) bool {
	return file(f1) == file(f2) && name(f1) == name(f2)
}

func pc(f errors.Frame) uintptr { return uintptr(f) - 1 }

func file(f errors.Frame) string {
	fn := runtime.FuncForPC(pc(f))
	if fn == nil {
		return "unknown"
	}
	file, _ := fn.FileLine(pc(f))
	return file
}

func name(f errors.Frame) string {
	fn := runtime.FuncForPC(pc(f))
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

func (e *stackErr) Unwrap() error { return e.cause }

// nolint:errcheck
func (e *stackErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			if e.cause != nil {
				fmt.Fprintf(s, "%+v", e.cause)
			}
			if e.msg != "" {
				if e.cause != nil {
					io.WriteString(s, "\n")
				}
				fmt.Fprintf(s, "%s", e.msg)
			}
			if stack := e.StackTrace(); stack != nil {
				fmt.Fprintf(s, "%+v", stack)
			}
		} else {
			io.WriteString(s, e.Error())
		}
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type causer interface {
	Cause() error
}
