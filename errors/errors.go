// Package errors provides an error type that carries a gRPC status code, an
// optional client-facing message, and a stack trace captured at the point the
// error was created. It can be used interchangeably with code that expects a
// standard error, and wraps the standard library's Is/As/Unwrap semantics.
//
// Internal error messages are for logs; client responses should only ever see
// the public message, which callers set deliberately via WithPublicMessage.
package errors

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// The maximum number of stack frames captured on any error.
var MaxStackDepth = 50

// Error is an error with an attached stack trace, gRPC status code, and an
// optional public message.
type Error struct {
	Err    error
	stack  []uintptr
	frames []StackFrame
	prefix string

	// gRPC status code to associate with an error response.
	code codes.Code

	// HTTP status code override. Zero means derive from the gRPC code.
	httpStatusCode int

	// Message that is safe to return to clients.
	publicMessage string
}

// New makes an Error from the given value. If that value is already an error
// then it will be used directly, if not, it will be passed to
// fmt.Errorf("%v"). The stack trace will point to the line of code that
// called New.
func New(e interface{}) *Error {
	return newErr(e, codes.Unknown, 1)
}

// NewC makes an Error with a status code defined.
func NewC(e interface{}, code codes.Code) *Error {
	return newErr(e, code, 1)
}

// Codef makes an Error with a status code and a formatted message.
func Codef(code codes.Code, format string, a ...interface{}) *Error {
	return newErr(fmt.Errorf(format, a...), code, 1)
}

// Errorf creates a new error with the given message. Drop-in replacement for
// fmt.Errorf.
func Errorf(format string, a ...interface{}) *Error {
	return newErr(fmt.Errorf(format, a...), codes.Unknown, 1)
}

func newErr(e interface{}, code codes.Code, skip int) *Error {
	var err error
	switch e := e.(type) {
	case error:
		err = e
	default:
		err = fmt.Errorf("%v", e)
	}
	stack := make([]uintptr, MaxStackDepth)
	length := runtime.Callers(2+skip, stack[:])
	return &Error{
		Err:   err,
		stack: stack[:length],
		code:  code,
	}
}

// Wrap makes an Error from the given value. If that value is already an
// *Error it is returned unchanged. The skip parameter indicates how far up
// the stack to start the stack trace. 0 is from the current call, 1 from its
// caller, etc.
func Wrap(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}
	if err, ok := e.(*Error); ok {
		return err
	}
	return newErr(e, codes.Unknown, 1+skip)
}

// WrapPrefix makes an Error from the given value with a message prefix that
// is included when calling Error().
func WrapPrefix(e interface{}, prefix string, skip int) *Error {
	if e == nil {
		return nil
	}
	err := Wrap(e, 1+skip)
	if err.prefix != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, err.prefix)
	}
	return &Error{
		Err:            err.Err,
		stack:          err.stack,
		code:           err.code,
		httpStatusCode: err.httpStatusCode,
		publicMessage:  err.publicMessage,
		prefix:         prefix,
	}
}

// Mark takes an error and sets the stack trace from the point it was called,
// overriding any previous stack trace. Useful for re-raising sentinel errors
// so traces point at the call site rather than the package var.
func Mark(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}
	if err, ok := e.(*Error); ok {
		stack := make([]uintptr, MaxStackDepth)
		length := runtime.Callers(2+skip, stack[:])
		return &Error{
			Err:            err.Err,
			stack:          stack[:length],
			code:           err.code,
			httpStatusCode: err.httpStatusCode,
			publicMessage:  err.publicMessage,
			prefix:         err.prefix,
		}
	}
	return Wrap(e, 1+skip)
}

// WithCode takes an error and adds a gRPC status code to it. If the error is
// not already an *Error, it will be wrapped in one.
func WithCode(err error, code codes.Code) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithCode(code)
}

// WithPublicMessage takes an error and adds a formatted public message to it.
func WithPublicMessage(err error, format string, a ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithPublicMessage(fmt.Sprintf(format, a...))
}

// Is reports whether any error in err's chain matches target. Delegates to
// the standard library.
func Is(err, target error) bool {
	if errors.Is(err, target) {
		return true
	}
	// Also match against the wrapped error when the target itself is an
	// *Error, so sentinel comparisons work in either direction.
	if target, ok := target.(*Error); ok {
		return Is(err, target.Err)
	}
	return false
}

// As finds the first error in err's chain that matches target. Delegates to
// the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Error returns the underlying error's message.
func (err *Error) Error() string {
	msg := err.Err.Error()
	if err.prefix != "" {
		msg = fmt.Sprintf("%s: %s", err.prefix, msg)
	}
	return msg
}

// Append adds additional context to the error message.
func (err *Error) Append(msg string) *Error {
	return &Error{
		Err:            fmt.Errorf("%w: %s", err.Err, msg),
		stack:          err.stack,
		code:           err.code,
		httpStatusCode: err.httpStatusCode,
		publicMessage:  err.publicMessage,
		prefix:         err.prefix,
	}
}

// Unwrap the error (implements api for As/Is functions).
func (err *Error) Unwrap() error {
	return err.Err
}

// Is matches other *Error values that share the same underlying error, so
// sentinels still compare equal after Mark or WrapPrefix re-stamp the stack.
func (err *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t == err || t.Err == err.Err
	}
	return false
}

// Stack returns the callstack formatted the same way that go does in
// runtime/debug.Stack().
func (err *Error) Stack() []byte {
	buf := bytes.Buffer{}
	for _, frame := range err.StackFrames() {
		buf.WriteString(frame.String())
	}
	return buf.Bytes()
}

// ErrorStack returns a string that contains both the error message and the
// callstack.
func (err *Error) ErrorStack() string {
	return err.TypeName() + " " + err.Error() + "\n" + string(err.Stack())
}

// StackFrames returns an array of frames containing information about the
// stack.
func (err *Error) StackFrames() []StackFrame {
	if err.frames == nil {
		err.frames = make([]StackFrame, len(err.stack))
		for i, pc := range err.stack {
			err.frames[i] = NewStackFrame(pc)
		}
	}
	return err.frames
}

// MinimalStack returns a compact rendering of at most n frames, skipping the
// first skip frames. Useful for log fields where a full trace is too noisy.
func (err *Error) MinimalStack(skip, n int) []string {
	frames := err.StackFrames()
	if skip > len(frames) {
		return nil
	}
	frames = frames[skip:]
	if n < len(frames) {
		frames = frames[:n]
	}
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = fmt.Sprintf("%s:%d %s", f.File, f.LineNumber, f.Name)
	}
	return out
}

// TypeName returns the type of this error. e.g. *errors.stringError.
func (err *Error) TypeName() string {
	return reflect.TypeOf(err.Err).String()
}

// Code returns the gRPC status code associated with the error.
func (err *Error) Code() codes.Code {
	return err.code
}

// WithCode sets the gRPC status code associated with the error.
func (err *Error) WithCode(code codes.Code) *Error {
	err.code = code
	return err
}

// HTTPStatusCode returns the HTTP status code that should be returned to the
// client. If an explicit code is set it is used, otherwise a default is
// derived from the gRPC code.
func (err *Error) HTTPStatusCode() int {
	if err.httpStatusCode != 0 {
		return err.httpStatusCode
	}
	switch err.code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WithHTTPStatusCode sets the HTTP status code that should be returned to the
// client.
func (err *Error) WithHTTPStatusCode(code int) *Error {
	err.httpStatusCode = code
	return err
}

// PublicMessage returns the error string that should be returned to the
// client.
func (err *Error) PublicMessage() string {
	if err.publicMessage != "" {
		return err.publicMessage
	}
	return err.Error()
}

// WithPublicMessage sets the error string that should be returned to the
// client.
func (err *Error) WithPublicMessage(publicMessage string) *Error {
	err.publicMessage = publicMessage
	return err
}

// GRPCStatus returns a gRPC status object for the error.
func (err *Error) GRPCStatus() *status.Status {
	return status.New(err.Code(), err.PublicMessage())
}

// Code returns a gRPC status code for an error. If the error is nil, it
// returns codes.OK. If the error exposes a `Code()` method, it is used,
// otherwise codes.Unknown is returned.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var e codedError
	if errors.As(err, &e) {
		return e.Code()
	}
	return codes.Unknown
}

// HTTPStatusCode returns an HTTP status code for an error. If the error is
// nil, it returns http.StatusOK. If the error exposes a `HTTPStatusCode()`
// method, it is used, otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e httpError
	if errors.As(err, &e) {
		return e.HTTPStatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the client-safe message for an error, or a generic
// fallback for plain errors that never declared one.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e publicError
	if errors.As(err, &e) {
		return e.PublicMessage()
	}
	return "An unexpected error occurred"
}

type codedError interface {
	Code() codes.Code
}

type httpError interface {
	HTTPStatusCode() int
}

type publicError interface {
	PublicMessage() string
}
