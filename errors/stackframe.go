package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// StackFrame describes a single frame in a captured stack trace.
type StackFrame struct {
	// File path that contains this frame.
	File string

	// LineNumber in File for this frame.
	LineNumber int

	// Name of the function in this frame.
	Name string

	// Package that contains this function.
	Package string

	ProgramCounter uintptr
}

// NewStackFrame populates a stack frame object from the program counter.
func NewStackFrame(pc uintptr) (frame StackFrame) {
	frame = StackFrame{ProgramCounter: pc}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	frame.Package, frame.Name = packageAndName(fn)

	// pc -1 because the program counters we use are usually return addresses,
	// and we want to show the line that corresponds to the function call.
	frame.File, frame.LineNumber = fn.FileLine(pc - 1)
	return
}

// String returns the stack frame formatted in the same way as go does in
// runtime/debug.Stack().
func (frame *StackFrame) String() string {
	return fmt.Sprintf("%s:%d (0x%x)\n\t%s\n", frame.File, frame.LineNumber, frame.ProgramCounter, frame.Name)
}

func packageAndName(fn *runtime.Func) (string, string) {
	name := fn.Name()
	pkg := ""

	// The name includes the path to the package, which we strip. Since the
	// package path may contain dots (e.g. code.google.com/...), first find the
	// last slash, then the first dot after it.
	if lastslash := strings.LastIndex(name, "/"); lastslash >= 0 {
		pkg += name[:lastslash] + "/"
		name = name[lastslash+1:]
	}
	if period := strings.Index(name, "."); period >= 0 {
		pkg += name[:period]
		name = name[period+1:]
	}

	name = strings.ReplaceAll(name, "·", ".")
	return pkg, name
}
