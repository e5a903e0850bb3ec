package interp

import (
	"errors"
	"fmt"

	"github.com/vk/burstmd/internal/script/ast"
)

// ErrCancelled is returned when the render context is done before a block
// finished. It is checked before every statement and loop iteration.
var ErrCancelled = errors.New("execution cancelled")

// RuntimeError is a fatal evaluation failure located inside a directive body.
// Most type mismatches degrade to null or undefined instead; RuntimeError is
// reserved for calling non-functions, writing constants, exceeding a size or
// depth limit and failures reported by host functions.
type RuntimeError struct {
	Location ast.Location
	Err      error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v", e.Location.Line, e.Location.Column, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func runtimeErr(n ast.Node, format string, args ...any) error {
	return &RuntimeError{Location: n.Loc(), Err: fmt.Errorf(format, args...)}
}

// wrapCallErr attaches the call site to an error raised by a callee, leaving
// cancellation and already located errors untouched.
func wrapCallErr(n ast.Node, err error) error {
	if err == nil || errors.Is(err, ErrCancelled) {
		return err
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Location: n.Loc(), Err: err}
}
