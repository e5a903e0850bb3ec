package render

import (
	"errors"
	"fmt"

	"github.com/vk/burstmd/internal/interp"
	"github.com/vk/burstmd/internal/script/parser"
)

// BlockError is a parse or runtime failure of one directive, located in the
// template rather than in the directive body.
type BlockError struct {
	BlockID int
	// Kind is "execution" or "interpolation".
	Kind   string
	Line   int
	Column int
	Err    error
}

func (e *BlockError) Error() string {
	msg := e.Err.Error()
	var pe *parser.Error
	var re *interp.RuntimeError
	switch {
	case errors.As(e.Err, &pe):
		msg = "syntax error: " + pe.Message
	case errors.As(e.Err, &re):
		msg = re.Err.Error()
	}
	return fmt.Sprintf("%s block %d at line %d, column %d: %s", e.Kind, e.BlockID, e.Line, e.Column, msg)
}

func (e *BlockError) Unwrap() error { return e.Err }
