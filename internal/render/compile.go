package render

import (
	"errors"
	"strings"

	"github.com/vk/burstmd/internal/block"
	"github.com/vk/burstmd/internal/interp"
	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/script/parser"
)

// compiled is the syntax tree of one block. Both fields are nil for an empty
// interpolation directive.
type compiled struct {
	block block.TemplateBlock
	prog  *ast.Program
	expr  ast.Expression
}

// compile parses every block up front so that syntax errors abort the render
// before anything runs.
func compile(blocks []block.TemplateBlock) ([]compiled, error) {
	out := make([]compiled, len(blocks))
	for i, b := range blocks {
		out[i].block = b
		if b.IsExecution {
			prog, err := parser.ParseProgram(b.Command)
			if err != nil {
				return nil, locate(b, err)
			}
			out[i].prog = prog
			continue
		}
		if strings.TrimSpace(b.Command) == "" {
			continue
		}
		expr, err := parser.ParseExpression(b.Command)
		if err != nil {
			return nil, locate(b, err)
		}
		out[i].expr = expr
	}
	return out, nil
}

// locate maps an error raised inside a directive body to template
// coordinates.
func locate(b block.TemplateBlock, err error) error {
	line, col := b.Line, b.Column
	var pe *parser.Error
	var re *interp.RuntimeError
	switch {
	case errors.As(err, &pe):
		line, col = b.Locate(pe.Line, pe.Column)
	case errors.As(err, &re) && re.Location.Line > 0:
		line, col = b.Locate(re.Location.Line, re.Location.Column)
	}
	return &BlockError{BlockID: b.ID, Kind: b.Kind(), Line: line, Column: col, Err: err}
}
