package expand

import (
	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
)

func diagExpandErrf(e *evaluator, n ast.Node, format string, args ...any) error {
	return diag.New(diag.ExpandError, e.a, n.Start(), format, args...)
}
