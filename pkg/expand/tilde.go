package expand

import "posh.sh/pkg/ast"

// evalTilde expands a leading '~' or '~user' (§4.H.1). An unresolvable user
// name is left as literal text, unexpanded, per POSIX's "shall not be
// considered further for expansion" fallback.
func (e *evaluator) evalTilde(t *ast.TildeSub) (value, error) {
	dir, ok := e.env.Home(t.Prefix)
	if !ok {
		return literalValue("~"+t.Prefix, false), nil
	}
	return literalValue(dir, true), nil
}
