package expand

import (
	"posh.sh/pkg/arena"
	"posh.sh/pkg/ast"
	"posh.sh/pkg/glob"
)

// Word expands w per the full §4.H pipeline (tilde, parameter/command/
// arithmetic substitution, field splitting, pathname expansion, quote
// removal) and returns the resulting argv fields.
func Word(a *arena.Arena, w ast.Word, env Env) ([]string, error) {
	e := &evaluator{a: a, env: env}
	return e.expandWordToStrings(w)
}

// Words expands each word in ws in turn and concatenates the results,
// exactly as a simple command's argument list is built.
func Words(a *arena.Arena, ws []ast.Word, env Env) ([]string, error) {
	e := &evaluator{a: a, env: env}
	var out []string
	for _, w := range ws {
		strs, err := e.expandWordToStrings(w)
		if err != nil {
			return nil, err
		}
		out = append(out, strs...)
	}
	return out, nil
}

// AssignValue expands the right-hand side of a NAME=word assignment: like
// Word, but assignments never field-split or pathname-expand their value
// (§4.E), so the result is the single quote-removed string.
func AssignValue(a *arena.Arena, w ast.Word, env Env) (string, error) {
	e := &evaluator{a: a, env: env}
	v, err := e.expandWordValue(w)
	if err != nil {
		return "", err
	}
	return flatten(v), nil
}

func (e *evaluator) expandWordValue(w ast.Word) (value, error) {
	switch n := w.(type) {
	case *ast.CompoundWord:
		return e.evalParts(n.Parts, false, false)
	case *ast.TokenWord:
		return literalValue(n.Tok.SourceText(), false), nil
	default:
		return value{}, diagExpandErrf(e, w, "unsupported word")
	}
}

func (e *evaluator) expandWordToStrings(w ast.Word) ([]string, error) {
	v, err := e.expandWordValue(w)
	if err != nil {
		return nil, err
	}
	return e.finishFields(v), nil
}

// finishFields runs field splitting and pathname expansion (stages 5 and
// 7) over an already-assembled value, quote removal having already
// happened implicitly (no run ever retains its quote delimiters).
func (e *evaluator) finishFields(v value) []string {
	ifs := e.env.IFS()
	var out []string
	for _, f := range v.Fields {
		for _, sr := range splitField(f, ifs) {
			out = append(out, e.pathnameExpand(sr)...)
		}
	}
	return out
}

func (e *evaluator) pathnameExpand(sr splitResult) []string {
	pat := glob.Parse(sr.GlobText)
	if !pat.HasWild() {
		return []string{sr.Text}
	}
	matches := glob.Expand(pat, e.env.Dir())
	if len(matches) == 0 {
		if e.env.NullGlob() {
			return nil
		}
		return []string{sr.Text}
	}
	return matches
}
