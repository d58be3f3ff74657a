package expand

import (
	"strconv"

	"posh.sh/pkg/ast"
)

// evalSimpleVarSub resolves the unbraced forms: $name, $1.., $?, $@, $*,
// $#, $$, $!, $0, $-.
func (e *evaluator) evalSimpleVarSub(v *ast.SimpleVarSub, dq bool) (value, error) {
	switch v.Name {
	case "@":
		return e.positionalFields(dq, true), nil
	case "*":
		return e.positionalFields(dq, false), nil
	default:
		val, _ := e.lookupScalar(v.Name)
		return substValue(val, dq), nil
	}
}

// positionalFields expands "$@"/"$*"/$@/$* per §4.H.6: quoted "$@" is the
// one place splitting still yields one field per positional parameter;
// every other combination collapses to (or starts as) a single field
// joined by the first IFS character (defaulting to space).
func (e *evaluator) positionalFields(dq, at bool) value {
	pos := e.env.Positional()
	if at && dq {
		if len(pos) == 0 {
			return value{Fields: []field{{}}}
		}
		fields := make([]field, len(pos))
		for i, s := range pos {
			fields[i] = field{{Text: s, Quoted: true, Split: false}}
		}
		return value{Fields: fields}
	}
	if at && !dq {
		if len(pos) == 0 {
			return value{Fields: nil}
		}
		fields := make([]field, len(pos))
		for i, s := range pos {
			fields[i] = field{{Text: s, Quoted: false, Split: true}}
		}
		return value{Fields: fields}
	}
	sep := firstIFSByte(e.env.IFS())
	joined := joinWith(pos, sep)
	return substValue(joined, dq)
}

func joinWith(ss []string, sep string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

func firstIFSByte(ifs string) string {
	if ifs == "" {
		return ""
	}
	return string(ifs[0])
}

// lookupScalar resolves an ordinary variable name, falling back to the
// special parameters ($?, $$, $!, $#, $0, $-, and $1.. when name is all
// digits) that Env.Get doesn't carry.
func (e *evaluator) lookupScalar(name string) (string, bool) {
	if val, set := e.env.Get(name); set {
		return val, true
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 1 {
		pos := e.env.Positional()
		if n <= len(pos) {
			return pos[n-1], true
		}
		return "", false
	}
	if val, ok := e.env.Special(name); ok {
		return val, true
	}
	return "", false
}
