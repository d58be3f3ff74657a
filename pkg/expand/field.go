package expand

import "strings"

// run is a contiguous span of one field's text, tagged with the two bits of
// provenance that later stages need: whether it came from quoting (so it is
// protected from field splitting and pathname expansion) and whether it
// came from an unquoted substitution (so it is eligible for IFS splitting).
// Plain unquoted literal text is Quoted == false, Split == false: it can
// still be matched by pathname expansion (a bare `*` in the source globs),
// it just never contributes a new split point, because the lexer already
// drew word boundaries at every literal blank (§4.H.5 note).
type run struct {
	Text   string
	Quoted bool
	Split  bool
}

// field is one contiguous run sequence: everything that ends up glued
// together before IFS splitting gets a chance to cut it apart.
type field []run

func (f field) Text() string {
	var b strings.Builder
	for _, r := range f {
		b.WriteString(r.Text)
	}
	return b.String()
}

// value is the result of expanding some run of word parts: normally one
// field, but "$@" and array literals introduce genuine field boundaries
// that survive regardless of IFS (§4.H.6).
type value struct {
	Fields []field
}

func oneRun(r run) value { return value{Fields: []field{{r}}} }

func literalValue(text string, quoted bool) value {
	return oneRun(run{Text: text, Quoted: quoted, Split: false})
}

// substValue builds the result of a substitution (variable, command,
// arithmetic): splittable exactly when it is not inside a double-quoted
// context.
func substValue(text string, dq bool) value {
	return oneRun(run{Text: text, Quoted: dq, Split: !dq})
}

// glue implements the POSIX field-joining rule (§4.H.6): only the touching
// ends of adjacent word parts merge into one field; any fields strictly
// between a part's first and last never combine with a neighbor.
func glue(a, b value) value {
	if len(a.Fields) == 0 {
		return b
	}
	if len(b.Fields) == 0 {
		return a
	}
	out := make([]field, 0, len(a.Fields)+len(b.Fields)-1)
	out = append(out, a.Fields[:len(a.Fields)-1]...)
	merged := make(field, 0, len(a.Fields[len(a.Fields)-1])+len(b.Fields[0]))
	merged = append(merged, a.Fields[len(a.Fields)-1]...)
	merged = append(merged, b.Fields[0]...)
	out = append(out, merged)
	out = append(out, b.Fields[1:]...)
	return value{Fields: out}
}

// flatten collapses every field's text into one string, joining fields
// with a single space and ignoring run provenance: used where POSIX wants the substitution
// argument's plain text (a ${..} default assigned with `:=`, a pattern
// operand) rather than its field-split shape.
func flatten(v value) string {
	var b strings.Builder
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Text())
	}
	return b.String()
}
