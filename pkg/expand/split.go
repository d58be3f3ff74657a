package expand

import "strings"

type ifsChar struct {
	r        rune
	eligible bool
	quoted   bool
}

// splitResult is one field surviving IFS splitting: Text is its
// quote-removed value, and GlobText is the same value with every
// glob-metacharacter that came from a quoted or escaped source re-escaped,
// so glob.Parse(GlobText) only treats genuinely unquoted `*`/`?`/`[` as
// wildcards (§4.H.7's interaction between quote removal and pathname
// expansion).
type splitResult struct {
	Text     string
	GlobText string
}

// splitField implements §4.H.5 field splitting over one assembled field,
// honoring each run's Split flag: IFS characters inside a non-splittable
// run (quoted text, or literal text outside a ${...} argument) are never
// treated as delimiters, exactly as if that stretch were protected by
// quotes.
//
// The algorithm follows POSIX 2.6.5 rather than a naive strings.FieldsFunc:
// a run of pure IFS white space delimits without producing an empty field,
// while any IFS non-white-space character inside a delimiting run produces
// one (including at the very start or end of the whole value), and two
// adjacent non-white-space IFS characters produce an empty field between
// them.
func splitField(f field, ifs string) []splitResult {
	if ifs == "" {
		return []splitResult{{Text: f.Text(), GlobText: globEscape(f)}}
	}
	ws := ifsWhitespaceSet(ifs)

	var chars []ifsChar
	for _, r := range f {
		for _, c := range r.Text {
			chars = append(chars, ifsChar{c, r.Split, r.Quoted})
		}
	}
	isIFS := func(i int) bool { return chars[i].eligible && strings.ContainsRune(ifs, chars[i].r) }
	isWS := func(i int) bool { return chars[i].eligible && strings.ContainsRune(ws, chars[i].r) }

	n := len(chars)
	i := 0
	for i < n && isWS(i) {
		i++
	}

	var fields []splitResult
	for i < n {
		start := i
		for i < n && !isIFS(i) {
			i++
		}
		fields = append(fields, ifsCharsToResult(chars[start:i]))
		if i >= n {
			break
		}
		sawNonWS := false
		for i < n && isIFS(i) {
			if !isWS(i) {
				if sawNonWS {
					fields = append(fields, splitResult{})
				}
				sawNonWS = true
			}
			i++
		}
		if sawNonWS && i >= n {
			fields = append(fields, splitResult{})
		}
	}
	return fields
}

func ifsCharsToResult(cs []ifsChar) splitResult {
	var text, glob strings.Builder
	for _, c := range cs {
		text.WriteRune(c.r)
		if c.quoted && isGlobMeta(c.r) {
			glob.WriteByte('\\')
		}
		glob.WriteRune(c.r)
	}
	return splitResult{Text: text.String(), GlobText: glob.String()}
}

// globEscape renders a field's text as pattern text suitable for
// glob.Parse, backslash-protecting any glob metacharacter that came from a
// quoted run.
func globEscape(f field) string {
	var b strings.Builder
	for _, r := range f {
		for _, c := range r.Text {
			if r.Quoted && isGlobMeta(c) {
				b.WriteByte('\\')
			}
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isGlobMeta(r rune) bool {
	return r == '*' || r == '?' || r == '[' || r == '\\'
}

// ifsWhitespaceSet returns the subset of ifs that POSIX treats as "IFS
// white space" for collapsing purposes: the characters that are also
// ordinary shell blanks (space, tab, newline).
func ifsWhitespaceSet(ifs string) string {
	var b strings.Builder
	for _, c := range ifs {
		if c == ' ' || c == '\t' || c == '\n' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
