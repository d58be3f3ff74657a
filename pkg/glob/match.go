package glob

// Match reports whether name matches p in its entirety, treating any Slash
// segments in p as ordinary path separators name must also contain (used
// for case-statement patterns and the whole-string match `${v/pattern/x}`
// needs before falling back to substring search).
func (p Pattern) Match(name string) bool {
	return matchElement(p.Segs, name)
}

// matchElement matches name against segs, a run of segments that may
// itself contain Slash (treated just like any other literal-ish boundary
// here; pathname expansion's directory walk is what gives Slash its
// special meaning, in Expand/walk in glob.go).
func matchElement(segs []Seg, name string) bool {
	if len(segs) == 0 {
		return name == ""
	}
outer:
	for len(segs) > 0 {
		i := 1
		for i < len(segs) && segs[i].Kind != Star {
			i++
		}
		chunk := segs[:i]
		startsWithStar := chunk[0].Kind == Star
		if startsWithStar {
			chunk = chunk[1:]
		}
		segs = segs[i:]

		ok, rest := matchFixedRun(chunk, name)
		if ok && (rest == "" || len(segs) > 0) {
			name = rest
			continue
		}
		if startsWithStar {
			candidates := runeBoundaries(name)
			for _, j := range candidates {
				ok, rest := matchFixedRun(chunk, name[j:])
				if ok && (rest == "" || len(segs) > 0) {
					name = rest
					continue outer
				}
			}
		}
		return false
	}
	return name == ""
}

// runeBoundaries returns every byte offset in s that starts a rune,
// including len(s), in ascending order: the candidate split points a
// leading '*' may consume up to.
func runeBoundaries(s string) []int {
	offs := make([]int, 0, len(s)+1)
	offs = append(offs, 0)
	for i := range s {
		if i != 0 {
			offs = append(offs, i)
		}
	}
	offs = append(offs, len(s))
	return offs
}

// matchFixedRun matches a run of fixed-width segments (Literal, Question,
// Bracket, Slash) against a prefix of name, returning the unconsumed
// remainder on success.
func matchFixedRun(segs []Seg, name string) (bool, string) {
	for _, s := range segs {
		switch s.Kind {
		case Literal:
			if len(name) < len(s.Text) || name[:len(s.Text)] != s.Text {
				return false, ""
			}
			name = name[len(s.Text):]
		case Slash:
			if name == "" || name[0] != '/' {
				return false, ""
			}
			name = name[1:]
		case Question, Bracket:
			r, w := decodeFirst(name)
			if w == 0 {
				return false, ""
			}
			if s.Kind == Question {
				name = name[w:]
				continue
			}
			if !s.matchesRune(r) {
				return false, ""
			}
			name = name[w:]
		default:
			return false, ""
		}
	}
	return true, name
}

// split splits segs at Slash boundaries, for the directory walk in Expand.
func split(segs []Seg) [][]Seg {
	var out [][]Seg
	cur := []Seg{}
	for _, s := range segs {
		if s.Kind == Slash {
			out = append(out, cur)
			cur = []Seg{}
			continue
		}
		cur = append(cur, s)
	}
	out = append(out, cur)
	return out
}

func isLiteralRun(segs []Seg) (string, bool) {
	if len(segs) != 1 || segs[0].Kind != Literal {
		return "", false
	}
	return segs[0].Text, true
}
