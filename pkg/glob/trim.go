package glob

import "strings"

// TrimPrefix removes a prefix of s matching p, per the `#`/`##` operators
// (§4.H.4): shortest == true implements `#` (shortest matching prefix),
// false implements `##` (longest).
func TrimPrefix(s string, p Pattern, shortest bool) string {
	best := -1
	for i := 0; i <= len(s); i++ {
		if i > 0 && !isRuneBoundary(s, i) {
			continue
		}
		if p.Match(s[:i]) {
			best = i
			if shortest {
				break
			}
		}
	}
	if best < 0 {
		return s
	}
	return s[best:]
}

// TrimSuffix removes a suffix of s matching p, per the `%`/`%%` operators:
// shortest == true implements `%`, false implements `%%`.
func TrimSuffix(s string, p Pattern, shortest bool) string {
	best := -1
	if shortest {
		for i := len(s); i >= 0; i-- {
			if i < len(s) && !isRuneBoundary(s, i) {
				continue
			}
			if p.Match(s[i:]) {
				best = i
				break
			}
		}
	} else {
		for i := 0; i <= len(s); i++ {
			if i > 0 && !isRuneBoundary(s, i) {
				continue
			}
			if p.Match(s[i:]) {
				best = i
				break
			}
		}
	}
	if best < 0 {
		return s
	}
	return s[:best]
}

// ReplaceFirst implements the `/pattern/string` operator: the first
// (leftmost, then longest at that position) match of p in s is replaced by
// repl.
func ReplaceFirst(s string, p Pattern, repl string) string {
	start, end := findFirst(s, p)
	if start < 0 {
		return s
	}
	return s[:start] + repl + s[end:]
}

// ReplaceAll implements the `//pattern/string` operator: every
// non-overlapping match of p is replaced by repl.
func ReplaceAll(s string, p Pattern, repl string) string {
	var b strings.Builder
	for {
		start, end := findFirst(s, p)
		if start < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:start])
		b.WriteString(repl)
		if end == start {
			// Avoid an infinite loop on a pattern that matches the empty
			// string: advance past one rune (or byte, at EOF-adjacent
			// malformed UTF-8) before resuming the search.
			if end < len(s) {
				_, w := decodeFirst(s[end:])
				if w == 0 {
					w = 1
				}
				b.WriteString(s[end : end+w])
				end += w
			}
		}
		s = s[end:]
		if s == "" {
			break
		}
	}
	return b.String()
}

// findFirst finds the leftmost, longest match of p anywhere in s.
func findFirst(s string, p Pattern) (start, end int) {
	for i := 0; i <= len(s); i++ {
		if i > 0 && !isRuneBoundary(s, i) {
			continue
		}
		for j := len(s); j >= i; j-- {
			if j < len(s) && !isRuneBoundary(s, j) {
				continue
			}
			if p.Match(s[i:j]) {
				return i, j
			}
		}
	}
	return -1, -1
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}
