package expand

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"posh.sh/pkg/ast"
	"posh.sh/pkg/glob"
)

// evalBracedVarSub resolves ${...}, dispatching on PrefixOp/SuffixOp per
// the operator table in §4.H.2-4.
func (e *evaluator) evalBracedVarSub(bv *ast.BracedVarSub, dq bool) (value, error) {
	name := bv.Name
	if bv.Indirect {
		ref, _ := e.lookupScalar(name)
		name = ref
	}

	if bv.PrefixOp == ast.VsLength {
		return substValue(strconv.Itoa(e.paramLength(name)), dq), nil
	}

	isSet, val := e.paramLookup(name)

	switch bv.SuffixOp {
	case ast.VsNone:
		return e.paramScalarValue(name, dq), nil

	case ast.VsMinus, ast.VsMinusEq:
		colon := bv.SuffixOp == ast.VsMinusEq
		if !isSet || (colon && val == "") {
			return e.evalArgWord(bv.Arg, dq)
		}
		return e.paramScalarValue(name, dq), nil

	case ast.VsAssign, ast.VsAssignEq:
		colon := bv.SuffixOp == ast.VsAssignEq
		if !isSet || (colon && val == "") {
			inner, err := e.evalArgWordPart(bv.Arg)
			if err != nil {
				return value{}, err
			}
			e.env.Set(name, flatten(inner))
			if !dq {
				return inner, nil
			}
			return literalValue(flatten(inner), true), nil
		}
		return e.paramScalarValue(name, dq), nil

	case ast.VsQuestion, ast.VsQuestionEq:
		colon := bv.SuffixOp == ast.VsQuestionEq
		if !isSet || (colon && val == "") {
			msg := e.flattenArgWord(bv.Arg)
			if msg == "" {
				msg = name + ": parameter null or not set"
			}
			return value{}, diagExpandErrf(e, bv, "%s", msg)
		}
		return e.paramScalarValue(name, dq), nil

	case ast.VsPlus, ast.VsPlusEq:
		colon := bv.SuffixOp == ast.VsPlusEq
		useAlt := isSet && !(colon && val == "")
		if useAlt {
			return e.evalArgWord(bv.Arg, dq)
		}
		return substValue("", dq), nil

	case ast.VsTrimMin, ast.VsTrimMinMin, ast.VsTrimMax, ast.VsTrimMaxMax:
		pat := glob.Parse(e.flattenArgWord(bv.Arg))
		var res string
		switch bv.SuffixOp {
		case ast.VsTrimMin:
			res = glob.TrimSuffix(val, pat, true)
		case ast.VsTrimMinMin:
			res = glob.TrimSuffix(val, pat, false)
		case ast.VsTrimMax:
			res = glob.TrimPrefix(val, pat, true)
		case ast.VsTrimMaxMax:
			res = glob.TrimPrefix(val, pat, false)
		}
		return substValue(res, dq), nil

	case ast.VsReplaceOne, ast.VsReplaceAll:
		patText, repl := splitPatternReplacement(e.flattenArgWord(bv.Arg))
		pat := glob.Parse(patText)
		var res string
		if bv.SuffixOp == ast.VsReplaceAll {
			res = glob.ReplaceAll(val, pat, repl)
		} else {
			res = glob.ReplaceFirst(val, pat, repl)
		}
		return substValue(res, dq), nil

	case ast.VsSlice:
		res, err := e.paramSlice(bv, val)
		if err != nil {
			return value{}, err
		}
		return substValue(res, dq), nil

	default:
		return value{}, diagExpandErrf(e, bv, "unsupported parameter substitution operator")
	}
}

// splitPatternReplacement separates `pattern/replacement` (or a bare
// `pattern` with the implicit empty replacement) at the first unescaped
// '/'. The pattern operand text has already had its own word parts
// expanded flat by flattenArgWord, so this is a plain byte scan.
func splitPatternReplacement(text string) (pattern, repl string) {
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' {
			i++
			continue
		}
		if text[i] == '/' {
			return text[:i], text[i+1:]
		}
	}
	return text, ""
}

// paramLookup resolves name as either an ordinary/special scalar or as
// "@"/"*" (whose "value" for the purposes of :-/:=/:? null-or-unset tests
// is the positional list's IFS-joined form, and whose "set" is len > 0).
func (e *evaluator) paramLookup(name string) (set bool, value string) {
	switch name {
	case "@", "*":
		pos := e.env.Positional()
		return len(pos) > 0, joinWith(pos, firstIFSByte(e.env.IFS()))
	default:
		v, set := e.lookupScalar(name)
		return set, v
	}
}

func (e *evaluator) paramScalarValue(name string, dq bool) value {
	switch name {
	case "@":
		return e.positionalFields(dq, true)
	case "*":
		return e.positionalFields(dq, false)
	default:
		v, _ := e.lookupScalar(name)
		return substValue(v, dq)
	}
}

func (e *evaluator) paramLength(name string) int {
	switch name {
	case "@", "*":
		return len(e.env.Positional())
	default:
		v, _ := e.lookupScalar(name)
		return utf8.RuneCountInString(v)
	}
}

// evalArgWord evaluates a ${...} operator's argument word. When dq is
// false the argument's internal field/quote structure (e.g. a nested
// double-quoted span inside the default) is spliced straight into the
// enclosing word, exactly as if it had appeared there directly (this is
// what makes `${Unset:-A$var " $var"D}` split $var but not the quoted
// span). When dq is true the whole argument collapses to one literal,
// unsplittable run, per the "quote context propagates into defaults" rule.
func (e *evaluator) evalArgWord(arg ast.WordPart, dq bool) (value, error) {
	inner, err := e.evalArgWordPart(arg)
	if err != nil {
		return value{}, err
	}
	if !dq {
		return inner, nil
	}
	return literalValue(flatten(inner), true), nil
}

// evalArgWordPart evaluates arg at dq == false, unwrapping a Seq (the
// parser's multi-lexeme grouping for this slot) into its parts rather than
// treating it as one opaque unit.
func (e *evaluator) evalArgWordPart(arg ast.WordPart) (value, error) {
	if arg == nil {
		return value{Fields: []field{{}}}, nil
	}
	if seq, ok := arg.(*ast.Seq); ok {
		return e.evalParts(seq.Parts, false, true)
	}
	return e.evalPart(arg, false, true, true)
}

// flattenArgWord computes an argument word's plain text, used for pattern
// operands and the `:=` assigned value, both of which POSIX specifies
// without any field splitting.
func (e *evaluator) flattenArgWord(arg ast.WordPart) string {
	v, err := e.evalArgWordPart(arg)
	if err != nil {
		return ""
	}
	return flatten(v)
}

func (e *evaluator) paramSlice(bv *ast.BracedVarSub, val string) (string, error) {
	off, err := e.evalSliceExpr(bv.SliceOff)
	if err != nil {
		return "", err
	}
	runes := []rune(val)
	n := len(runes)
	if off < 0 {
		off += n
	}
	if off < 0 {
		off = 0
	}
	if off > n {
		off = n
	}
	length := n - off
	if bv.SliceLen != nil {
		l, err := e.evalSliceExpr(bv.SliceLen)
		if err != nil {
			return "", err
		}
		if l < 0 {
			l += n - off
		}
		if l < 0 {
			l = 0
		}
		length = l
	}
	end := off + length
	if end > n {
		end = n
	}
	if end < off {
		end = off
	}
	return string(runes[off:end]), nil
}

// evalSliceExpr parses a slice offset/length operand: POSIX/ksh slice
// bounds are arithmetic expressions, but the parser types them as ordinary
// words (they are lexed in VS_ARG mode, not ARITH mode), so a bare
// `${v:1:2}` reaches here as literal digit text; `${v:$((i)):2}` reaches
// here with an embedded ArithSub part. Either way the flattened text is
// parsed as a (possibly signed) integer.
func (e *evaluator) evalSliceExpr(part ast.WordPart) (int, error) {
	text := strings.TrimSpace(e.flattenArgWord(part))
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, diagExpandErrf(e, part, "invalid slice bound %q", text)
	}
	return n, nil
}
