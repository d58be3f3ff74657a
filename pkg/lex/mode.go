package lex

// Mode names one of the lexer's sub-lexers. The Driver keeps a stack of
// these; the Scanner method invoked for the next token is always the one
// named by the mode on top of the stack.
type Mode int

const (
	ModeOuter Mode = iota
	ModeDQ
	ModeSQ
	ModeArith
	ModeVS1
	ModeVS2
	ModeVSArgUnq
	ModeVSArgDQ
	ModeBashRegex
	ModeHeredocBody
	ModeComment
	ModeBoolTest
)

func (m Mode) String() string {
	switch m {
	case ModeOuter:
		return "OUTER"
	case ModeDQ:
		return "DQ"
	case ModeSQ:
		return "SQ"
	case ModeArith:
		return "ARITH"
	case ModeVS1:
		return "VS_1"
	case ModeVS2:
		return "VS_2"
	case ModeVSArgUnq:
		return "VS_ARG_UNQ"
	case ModeVSArgDQ:
		return "VS_ARG_DQ"
	case ModeBashRegex:
		return "BASH_REGEX"
	case ModeHeredocBody:
		return "HEREDOC_BODY"
	case ModeComment:
		return "COMMENT"
	case ModeBoolTest:
		return "BOOL_TEST"
	default:
		return "?"
	}
}
