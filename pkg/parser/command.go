package parser

import (
	"strconv"
	"strings"

	"posh.sh/pkg/arena"
	"posh.sh/pkg/ast"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/lex"
	"posh.sh/pkg/token"
)

// The command parser (component G) is where reserved words actually
// become reserved: the Scanner never emits token.If/Then/.../Esac, only
// Lit text, exactly as POSIX rule 7b/7c describes ("a word that fits the
// pattern... shall be considered a reserved word only if it is not quoted
// and is one of [the listed words], and occurs as the first word of a
// command or follows an IO redirection/list operator"). It is this
// package's job to recognize those spellings at the grammar positions
// where a reserved word is expected, and nowhere else.

func isKeywordTok(t lex.Tok, words ...string) bool {
	if t.Id != token.Lit || isBlankTok(t) {
		return false
	}
	for _, w := range words {
		if t.Value == w {
			return true
		}
	}
	return false
}

func (p *Parser) peekIsKeyword(words ...string) (bool, error) {
	t, err := p.peek()
	if err != nil {
		return false, p.wrapLexErr(err)
	}
	return isKeywordTok(t, words...), nil
}

// expectKeyword consumes the next token, verifying it is the reserved word
// it names.
func (p *Parser) expectKeyword(word string) (lex.Tok, error) {
	t, err := p.next()
	if err != nil {
		return lex.Tok{}, p.wrapLexErr(err)
	}
	if !isKeywordTok(t, word) {
		return lex.Tok{}, p.errorAt(diag.ParseError, t, "expected %q, found %q", word, t.Raw(p.d.Scanner.Src))
	}
	return t, nil
}

// skipBlankLines consumes any run of NEWLINE/comment tokens, draining
// here-docs after each one (§4.D: the drain point is "the next newline at
// top level").
func (p *Parser) skipBlankLines() error {
	for {
		t, err := p.peek()
		if err != nil {
			return p.wrapLexErr(err)
		}
		switch {
		case isBlankTok(t):
			p.next()
		case t.Id == token.Newline:
			p.next()
			if err := p.drainIfPending(); err != nil {
				return err
			}
		case t.Id == token.Comment:
			p.next()
		default:
			return nil
		}
	}
}

// skipBlanks consumes the single blank-run sentinel token (if any) sitting
// at the front of the stream. Word-level code (parseWord, wordBoundary)
// relies on seeing that token to know a word has ended, so only
// command-grammar code that has already finished with a word calls this
// before inspecting what operator or keyword comes next.
func (p *Parser) skipBlanks() error {
	for {
		t, err := p.peek()
		if err != nil {
			return p.wrapLexErr(err)
		}
		if !isBlankTok(t) {
			return nil
		}
		p.next()
	}
}

func (p *Parser) drainIfPending() error {
	if !p.d.HasPendingHeredocs() {
		return nil
	}
	pending, err := p.d.DrainHeredocs()
	if err != nil {
		return err
	}
	return p.fillHeredocs(pending)
}

// stopSet builds a predicate for parseCommandList: true at EOF or at any
// token whose Id is in ids, or (for reserved-word terminators) whose Lit
// spelling is in words.
func stopSet(ids []token.Id, words []string) func(lex.Tok) bool {
	idSet := make(map[token.Id]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	return func(t lex.Tok) bool {
		if t.Id == token.EOF || idSet[t.Id] {
			return true
		}
		return isKeywordTok(t, words...)
	}
}

// parseCommandList parses a command_list: zero or more sentences, stopping
// (without consuming) at the first token stop reports true for.
func (p *Parser) parseCommandList(stop func(lex.Tok) bool) (*ast.List, error) {
	start := p.mark()
	var children []ast.Command
	for {
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if stop(t) {
			break
		}
		sentence, err := p.parseSentence()
		if err != nil {
			return nil, err
		}
		children = append(children, sentence)
	}
	list := &ast.List{Children: children}
	if len(children) > 0 {
		list.Init(p.sourceTextSince(start), children[0].Start(), children[len(children)-1].End())
	} else {
		t, _ := p.peek()
		sp := t.Span(p.a)
		list.Init(p.sourceTextSince(start), sp, sp)
	}
	return list, nil
}

// parseSentence parses one and_or together with its terminator.
func (p *Parser) parseSentence() (ast.Command, error) {
	start := p.mark()
	child, err := p.parseAndOr()
	if err != nil {
		return nil, err
	}
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	term := ast.TermNone
	switch t.Id {
	case token.Semi:
		p.next()
		term = ast.TermSemicolon
	case token.Amp:
		p.next()
		term = ast.TermAmpersand
	case token.Newline:
		p.next()
		term = ast.TermNewline
		if err := p.drainIfPending(); err != nil {
			return nil, err
		}
	}
	s := &ast.Sentence{Child: child, Terminator: term}
	final := child.End()
	if term != ast.TermNone {
		final = t.Span(p.a)
	}
	s.Init(p.sourceTextSince(start), child.Start(), final)
	return s, nil
}

// parseAndOr parses an and_or list; per invariant 3 a lone pipeline is
// returned unwrapped rather than as a one-child AndOr.
func (p *Parser) parseAndOr() (ast.Command, error) {
	start := p.mark()
	first, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	var children []ast.Command
	var ops []ast.AndOrOp
	children = append(children, first)
	for {
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id != token.AndIf && t.Id != token.OrIf {
			break
		}
		p.next()
		if err := p.skipLineBreak(); err != nil {
			return nil, err
		}
		next, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		ops = append(ops, ast.AndOrOp(t.Id))
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	ao := &ast.AndOr{Children: children, Ops: ops}
	ao.Init(p.sourceTextSince(start), children[0].Start(), children[len(children)-1].End())
	return ao, nil
}

// skipLineBreak consumes any NEWLINEs (and drains here-docs after each) the
// grammar allows between a connective and its right operand.
func (p *Parser) skipLineBreak() error {
	for {
		t, err := p.peek()
		if err != nil {
			return p.wrapLexErr(err)
		}
		if t.Id != token.Newline {
			return nil
		}
		p.next()
		if err := p.drainIfPending(); err != nil {
			return err
		}
	}
}

// parsePipeline parses [!] command (('|'|'|&') linebreak command)*. A
// single, non-negated command is returned unwrapped; a Pipeline node is
// built whenever there is more than one stage or the pipeline is negated
// (the latter is the one place this implementation allows a 1-child
// Pipeline, since Negated has nowhere else to live — see DESIGN.md).
func (p *Parser) parsePipeline() (ast.Command, error) {
	start := p.mark()
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	negated := false
	if t.Id == token.Bang {
		p.next()
		negated = true
	}
	var children []ast.Command
	var stderrIdx []int
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	children = append(children, first)
	for {
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id != token.Pipe && t.Id != token.PipeAmp {
			break
		}
		p.next()
		if t.Id == token.PipeAmp {
			stderrIdx = append(stderrIdx, len(children)-1)
		}
		if err := p.skipLineBreak(); err != nil {
			return nil, err
		}
		next, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 && !negated {
		return first, nil
	}
	pl := &ast.Pipeline{Children: children, Negated: negated, StderrIndices: stderrIdx}
	begin := children[0].Start()
	if negated {
		begin = t.Span(p.a)
	}
	pl.Init(p.sourceTextSince(start), begin, children[len(children)-1].End())
	return pl, nil
}

// parseCommand parses one pipeline stage: a compound command, a function
// definition, or a simple command/assignment, in each case followed by any
// trailing redirections.
func (p *Parser) parseCommand() (ast.Command, error) {
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}

	if isKeywordTok(t, "function") {
		return p.parseFuncDef(true)
	}
	if isFuncDefAhead, err := p.looksLikeFuncDef(); err != nil {
		return nil, err
	} else if isFuncDefAhead {
		return p.parseFuncDef(false)
	}

	switch {
	case t.Id == token.LBrace:
		return p.withRedirs(p.parseBraceGroup)
	case t.Id == token.LParen && t.Value == "((":
		return p.withRedirs(p.parseDParen)
	case t.Id == token.LParen:
		return p.withRedirs(p.parseSubshell)
	case t.Id == token.LDBracket:
		return p.withRedirs(p.parseDBracket)
	case isKeywordTok(t, "for"):
		return p.withRedirs(p.parseFor)
	case isKeywordTok(t, "while"):
		return p.withRedirs(p.parseWhile)
	case isKeywordTok(t, "until"):
		return p.withRedirs(p.parseUntil)
	case isKeywordTok(t, "if"):
		return p.withRedirs(p.parseIf)
	case isKeywordTok(t, "case"):
		return p.withRedirs(p.parseCase)
	}
	return p.parseSimpleOrAssignment()
}

// withRedirs wraps a compound-command constructor, appending any trailing
// redirections to the Redirs field every compound Command type carries.
func (p *Parser) withRedirs(construct func() (ast.Command, error)) (ast.Command, error) {
	cmd, err := construct()
	if err != nil {
		return nil, err
	}
	redirs, err := p.parseRedirList()
	if err != nil {
		return nil, err
	}
	if len(redirs) == 0 {
		return cmd, nil
	}
	switch c := cmd.(type) {
	case *ast.BraceGroup:
		c.Redirs = redirs
	case *ast.Subshell:
		c.Redirs = redirs
	case *ast.DParen:
		c.Redirs = redirs
	case *ast.DBracket:
		c.Redirs = redirs
	case *ast.ForEach:
		c.Redirs = redirs
	case *ast.ForExpr:
		c.Redirs = redirs
	case *ast.While:
		c.Redirs = redirs
	case *ast.Until:
		c.Redirs = redirs
	case *ast.If:
		c.Redirs = redirs
	case *ast.Case:
		c.Redirs = redirs
	case *ast.FuncDef:
		c.Redirs = redirs
	}
	extendBaseWithRedirs(cmd, redirs[len(redirs)-1])
	return cmd, nil
}

// extendBaseWithRedirs re-slices each compound node's Base.Text/Final so
// that trailing redirections attached after its closing keyword are
// included in its own source span, matching what the original text looked
// like at that position.
func extendBaseWithRedirs(cmd ast.Command, last ast.Redir) {
	switch c := cmd.(type) {
	case *ast.BraceGroup:
		c.Final = last.End()
	case *ast.Subshell:
		c.Final = last.End()
	case *ast.DParen:
		c.Final = last.End()
	case *ast.DBracket:
		c.Final = last.End()
	case *ast.ForEach:
		c.Final = last.End()
	case *ast.ForExpr:
		c.Final = last.End()
	case *ast.While:
		c.Final = last.End()
	case *ast.Until:
		c.Final = last.End()
	case *ast.If:
		c.Final = last.End()
	case *ast.Case:
		c.Final = last.End()
	case *ast.FuncDef:
		c.Final = last.End()
	}
}

// looksLikeFuncDef speculatively checks for the POSIX `name()` function
// definition header without committing to consuming it.
func (p *Parser) looksLikeFuncDef() (bool, error) {
	cp := p.mark()
	defer p.restore(cp)
	t, err := p.peek()
	if err != nil {
		return false, p.wrapLexErr(err)
	}
	if t.Id != token.Lit || isBlankTok(t) || !isNameLike(t.Value) {
		return false, nil
	}
	p.next()
	if err := p.skipBlanks(); err != nil {
		return false, err
	}
	t2, err := p.peek()
	if err != nil {
		return false, p.wrapLexErr(err)
	}
	if t2.Id != token.LParen || t2.Value != "(" {
		return false, nil
	}
	p.next()
	if err := p.skipBlanks(); err != nil {
		return false, err
	}
	t3, err := p.peek()
	if err != nil {
		return false, p.wrapLexErr(err)
	}
	return t3.Id == token.RParen, nil
}

func isNameLike(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		ok := b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (i > 0 && b >= '0' && b <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// parseFuncDef parses either spelling of a function definition. keyword
// selects the `function name [()] body` extension; otherwise the POSIX
// `name() body` form is assumed (looksLikeFuncDef already confirmed it).
func (p *Parser) parseFuncDef(keyword bool) (ast.Command, error) {
	start := p.mark()
	if keyword {
		if _, err := p.expectKeyword("function"); err != nil {
			return nil, err
		}
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
	}
	nameTok, err := p.next()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if nameTok.Id != token.Lit || !isNameLike(nameTok.Value) {
		return nil, p.errorAt(diag.ParseError, nameTok, "expected a function name")
	}
	parens := false
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if t.Id == token.LParen && t.Value == "(" {
		p.next()
		if err := p.skipBlanks(); err != nil {
			return nil, err
		}
		closeTok, err := p.next()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if closeTok.Id != token.RParen {
			return nil, p.errorAt(diag.ParseError, closeTok, "expected ')' in function definition")
		}
		parens = true
	}
	if err := p.skipBlankLines(); err != nil {
		return nil, err
	}
	body, err := p.parseFuncBody()
	if err != nil {
		return nil, err
	}
	fd := &ast.FuncDef{Name: nameTok.Value, Keyword: keyword, Parens: parens, Body: body}
	fd.Init(p.sourceTextSince(start), nameTok.Span(p.a), body.End())
	return fd, nil
}

// parseFuncBody parses a function's body: almost always a BraceGroup, but
// POSIX permits any compound command (e.g. `name() ( subshell-body )`).
func (p *Parser) parseFuncBody() (ast.Command, error) {
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	switch {
	case t.Id == token.LBrace:
		return p.withRedirs(p.parseBraceGroup)
	case t.Id == token.LParen && t.Value == "((":
		return p.withRedirs(p.parseDParen)
	case t.Id == token.LParen:
		return p.withRedirs(p.parseSubshell)
	case t.Id == token.LDBracket:
		return p.withRedirs(p.parseDBracket)
	case isKeywordTok(t, "for"):
		return p.withRedirs(p.parseFor)
	case isKeywordTok(t, "while"):
		return p.withRedirs(p.parseWhile)
	case isKeywordTok(t, "until"):
		return p.withRedirs(p.parseUntil)
	case isKeywordTok(t, "if"):
		return p.withRedirs(p.parseIf)
	case isKeywordTok(t, "case"):
		return p.withRedirs(p.parseCase)
	}
	return nil, p.errorAt(diag.ParseError, t, "expected a function body")
}

func (p *Parser) parseBraceGroup() (ast.Command, error) {
	start := p.mark()
	open, err := p.next() // LBrace
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	body, err := p.parseCommandList(stopSet([]token.Id{token.RBrace}, nil))
	if err != nil {
		return nil, err
	}
	closeTok, err := p.next()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id != token.RBrace {
		return nil, p.errorAt(diag.ParseError, closeTok, "expected '}' closing brace group")
	}
	bg := &ast.BraceGroup{Body: body}
	bg.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return bg, nil
}

func (p *Parser) parseSubshell() (ast.Command, error) {
	start := p.mark()
	open, err := p.next() // LParen "("
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeOuter)
	body, err := p.parseCommandList(stopSet([]token.Id{token.RParen}, nil))
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id != token.RParen {
		return nil, p.errorAt(diag.ParseError, closeTok, "expected ')' closing subshell")
	}
	sh := &ast.Subshell{Body: body}
	sh.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return sh, nil
}

func (p *Parser) parseDParen() (ast.Command, error) {
	start := p.mark()
	open, err := p.next() // LParen "(("
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeArith)
	expr, err := p.parseArithExpr(0)
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.closeDoubleParen("(( ))")
	if err != nil {
		return nil, err
	}
	dp := &ast.DParen{Expr: expr}
	dp.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return dp, nil
}

func (p *Parser) parseDBracket() (ast.Command, error) {
	start := p.mark()
	open, err := p.next() // LDBracket
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	p.d.PushMode(lex.ModeBoolTest)
	expr, err := p.parseBoolExpr()
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	if err := p.skipBlanks(); err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.next()
	p.d.PopMode()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if closeTok.Id != token.RDBracket {
		return nil, p.errorAt(diag.ParseError, closeTok, "expected ']]' closing test expression")
	}
	db := &ast.DBracket{Expr: expr}
	db.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return db, nil
}

// parseDoGroup parses `do command_list done`, used by all three loop forms.
func (p *Parser) parseDoGroup() (*ast.DoGroup, error) {
	start := p.mark()
	if err := p.skipBlankLines(); err != nil {
		return nil, err
	}
	openTok, err := p.expectKeyword("do")
	if err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(stopSet(nil, []string{"done"}))
	if err != nil {
		return nil, err
	}
	closeTok, err := p.expectKeyword("done")
	if err != nil {
		return nil, err
	}
	dg := &ast.DoGroup{Body: body}
	dg.Init(p.sourceTextSince(start), openTok.Span(p.a), closeTok.Span(p.a))
	return dg, nil
}

// parseFor dispatches between the POSIX `for name [in words]; do...done`
// form and the `for ((init;cond;update)); do...done` C-style extension,
// distinguished exactly as bash does: a `((` immediately after `for`.
func (p *Parser) parseFor() (ast.Command, error) {
	start := p.mark()
	if _, err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if t.Id == token.LParen && t.Value == "((" {
		return p.finishForExpr(start)
	}
	return p.finishForEach(start)
}

func (p *Parser) finishForEach(start checkpoint) (ast.Command, error) {
	nameTok, err := p.next()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	if nameTok.Id != token.Lit || !isNameLike(nameTok.Value) {
		return nil, p.errorAt(diag.ParseError, nameTok, "expected a name after 'for'")
	}
	if err := p.skipSeparators(); err != nil {
		return nil, err
	}
	fe := &ast.ForEach{IterName: nameTok.Value}
	isIn, err := p.peekIsKeyword("in")
	if err != nil {
		return nil, err
	}
	if isIn {
		p.next()
		for {
			if err := p.skipBlanks(); err != nil {
				return nil, err
			}
			word, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			if word == nil {
				break
			}
			fe.IterWords = append(fe.IterWords, word)
		}
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
	} else {
		fe.DoArgIter = true
	}
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	fe.Body = body
	fe.Init(p.sourceTextSince(start), nameTok.Span(p.a), body.End())
	return fe, nil
}

func (p *Parser) finishForExpr(start checkpoint) (ast.Command, error) {
	p.next() // "((" as a single LParen token
	p.d.PushMode(lex.ModeArith)
	init, err := p.parseOptionalArithClause()
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	if err := p.expectArithSemi(); err != nil {
		p.d.PopMode()
		return nil, err
	}
	cond, err := p.parseOptionalArithClause()
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	if err := p.expectArithSemi(); err != nil {
		p.d.PopMode()
		return nil, err
	}
	update, err := p.parseOptionalArithClause()
	if err != nil {
		p.d.PopMode()
		return nil, err
	}
	closeTok, err := p.closeDoubleParen("for ((;;))")
	if err != nil {
		return nil, err
	}
	if err := p.skipSeparators(); err != nil {
		return nil, err
	}
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	fe := &ast.ForExpr{Init: init, Cond: cond, Update: update, Body: body}
	fe.Base.Init(p.sourceTextSince(start), closeTok.Span(p.a), body.End())
	return fe, nil
}

func (p *Parser) parseOptionalArithClause() (ast.ArithExpr, error) {
	t, isOp, err := p.arithPeekOp()
	if err != nil {
		return nil, err
	}
	if isOp && t.Value == ";" {
		return nil, nil
	}
	return p.parseArithComma()
}

func (p *Parser) expectArithSemi() error {
	t, err := p.next()
	if err != nil {
		return p.wrapLexErr(err)
	}
	if t.Id != token.ArithOp || t.Value != ";" {
		return p.errorAt(diag.ParseError, t, "expected ';' in for ((;;))")
	}
	return nil
}

// skipSeparators consumes the ';'/NEWLINE run the grammar allows between a
// loop/if header clause and its body keyword.
func (p *Parser) skipSeparators() error {
	for {
		t, err := p.peek()
		if err != nil {
			return p.wrapLexErr(err)
		}
		if isBlankTok(t) {
			p.next()
			continue
		}
		if t.Id == token.Semi {
			p.next()
			continue
		}
		if t.Id == token.Newline {
			p.next()
			if err := p.drainIfPending(); err != nil {
				return err
			}
			continue
		}
		if t.Id == token.Comment {
			p.next()
			continue
		}
		return nil
	}
}

func (p *Parser) parseWhile() (ast.Command, error) {
	return p.parseWhileUntil(false)
}

func (p *Parser) parseUntil() (ast.Command, error) {
	return p.parseWhileUntil(true)
}

func (p *Parser) parseWhileUntil(until bool) (ast.Command, error) {
	start := p.mark()
	kw := "while"
	if until {
		kw = "until"
	}
	if _, err := p.expectKeyword(kw); err != nil {
		return nil, err
	}
	cond, err := p.parseCommandList(stopSet(nil, []string{"do"}))
	if err != nil {
		return nil, err
	}
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	if until {
		u := &ast.Until{Cond: cond, Body: body}
		u.Init(p.sourceTextSince(start), cond.Start(), body.End())
		return u, nil
	}
	w := &ast.While{Cond: cond, Body: body}
	w.Init(p.sourceTextSince(start), cond.Start(), body.End())
	return w, nil
}

func (p *Parser) parseIf() (ast.Command, error) {
	start := p.mark()
	var arms []ast.IfArm
	armStart := p.mark()
	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	for {
		cond, err := p.parseCommandList(stopSet(nil, []string{"then"}))
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		body, err := p.parseCommandList(stopSet(nil, []string{"elif", "else", "fi"}))
		if err != nil {
			return nil, err
		}
		arm := ast.IfArm{Cond: cond, Body: body}
		arm.Init(p.sourceTextSince(armStart), cond.Start(), body.End())
		arms = append(arms, arm)
		isElif, err := p.peekIsKeyword("elif")
		if err != nil {
			return nil, err
		}
		if !isElif {
			break
		}
		armStart = p.mark()
		p.next() // consume 'elif' (re-used as the next arm's "if")
	}
	var elseBody *ast.List
	isElse, err := p.peekIsKeyword("else")
	if err != nil {
		return nil, err
	}
	if isElse {
		p.next()
		elseBody, err = p.parseCommandList(stopSet(nil, []string{"fi"}))
		if err != nil {
			return nil, err
		}
	}
	closeTok, err := p.expectKeyword("fi")
	if err != nil {
		return nil, err
	}
	iff := &ast.If{Arms: arms, Else: elseBody}
	iff.Init(p.sourceTextSince(start), arms[0].Start(), closeTok.Span(p.a))
	return iff, nil
}

func (p *Parser) parseCase() (ast.Command, error) {
	start := p.mark()
	if _, err := p.expectKeyword("case"); err != nil {
		return nil, err
	}
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	toMatch, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	if toMatch == nil {
		t, _ := p.peek()
		return nil, p.errorAt(diag.ParseError, t, "expected a word to match in case statement")
	}
	if err := p.skipSeparators(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	if err := p.skipBlankLines(); err != nil {
		return nil, err
	}
	var arms []ast.CaseArm
	for {
		isEsac, err := p.peekIsKeyword("esac")
		if err != nil {
			return nil, err
		}
		if isEsac {
			break
		}
		arm, err := p.parseCaseArm()
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm)
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
	}
	closeTok, err := p.expectKeyword("esac")
	if err != nil {
		return nil, err
	}
	c := &ast.Case{ToMatch: toMatch, Arms: arms}
	begin := toMatch.Start()
	c.Init(p.sourceTextSince(start), begin, closeTok.Span(p.a))
	return c, nil
}

func (p *Parser) parseCaseArm() (ast.CaseArm, error) {
	start := p.mark()
	t, err := p.peek()
	if err != nil {
		return ast.CaseArm{}, p.wrapLexErr(err)
	}
	if t.Id == token.LParen && t.Value == "(" {
		p.next()
	}
	var patterns []ast.Word
	for {
		if err := p.skipBlanks(); err != nil {
			return ast.CaseArm{}, err
		}
		word, err := p.parseWord()
		if err != nil {
			return ast.CaseArm{}, err
		}
		if word == nil {
			t, _ := p.peek()
			return ast.CaseArm{}, p.errorAt(diag.ParseError, t, "expected a case pattern")
		}
		patterns = append(patterns, word)
		if err := p.skipBlanks(); err != nil {
			return ast.CaseArm{}, err
		}
		next, err := p.peek()
		if err != nil {
			return ast.CaseArm{}, p.wrapLexErr(err)
		}
		if next.Id == token.Pipe {
			p.next()
			continue
		}
		break
	}
	if err := p.skipBlanks(); err != nil {
		return ast.CaseArm{}, err
	}
	closeTok, err := p.next()
	if err != nil {
		return ast.CaseArm{}, p.wrapLexErr(err)
	}
	if closeTok.Id != token.RParen {
		return ast.CaseArm{}, p.errorAt(diag.ParseError, closeTok, "expected ')' after case pattern")
	}
	body, err := p.parseCommandList(stopSet([]token.Id{token.DSemi, token.SemiAmp, token.DSemiAmp}, []string{"esac"}))
	if err != nil {
		return ast.CaseArm{}, err
	}
	term := ast.CaseBreak
	final := closeTok.Span(p.a)
	if len(body.Children) > 0 {
		final = body.End()
	}
	termTok, err := p.peek()
	if err != nil {
		return ast.CaseArm{}, p.wrapLexErr(err)
	}
	switch termTok.Id {
	case token.DSemi:
		p.next()
		term = ast.CaseBreak
		final = termTok.Span(p.a)
	case token.SemiAmp:
		p.next()
		term = ast.CaseFallthrough
		final = termTok.Span(p.a)
	case token.DSemiAmp:
		p.next()
		term = ast.CaseContinue
		final = termTok.Span(p.a)
	}
	arm := ast.CaseArm{PatList: patterns, Body: body, Terminator: term}
	arm.Init(p.sourceTextSince(start), patterns[0].Start(), final)
	return arm, nil
}

// isRedirOpId reports whether id is a redirection operator token.
func isRedirOpId(id token.Id) bool {
	switch id {
	case token.Less, token.Great, token.DLess, token.DLessDash, token.DGreat,
		token.LessAnd, token.GreatAnd, token.LessGreat, token.Clobber:
		return true
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// tryParseRedirect speculatively parses one redirection, returning
// (nil, nil) if the next token(s) do not start one.
func (p *Parser) tryParseRedirect() (ast.Redir, error) {
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	start := p.mark()
	t, err := p.peek()
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	fd := -1
	opTok := t
	if t.Id == token.Lit && !isBlankTok(t) && isAllDigits(t.Value) {
		cp := p.mark()
		p.next()
		t2, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if !isRedirOpId(t2.Id) {
			p.restore(cp)
			return nil, nil
		}
		n, _ := strconv.Atoi(t.Value)
		fd = n
		opTok = t2
	} else if !isRedirOpId(t.Id) {
		return nil, nil
	}
	if opTok.Id == token.DLess || opTok.Id == token.DLessDash {
		return p.parseHeredocOpener(start, fd, opTok)
	}
	p.next() // consume the operator
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	word, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	if word == nil {
		t3, _ := p.peek()
		return nil, p.errorAt(diag.ParseError, t3, "expected a word after redirection operator %q", opTok.Raw(p.d.Scanner.Src))
	}
	r := &ast.Redirect{Op: ast.RedirectOp(opTok.Id), Arg: word, Fd: fd}
	r.Init(p.sourceTextSince(start), opTok.Span(p.a), word.End())
	return r, nil
}

func (p *Parser) parseRedirList() ([]ast.Redir, error) {
	var redirs []ast.Redir
	for {
		r, err := p.tryParseRedirect()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return redirs, nil
		}
		redirs = append(redirs, r)
	}
}

// heredocDelimText performs quote removal on a here-doc delimiter word and
// reports whether any of it was quoted (which per POSIX disables expansion
// of the body).
func heredocDelimText(w ast.Word) (string, bool) {
	cw, ok := w.(*ast.CompoundWord)
	if !ok {
		return w.SourceText(), false
	}
	var b strings.Builder
	quoted := false
	var walk func(parts []ast.WordPart)
	walk = func(parts []ast.WordPart) {
		for _, part := range parts {
			switch v := part.(type) {
			case *ast.Literal:
				b.WriteString(v.Tok.SourceText())
			case *ast.EscapedLiteral:
				quoted = true
				b.WriteRune(v.Char)
			case *ast.SingleQuoted:
				quoted = true
				b.WriteString(v.Value)
			case *ast.DoubleQuoted:
				quoted = true
				walk(v.Parts)
			default:
				b.WriteString(part.SourceText())
			}
		}
	}
	walk(cw.Parts)
	return b.String(), quoted
}

func (p *Parser) parseHeredocOpener(start checkpoint, fd int, opTok lex.Tok) (ast.Redir, error) {
	p.next() // consume << or <<-
	if err := p.skipBlanks(); err != nil {
		return nil, err
	}
	delimWord, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	if delimWord == nil {
		t, _ := p.peek()
		return nil, p.errorAt(diag.ParseError, t, "expected a here-doc delimiter")
	}
	text, quoted := heredocDelimText(delimWord)
	hd := &ast.HereDoc{Op: opTok.Id, Fd: fd, DoExpansion: !quoted, HereEnd: text}
	hd.Init(p.sourceTextSince(start), opTok.Span(p.a), delimWord.End())
	p.d.ScheduleHeredoc(hd, text, opTok.Id == token.DLessDash, quoted)
	return hd, nil
}

// tryParseAssignWord speculatively parses a NAME=word prefix assignment;
// returns ok=false, consuming nothing, if the next tokens do not match.
func (p *Parser) tryParseAssignWord() (ast.EnvPair, bool, error) {
	if err := p.skipBlanks(); err != nil {
		return ast.EnvPair{}, false, err
	}
	cp := p.mark()
	t, err := p.peek()
	if err != nil {
		return ast.EnvPair{}, false, p.wrapLexErr(err)
	}
	if t.Id != token.Lit || isBlankTok(t) {
		return ast.EnvPair{}, false, nil
	}
	idx := strings.IndexByte(t.Value, '=')
	if idx <= 0 || !isNameLike(t.Value[:idx]) {
		return ast.EnvPair{}, false, nil
	}
	p.next()
	name := t.Value[:idx]
	valueStart := t.Value[idx+1:]

	if valueStart == "" {
		if nt, err := p.peek(); err != nil {
			return ast.EnvPair{}, false, p.wrapLexErr(err)
		} else if nt.Id == token.LParen && nt.Value == "(" {
			arr, err := p.parseArrayLiteral()
			if err != nil {
				return ast.EnvPair{}, false, err
			}
			cw := &ast.CompoundWord{Parts: []ast.WordPart{arr}}
			cw.Init(arr.SourceText(), arr.Start(), arr.End())
			pair := ast.EnvPair{Name: name, Value: cw}
			pair.Init(p.sourceTextSince(cp), t.Span(p.a), cw.End())
			return pair, true, nil
		}
	}

	// The rest of the value (if any) continues as ordinary word_parts
	// immediately following, with valueStart as the first literal chunk.
	var parts []ast.WordPart
	if valueStart != "" {
		lit := &ast.Literal{Tok: ast.NewToken(token.Lit, valueStart, t.Span(p.a))}
		lit.Init(valueStart, t.Span(p.a), t.Span(p.a))
		parts = append(parts, lit)
	}
	for {
		nt, err := p.peek()
		if err != nil {
			return ast.EnvPair{}, false, p.wrapLexErr(err)
		}
		if wordBoundary(nt) {
			break
		}
		part, err := p.parseWordPart()
		if err != nil {
			return ast.EnvPair{}, false, err
		}
		if part == nil {
			break
		}
		parts = append(parts, part)
	}
	pair := ast.EnvPair{Name: name}
	final := t.Span(p.a)
	if len(parts) > 0 {
		cw := &ast.CompoundWord{Parts: parts}
		cw.Init(p.sourceTextSince(cp), parts[0].Start(), parts[len(parts)-1].End())
		pair.Value = cw
		final = cw.End()
	} else {
		empty := &ast.CompoundWord{}
		empty.Init("", t.Span(p.a), t.Span(p.a))
		pair.Value = empty
	}
	pair.Init(p.sourceTextSince(cp), t.Span(p.a), final)
	return pair, true, nil
}

// parseArrayLiteral parses the `( word... )` right-hand side of an
// assignment (§3's ArrayLiteral word_part). The opening '(' has already
// been peeked, not consumed, by the caller. Words may be spread across
// several lines; skipBlankLines between elements mirrors bash's own
// leniency here.
func (p *Parser) parseArrayLiteral() (*ast.ArrayLiteral, error) {
	start := p.mark()
	open, err := p.next() // LParen "("
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	var words []ast.Word
	for {
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
		t, err := p.peek()
		if err != nil {
			return nil, p.wrapLexErr(err)
		}
		if t.Id == token.RParen {
			break
		}
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, p.errorAt(diag.ParseError, t, "expected a word or ')' in array literal")
		}
		words = append(words, w)
	}
	closeTok, err := p.next() // RParen ")"
	if err != nil {
		return nil, p.wrapLexErr(err)
	}
	arr := &ast.ArrayLiteral{Words: words}
	arr.Init(p.sourceTextSince(start), open.Span(p.a), closeTok.Span(p.a))
	return arr, nil
}

// parseSimpleOrAssignment parses a simple_command: leading assignments
// interleaved with redirections, then (if any word follows) the command
// name, arguments, and any further redirections, in original source
// order within Redirs. Per §4.G, if no command name follows, the result
// is an Assignment rather than a Simple with an empty Words slice.
func (p *Parser) parseSimpleOrAssignment() (ast.Command, error) {
	start := p.mark()
	var assigns []ast.EnvPair
	var words []ast.Word
	var redirs []ast.Redir
	sawCmdWord := false
	for {
		redir, err := p.tryParseRedirect()
		if err != nil {
			return nil, err
		}
		if redir != nil {
			redirs = append(redirs, redir)
			continue
		}
		if !sawCmdWord {
			pair, ok, err := p.tryParseAssignWord()
			if err != nil {
				return nil, err
			}
			if ok {
				assigns = append(assigns, pair)
				continue
			}
		}
		word, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		if word == nil {
			break
		}
		words = append(words, word)
		sawCmdWord = true
	}
	if len(words) == 0 {
		switch {
		case len(assigns) == 0 && len(redirs) == 0:
			t, _ := p.peek()
			return nil, p.errorAt(diag.ParseError, t, "expected a command")
		case len(assigns) > 0:
			a := &ast.Assignment{Pairs: assigns, Redirs: redirs}
			p.initFromParts(&a.Base, start, assigns, redirs)
			return a, nil
		default:
			// Only redirections, no assignment and no command word (e.g.
			// `> file`): POSIX still treats this as a simple command.
			s := &ast.Simple{Redirs: redirs}
			s.Init(p.sourceTextSince(start), redirs[0].Start(), redirs[len(redirs)-1].End())
			return s, nil
		}
	}
	var begin, final arena.Span
	switch {
	case len(assigns) > 0:
		begin = assigns[0].Start()
	default:
		begin = words[0].Start()
	}
	switch {
	case len(redirs) > 0:
		final = redirs[len(redirs)-1].End()
	case len(words) > 0:
		final = words[len(words)-1].End()
	default:
		final = assigns[len(assigns)-1].End()
	}
	s := &ast.Simple{Assigns: assigns, Words: words, Redirs: redirs}
	s.Init(p.sourceTextSince(start), begin, final)
	return s, nil
}

// initFromParts fills in an Assignment's Base span: unlike Simple, it has
// no Words to fall back on, so its last EnvPair or Redir (whichever comes
// later in source) determines the end.
func (p *Parser) initFromParts(b *ast.Base, start checkpoint, assigns []ast.EnvPair, redirs []ast.Redir) {
	begin := assigns[0].Start()
	final := assigns[len(assigns)-1].End()
	if len(redirs) > 0 {
		final = redirs[len(redirs)-1].End()
	}
	b.Init(p.sourceTextSince(start), begin, final)
}
