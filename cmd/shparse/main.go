// Command shparse is a small driver over the parser, pretty-printer and
// word-expansion engine: it parses a script, reports any diagnostic, and
// optionally dumps the AST or runs the expansion engine over each simple
// command's argument words.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/xerrors"

	"posh.sh/pkg/ast"
	"posh.sh/pkg/config"
	"posh.sh/pkg/diag"
	"posh.sh/pkg/expand"
	"posh.sh/pkg/lsp"
	"posh.sh/pkg/parser"
	"posh.sh/pkg/pprint"
	"posh.sh/pkg/sysutil"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shparse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dumpAST := fs.Bool("ast", false, "dump the parsed AST instead of running expansion")
	doExpand := fs.Bool("expand", false, "expand each simple command's words and print the resulting argv")
	lspFlag := fs.Bool("lsp", false, "run as a language server over stdin/stdout instead of parsing a file")
	configPath := fs.String("config", "", "path to a YAML config file (defaults unless given)")
	cachePath := fs.String("cache", "", "path to an astcache database backing -lsp")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		cfg = loaded
	}

	if *lspFlag {
		var closer io.Closer = io.NopCloser(nil)
		if c, ok := stdin.(io.Closer); ok {
			closer = c
		}
		rw := struct {
			io.Reader
			io.Writer
			io.Closer
		}{stdin, stdout, closer}
		if err := lsp.Serve(context.Background(), rw, *cachePath); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	src, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	res, perr := parser.New("<stdin>", string(src)).Parse()
	if perr != nil {
		printDiag(stderr, perr)
		return exitCodeFor(perr)
	}

	switch {
	case *dumpAST:
		pprint.Tree(stdout, res.Root)
	case *doExpand:
		env := expand.NewMapEnv()
		env.Set("IFS", cfg.IFS)
		env.Nullglob = cfg.NullGlob
		if err := runExpand(stdout, res, env); err != nil {
			printDiag(stderr, err)
			return 1
		}
	default:
		pprint.Verbatim(stdout, res.Root)
	}
	return 0
}

// exitCodeFor returns 2 for a lex/parse syntax error and 1 for any other
// diagnostic, matching the shell convention of a distinct syntax-error
// status.
func exitCodeFor(err error) int {
	var derr *diag.Error
	if xerrors.As(err, &derr) {
		switch derr.Kind {
		case diag.LexError, diag.ParseError:
			return 2
		}
	}
	return 1
}

// printDiag renders a diagnostic to w, using terminal introspection (when w
// is a real *os.File) to decide whether to color the header and how wide
// to wrap the offending source line.
func printDiag(w io.Writer, err error) {
	if derr, ok := err.(*diag.Error); ok {
		width, color := 0, false
		if f, ok := w.(*os.File); ok {
			color = sysutil.IsATTY(f.Fd())
			width = sysutil.TerminalWidth(f, 0)
		}
		fmt.Fprintln(w, derr.ShowStyled(width, color))
		return
	}
	if shower, ok := err.(diag.Shower); ok {
		fmt.Fprintln(w, shower.Show())
		return
	}
	fmt.Fprintln(w, err)
}

func runExpand(w io.Writer, res *parser.Result, env expand.Env) error {
	for _, cmd := range collectSimple(res.Root) {
		argv, err := expand.Words(res.Arena, cmd.Words, env)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, argv)
	}
	return nil
}

// collectSimple walks lists, sentences, and-or lists, pipelines, brace
// groups and subshells and returns the simple commands found there in
// source order, so -expand can run word expansion over each one's argument
// list. Simple commands inside if/case/for/while/until bodies and function
// definitions are not visited.
func collectSimple(root ast.Command) []*ast.Simple {
	var out []*ast.Simple
	var walk func(ast.Command)
	walk = func(n ast.Command) {
		switch c := n.(type) {
		case *ast.List:
			for _, ch := range c.Children {
				walk(ch)
			}
		case *ast.Sentence:
			walk(c.Child)
		case *ast.AndOr:
			for _, ch := range c.Children {
				walk(ch)
			}
		case *ast.Pipeline:
			for _, ch := range c.Children {
				walk(ch)
			}
		case *ast.BraceGroup:
			walk(c.Body)
		case *ast.Subshell:
			walk(c.Body)
		case *ast.Simple:
			out = append(out, c)
		}
	}
	walk(root)
	return out
}
