// Package expand implements POSIX word expansion (§4.H): turning a parsed
// ast.Word into the argv fields a shell would pass to exec, by running
// tilde expansion, parameter/command/arithmetic substitution, field
// splitting, pathname expansion and quote removal over the AST the parser
// (pkg/parser) produced.
//
// Running an actual child process is out of scope (§1's Non-goals): command
// substitution and the execution half of here-docs are reached through the
// Env interface below, so a caller that wires in process execution gets
// full behavior while a caller that only wants static analysis can stub it.
package expand

import "posh.sh/pkg/arena"

// Env is the runtime an expansion is evaluated against: variable storage,
// the positional parameter list, and the two hooks that reach outside pure
// text substitution (running a command, resolving a home directory).
type Env interface {
	// Get returns a scalar variable's value and whether it is set at all
	// (an empty string can be either set-to-empty or unset; callers of
	// ':-'-style operators need to tell those apart).
	Get(name string) (value string, set bool)

	// Set stores a scalar variable, used by the `=`/`:=` assign-default
	// operators.
	Set(name, value string)

	// Positional returns $1.. (never including $0).
	Positional() []string

	// Special returns the value of one of the parameters that aren't
	// ordinary named variables: "$", "?", "!", "#", "0", "-". ok is false
	// for anything Special doesn't recognize.
	Special(name string) (value string, ok bool)

	// IFS returns the current field separator, already defaulted to
	// " \t\n" by the caller if unset.
	IFS() string

	// Home resolves '~' (user == "") or '~user' to a home directory. ok is
	// false if the user is unknown, in which case the tilde-prefix is left
	// untouched per §4.H.1.
	Home(user string) (dir string, ok bool)

	// RunCommand executes src (the command substitution's command list,
	// already reconstructed to source text) and returns its standard
	// output. This is the seam across which real process execution lives;
	// expand never spawns anything itself.
	RunCommand(src string) (output string, err error)

	// Dir returns the directory pathname expansion (§4.H.7) resolves
	// relative patterns against.
	Dir() string

	// NullGlob reports whether a pathname-expansion pattern with no
	// matches should drop out of the field list entirely (true) or be
	// left as the literal pattern text (false, the POSIX default).
	NullGlob() bool
}

// evaluator threads the arena.Arena needed to build diag.Error spans
// through the evaluator without adding it to every function signature.
type evaluator struct {
	a   *arena.Arena
	env Env
}
