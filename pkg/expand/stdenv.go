package expand

import (
	"os"
	"os/user"
	"strconv"
)

// MapEnv is a minimal, in-process Env: scalar variables live in a map,
// command substitution is delegated to a caller-supplied function (so
// expand itself never touches exec.Cmd), and Home/Dir fall back to the
// OS's notion of the current user and working directory. It is meant for
// tests and for small tools (cmd/shparse) that want real expansion
// semantics without standing up a full interpreter.
type MapEnv struct {
	Vars        map[string]string
	Pos         []string
	SpecialVars map[string]string
	Run         func(src string) (string, error)
	WorkDir     string
	// Nullglob mirrors Config.NullGlob: when set, a no-match glob pattern
	// drops out of the field list instead of passing through literally.
	Nullglob bool
}

func NewMapEnv() *MapEnv {
	return &MapEnv{
		Vars:        map[string]string{},
		SpecialVars: map[string]string{"#": "0", "?": "0", "$": strconv.Itoa(os.Getpid()), "0": "sh"},
	}
}

func (m *MapEnv) Get(name string) (string, bool) {
	v, ok := m.Vars[name]
	return v, ok
}

func (m *MapEnv) Set(name, value string) {
	m.Vars[name] = value
}

func (m *MapEnv) Positional() []string { return m.Pos }

func (m *MapEnv) Special(name string) (string, bool) {
	if name == "#" {
		return strconv.Itoa(len(m.Pos)), true
	}
	v, ok := m.SpecialVars[name]
	return v, ok
}

func (m *MapEnv) IFS() string {
	if v, ok := m.Vars["IFS"]; ok {
		return v
	}
	return " \t\n"
}

func (m *MapEnv) Home(name string) (string, bool) {
	var u *user.User
	var err error
	if name == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(name)
	}
	if err != nil {
		return "", false
	}
	return u.HomeDir, true
}

func (m *MapEnv) RunCommand(src string) (string, error) {
	if m.Run == nil {
		return "", nil
	}
	return m.Run(src)
}

func (m *MapEnv) NullGlob() bool { return m.Nullglob }

func (m *MapEnv) Dir() string {
	if m.WorkDir != "" {
		return m.WorkDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
