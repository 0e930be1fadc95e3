package shell

import (
	"fmt"
	"strings"
)

// Handler runs a command. args[0] is the command name.
type Handler func(sh *Shell, cmd *Command, args []string) error

// Completer adds full-line candidates for a partially typed command line
// and reports whether it produced any. args always holds at least two
// tokens; the last one may be empty.
type Completer func(sh *Shell, args []string, c *Completions) bool

// Command describes one built-in command.
type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     Handler
	Complete    Completer
}

// Registry is the fixed, ordered command table.
type Registry struct {
	cmds []*Command
}

// NewRegistry builds a registry from cmds in order. The table is static,
// so a malformed entry is a programming error and panics.
func NewRegistry(cmds ...*Command) *Registry {
	seen := make(map[string]bool, len(cmds))
	for _, cmd := range cmds {
		if cmd.Name == "" || strings.ContainsAny(cmd.Name, " \t") {
			panic(fmt.Sprintf("shell: invalid command name %q", cmd.Name))
		}
		if seen[cmd.Name] {
			panic(fmt.Sprintf("shell: duplicate command %q", cmd.Name))
		}
		if cmd.Handler == nil {
			panic(fmt.Sprintf("shell: command %q has no handler", cmd.Name))
		}
		if cmd.Complete == nil {
			cmd.Complete = CompleteNone
		}
		seen[cmd.Name] = true
	}
	return &Registry{cmds: cmds}
}

// Find looks up a command by exact name.
func (r *Registry) Find(name string) (*Command, bool) {
	for _, cmd := range r.cmds {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return nil, false
}

// List returns all commands in definition order.
func (r *Registry) List() []*Command {
	out := make([]*Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}
