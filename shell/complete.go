package shell

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Completions collects full replacement lines in presentation order.
type Completions struct {
	items []string
}

// Add appends a candidate.
func (c *Completions) Add(line string) {
	c.items = append(c.items, line)
}

// Items returns the candidates added so far.
func (c *Completions) Items() []string {
	return c.items
}

// Len returns the number of candidates.
func (c *Completions) Len() int {
	return len(c.items)
}

// Complete returns replacement candidates for a partially typed line.
//
// With zero or one token the command name is completed. With more, the
// named command's completer decides. A line ending in whitespace counts
// as having started a new, empty token, so "ls" completes the command
// name while "ls " completes its first argument. When nothing matches
// the line itself is the only candidate.
func (sh *Shell) Complete(partial string) []string {
	args := Tokenize(partial)
	if r, _ := utf8.DecodeLastRuneInString(partial); partial != "" && unicode.IsSpace(r) {
		args = append(args, "")
	}

	c := &Completions{}
	if !sh.completeArgs(args, c) {
		c.Add(strings.Join(args, " "))
	}
	return c.Items()
}

func (sh *Shell) completeArgs(args []string, c *Completions) bool {
	if len(args) <= 1 {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		return sh.completeCommandName(prefix, "", c)
	}

	cmd, ok := sh.registry.Find(args[0])
	if !ok {
		return false
	}
	return cmd.Complete(sh, args, c)
}

// completeCommandName adds every command whose name starts with prefix,
// each preceded by lead.
func (sh *Shell) completeCommandName(prefix, lead string, c *Completions) bool {
	found := false
	for _, cmd := range sh.registry.List() {
		if strings.HasPrefix(cmd.Name, prefix) {
			c.Add(lead + cmd.Name)
			found = true
		}
	}
	return found
}
