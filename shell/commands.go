package shell

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpUsageWidth = 30

var helpUsageStyle = lipgloss.NewStyle().Width(helpUsageWidth)

// Builtins returns the built-in command table in presentation order.
func Builtins() []*Command {
	return []*Command{
		{Name: "echo", Usage: "echo string...", Description: "print text", Handler: cmdEcho},
		{Name: "ls", Usage: "ls [path]", Description: "list files", Handler: cmdLs, Complete: CompleteFiles(true)},
		{Name: "pwd", Usage: "pwd", Description: "print working directory", Handler: cmdPwd},
		{Name: "cd", Usage: "cd [path]", Description: "change directory", Handler: cmdCd, Complete: CompleteFiles(true)},
		{Name: "cat", Usage: "cat file...", Description: "show files", Handler: cmdCat, Complete: CompleteFiles(false)},
		{Name: "help", Usage: "help [command]", Description: "get help", Handler: cmdHelp, Complete: completeHelp},
		{Name: "history", Usage: "history", Description: "show history", Handler: cmdHistory},
		{Name: "clear", Usage: "clear", Description: "clear screen", Handler: cmdClear},
		{Name: "keys", Usage: "keys", Description: "show keys", Handler: cmdKeys},
		{Name: "mask", Usage: "mask on|off", Description: "set mask mode", Handler: cmdMask, Complete: CompleteEnum("on", "off")},
		{Name: "multiline", Usage: "multiline on|off", Description: "multiline mode", Handler: cmdMultiLine, Complete: CompleteEnum("on", "off")},
		{Name: "exit", Usage: "exit", Description: "bye bye", Handler: cmdExit},
	}
}

// NewBuiltinRegistry returns a registry holding Builtins.
func NewBuiltinRegistry() *Registry {
	return NewRegistry(Builtins()...)
}

func cmdEcho(sh *Shell, cmd *Command, args []string) error {
	fmt.Fprintln(sh.out, strings.Join(args[1:], " "))
	return nil
}

func cmdLs(sh *Shell, cmd *Command, args []string) error {
	path := "."
	switch len(args) {
	case 1:
	case 2:
		path = args[1]
	default:
		return Usage(cmd)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("ls: %w", err)
	}

	for _, entry := range entries {
		fmt.Fprintf(sh.out, "%c %s\n", typeLetter(entry.Type()), entry.Name())
	}
	return nil
}

// typeLetter gives a one-character file type tag for listings.
func typeLetter(mode fs.FileMode) rune {
	switch {
	case mode.IsDir():
		return 'd'
	case mode&fs.ModeSymlink != 0:
		return 'l'
	case mode&fs.ModeNamedPipe != 0:
		return 'p'
	case mode&fs.ModeSocket != 0:
		return 's'
	case mode&fs.ModeCharDevice != 0:
		return 'c'
	case mode&fs.ModeDevice != 0:
		return 'b'
	case mode.IsRegular():
		return 'f'
	default:
		return '?'
	}
}

func cmdPwd(sh *Shell, cmd *Command, args []string) error {
	if len(args) != 1 {
		return Usage(cmd)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("pwd: %w", err)
	}
	fmt.Fprintln(sh.out, wd)
	return nil
}

func cmdCd(sh *Shell, cmd *Command, args []string) error {
	var path string
	switch len(args) {
	case 1:
		path = os.Getenv("HOME")
		if path == "" {
			path = "/"
		}
	case 2:
		path = args[1]
	default:
		return Usage(cmd)
	}

	if err := os.Chdir(path); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	return nil
}

// cmdCat reports unreadable files one by one and keeps going.
func cmdCat(sh *Shell, cmd *Command, args []string) error {
	if len(args) < 2 {
		return Usage(cmd)
	}

	for _, path := range args[1:] {
		if err := catFile(sh.out, path); err != nil {
			colorRed.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	return nil
}

func catFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func cmdHelp(sh *Shell, cmd *Command, args []string) error {
	switch len(args) {
	case 1:
		for _, c := range sh.registry.List() {
			fmt.Fprintf(sh.out, "%s- %s\n", helpUsageStyle.Render(c.Usage), c.Description)
		}
		return nil
	case 2:
		target, ok := sh.registry.Find(args[1])
		if !ok {
			colorRed.Fprintf(sh.out, "invalid command: %s\n", args[1])
			return nil
		}
		return Usage(target)
	default:
		return Usage(cmd)
	}
}

func cmdHistory(sh *Shell, cmd *Command, args []string) error {
	if len(args) != 1 {
		return Usage(cmd)
	}
	if sh.history == nil {
		return nil
	}

	if err := sh.history.Save(); err != nil {
		sh.log.Warnw("save history", "error", err)
	}
	for i, line := range sh.history.Lines() {
		fmt.Fprintf(sh.out, "%-4d %s\n", i+1, line)
	}
	return nil
}

func cmdClear(sh *Shell, cmd *Command, args []string) error {
	if len(args) != 1 {
		return Usage(cmd)
	}
	return sh.terminal(cmd, func(t Terminal) error { return t.ClearScreen() })
}

func cmdKeys(sh *Shell, cmd *Command, args []string) error {
	if len(args) != 1 {
		return Usage(cmd)
	}
	return sh.terminal(cmd, func(t Terminal) error { return t.PrintKeyCodes() })
}

func cmdMask(sh *Shell, cmd *Command, args []string) error {
	on, err := parseSwitch(cmd, args)
	if err != nil {
		return err
	}
	return sh.terminal(cmd, func(t Terminal) error { return t.SetMask(on) })
}

func cmdMultiLine(sh *Shell, cmd *Command, args []string) error {
	on, err := parseSwitch(cmd, args)
	if err != nil {
		return err
	}
	return sh.terminal(cmd, func(t Terminal) error { return t.SetMultiLine(on) })
}

func parseSwitch(cmd *Command, args []string) (bool, error) {
	if len(args) != 2 {
		return false, Usage(cmd)
	}
	switch args[1] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, Usage(cmd)
	}
}

// terminal runs f against the bound editor, turning a missing feature
// into a one-line notice.
func (sh *Shell) terminal(cmd *Command, f func(Terminal) error) error {
	if sh.term == nil {
		fmt.Fprintf(sh.out, "%s: not supported by this terminal\n", cmd.Name)
		return nil
	}

	err := f(sh.term)
	if errors.Is(err, errors.ErrUnsupported) {
		fmt.Fprintf(sh.out, "%s: not supported by this terminal\n", cmd.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

func cmdExit(sh *Shell, cmd *Command, args []string) error {
	return ErrExit
}
