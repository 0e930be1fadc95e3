package shell

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

var colorRed = color.New(color.FgRed)

// Terminal is the set of editor features that built-in commands can
// toggle. Drivers return errors.ErrUnsupported for features their
// editor lacks.
type Terminal interface {
	ClearScreen() error
	SetMask(on bool) error
	SetMultiLine(on bool) error
	PrintKeyCodes() error
}

// HistoryStore is the persisted input history the history command shows.
type HistoryStore interface {
	Lines() []string
	Save() error
}

// Options configures a Shell.
type Options struct {
	Out      io.Writer
	History  HistoryStore
	Terminal Terminal
	Logger   *zap.SugaredLogger
}

// Shell dispatches input lines to registered commands and computes
// completions for partial lines.
type Shell struct {
	registry *Registry
	out      io.Writer
	history  HistoryStore
	term     Terminal
	log      *zap.SugaredLogger
}

// New creates a shell around reg.
func New(reg *Registry, opts Options) *Shell {
	sh := &Shell{
		registry: reg,
		out:      opts.Out,
		history:  opts.History,
		term:     opts.Terminal,
		log:      opts.Logger,
	}
	if sh.out == nil {
		sh.out = os.Stdout
	}
	if sh.log == nil {
		sh.log = zap.NewNop().Sugar()
	}
	return sh
}

// Registry returns the command table.
func (sh *Shell) Registry() *Registry {
	return sh.registry
}

// Out returns the writer commands print to.
func (sh *Shell) Out() io.Writer {
	return sh.out
}

// SetTerminal binds the editor capabilities of the active driver.
func (sh *Shell) SetTerminal(t Terminal) {
	sh.term = t
}

// Run tokenizes line and invokes the matching command. Unknown commands
// and command failures are reported on the shell output; the only error
// returned is ErrExit.
func (sh *Shell) Run(line string) error {
	args := Tokenize(line)
	if len(args) == 0 {
		return nil
	}

	cmd, ok := sh.registry.Find(args[0])
	if !ok {
		sh.log.Debugw("invalid command", "name", args[0])
		colorRed.Fprintf(sh.out, "invalid command: %s\n", args[0])
		return nil
	}

	return sh.invoke(cmd, args)
}

func (sh *Shell) invoke(cmd *Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sh.log.Errorw("command panicked", "command", cmd.Name, "panic", r)
			colorRed.Fprintf(sh.out, "error: %s: %v\n", cmd.Name, r)
			err = nil
		}
	}()

	sh.log.Debugw("dispatch", "command", cmd.Name, "args", len(args)-1)
	err = cmd.Handler(sh, cmd, args)
	if err == nil || errors.Is(err, ErrExit) {
		return err
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(sh.out, usage.Error())
		return nil
	}

	sh.log.Infow("command failed", "command", cmd.Name, "error", err)
	colorRed.Fprintf(sh.out, "error: %v\n", err)
	return nil
}
