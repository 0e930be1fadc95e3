package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"lnsh/lineedit"
	"lnsh/shell"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

// lineReader is the blocking editor driven by the synchronous loop.
type lineReader interface {
	Readline() (string, error)
}

// runSync reads lines until end of input or exit. Ctrl-C abandons the
// current line.
func runSync(r lineReader, sh *shell.Shell, hist *lineedit.History, log *zap.SugaredLogger) error {
	for {
		line, err := r.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			log.Debugw("line interrupted")
			continue
		case errors.Is(err, io.EOF):
			log.Debugw("end of input")
			return nil
		case err != nil:
			return fmt.Errorf("readline: %w", err)
		}

		hist.Add(line)
		if err := sh.Run(line); errors.Is(err, shell.ErrExit) {
			return nil
		}
	}
}

// readlineEditor wraps a readline instance. History is owned by
// lineedit.History; readline only gets a copy for navigation.
type readlineEditor struct {
	rl *readline.Instance
}

func newReadlineEditor(cfg *Config, sh *shell.Shell, hist *lineedit.History) (*readlineEditor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 cfg.Prompt,
		AutoComplete:           &readlineCompleter{sh: sh},
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistoryLimit:           cfg.HistorySize,
		DisableAutoSaveHistory: true,
		HistorySearchFold:      true,
	})
	if err != nil {
		return nil, err
	}

	for _, line := range hist.Lines() {
		_ = rl.SaveHistory(line)
	}
	return &readlineEditor{rl: rl}, nil
}

func (e *readlineEditor) Readline() (string, error) {
	line, err := e.rl.Readline()
	if err == nil && strings.TrimSpace(line) != "" {
		_ = e.rl.SaveHistory(line)
	}
	return line, err
}

func (e *readlineEditor) Close() error {
	return e.rl.Close()
}

// watchSignals prints a notice for every signal while the editor keeps
// the line being typed. readline's Stdout redraws the prompt after each
// write.
func (e *readlineEditor) watchSignals(ctx context.Context, sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				colorYellow.Fprintln(e.rl.Stdout(), signalNotice(sig))
			}
		}
	}()
}

func (e *readlineEditor) ClearScreen() error {
	_, err := io.WriteString(e.rl.Stdout(), clearScreen)
	return err
}

func (e *readlineEditor) SetMask(on bool) error {
	e.rl.Config.EnableMask = on
	return nil
}

func (e *readlineEditor) SetMultiLine(on bool) error {
	return errors.ErrUnsupported
}

// PrintKeyCodes would compete with readline's background reader for
// stdin.
func (e *readlineEditor) PrintKeyCodes() error {
	return errors.ErrUnsupported
}

// readlineCompleter adapts the shell's full-line candidates to the
// suffix form readline.AutoCompleter expects.
type readlineCompleter struct {
	sh *shell.Shell
}

// Do implements readline.AutoCompleter interface
func (c *readlineCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	word := text[strings.LastIndexAny(text, " \t")+1:]

	var suffixes []string
	for _, cand := range c.sh.Complete(text) {
		last := cand[strings.LastIndexAny(cand, " \t")+1:]
		if !strings.HasPrefix(last, word) || last == word {
			continue
		}
		suffixes = append(suffixes, last[len(word):])
	}
	if len(suffixes) == 0 {
		return nil, 0
	}
	return toRuneSlices(suffixes), len([]rune(word))
}

// toRuneSlices converts string completions to rune slices
func toRuneSlices(strs []string) [][]rune {
	result := make([][]rune, len(strs))
	for i, s := range strs {
		result[i] = []rune(s)
	}
	return result
}
