package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"lnsh/lineedit"
	"lnsh/logging"
	"lnsh/shell"

	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"
)

const (
	usageLine   = "usage: lnsh [-a] [-config path]"
	clearScreen = "\x1b[H\x1b[2J"
)

// Colors for output
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
)

// notifySignals are reported while a line is being edited.
var notifySignals = []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole program. Async mode polls stdin directly; sync mode
// leaves the process stdin to readline.
func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("lnsh", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	async := flags.Bool("a", false, "use the asynchronous edit loop")
	configPath := flags.String("config", "", "config file")

	if err := flags.Parse(args); err != nil || flags.NArg() > 0 {
		fmt.Fprintln(stderr, usageLine)
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logPath := logging.Init(logging.FromEnv("lnsh"))
	defer logging.Sync()
	log := logging.L()

	path, required := *configPath, true
	if path == "" {
		path, required = defaultConfigPath(), false
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		colorRed.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if *async {
		cfg.Async = true
	}
	if cfg.LogLevel != "" && os.Getenv("LOG_LEVEL") == "" {
		lvl, _ := zapcore.ParseLevel(cfg.LogLevel)
		logging.SetLevel(lvl)
	}
	log.Infow("starting", "async", cfg.Async, "config", path, "log", logPath)

	hist := lineedit.NewHistory(cfg.HistoryFile, cfg.HistorySize)
	if err := hist.Load(); err != nil {
		log.Warnw("failed to load history", "file", cfg.HistoryFile, "error", err)
		colorYellow.Fprintf(stderr, "warning: %v\n", err)
	}

	sh := shell.New(shell.NewBuiltinRegistry(), shell.Options{
		Out:     stdout,
		History: hist,
		Logger:  log,
	})

	ctx := context.Background()
	if cfg.Async {
		err = runAsyncTerminal(ctx, cfg, sh, hist, stdin, stdout)
	} else {
		err = runSyncTerminal(ctx, cfg, sh, hist)
	}

	if serr := hist.Save(); serr != nil {
		log.Warnw("failed to save history", "file", cfg.HistoryFile, "error", serr)
		colorYellow.Fprintf(stderr, "warning: %v\n", serr)
	}
	if err != nil {
		log.Errorw("shell terminated", "error", err)
		colorRed.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	log.Infow("bye")
	return 0
}

func runSyncTerminal(ctx context.Context, cfg *Config, sh *shell.Shell, hist *lineedit.History) error {
	ed, err := newReadlineEditor(cfg, sh, hist)
	if err != nil {
		return err
	}
	defer ed.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ed.watchSignals(ctx, notifySignals...)

	sh.SetTerminal(ed)
	return runSync(ed, sh, hist, logging.L())
}

func runAsyncTerminal(ctx context.Context, cfg *Config, sh *shell.Shell, hist *lineedit.History, stdin *os.File, stdout io.Writer) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, notifySignals...)
	defer signal.Stop(sigs)

	d := newAsyncDriver(cfg, sh, hist, stdin, stdout, logging.L())
	d.signals = sigs
	return d.run(ctx)
}
