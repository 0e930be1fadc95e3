package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"lnsh/lineedit"
	"lnsh/shell"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollResult is one chunk of input, or the error that ended input.
type pollResult struct {
	data []byte
	err  error
}

// asyncDriver runs the shell over incremental edit sessions. Input is
// read by a pump goroutine that only polls when asked to; everything
// else, including signal notices, happens on the goroutine calling run.
type asyncDriver struct {
	prompt   string
	interval time.Duration
	sh       *shell.Shell
	hist     *lineedit.History
	poller   lineedit.Poller
	signals  <-chan os.Signal
	log      *zap.SugaredLogger

	in    io.Reader
	out   io.Writer
	fd    int
	raw   bool
	plain bool
	width func() int

	// carried from one session to the next
	mask      bool
	multiLine bool
	pending   []byte
}

// newAsyncDriver reads from in and draws on out. Unless both are
// terminals, lines are edited without any prompt or redraw.
func newAsyncDriver(cfg *Config, sh *shell.Shell, hist *lineedit.History, in *os.File, out io.Writer, log *zap.SugaredLogger) *asyncDriver {
	d := &asyncDriver{
		prompt:   cfg.Prompt,
		interval: cfg.PollInterval,
		sh:       sh,
		hist:     hist,
		log:      log,
		in:       in,
		out:      out,
		fd:       int(in.Fd()),
	}
	d.poller = lineedit.NewFilePoller(d.fd)
	d.raw = term.IsTerminal(d.fd)
	d.plain = !d.raw || !isTerminal(out)
	d.width = func() int {
		w, _, err := term.GetSize(d.fd)
		if err != nil {
			return 0
		}
		return w
	}
	sh.SetTerminal(d)
	return d
}

// run reads and dispatches lines until end of input, exit, a fatal poll
// error or cancellation of ctx.
func (d *asyncDriver) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := make(chan struct{})
	res := make(chan pollResult)
	go d.pump(ctx, req, res)

	for {
		line, status, err := d.readLine(ctx, req, res)
		if err != nil {
			return err
		}

		switch status {
		case lineedit.FeedEOF:
			d.log.Debugw("end of input")
			return nil
		case lineedit.FeedInterrupt:
			continue
		}

		d.hist.Add(line)
		if err := d.sh.Run(line); errors.Is(err, shell.ErrExit) {
			return nil
		}
	}
}

// pump waits for input each time a request arrives on req. Timeouts and
// interrupted polls are retried here and never reach the driver.
func (d *asyncDriver) pump(ctx context.Context, req <-chan struct{}, res chan<- pollResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
		}

		var r pollResult
		for {
			r.data, r.err = d.poller.Wait(d.interval)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(r.err, lineedit.ErrPollTimeout) {
				continue
			}
			if lineedit.IsTransient(r.err) {
				d.log.Debugw("poll interrupted", "error", r.err)
				continue
			}
			break
		}

		select {
		case res <- r:
		case <-ctx.Done():
			return
		}
	}
}

// readLine runs one edit session from start to close.
func (d *asyncDriver) readLine(ctx context.Context, req chan<- struct{}, res <-chan pollResult) (string, lineedit.FeedStatus, error) {
	log := d.log.With("session", uuid.NewString())

	sess := lineedit.NewSession(lineedit.Config{
		Prompt:    d.prompt,
		Out:       d.out,
		Width:     d.width,
		Complete:  d.sh.Complete,
		History:   d.hist,
		Mask:      d.mask,
		MultiLine: d.multiLine,
		Raw:       d.raw,
		Fd:        d.fd,
		Plain:     d.plain,
	})
	if err := sess.Start(); err != nil {
		return "", lineedit.FeedEOF, err
	}
	log.Debugw("edit session started", "state", sess.State())
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnw("failed to restore terminal", "error", err)
		}
		log.Debugw("edit session closed", "state", sess.State())
	}()

	if len(d.pending) > 0 {
		chunk := d.pending
		d.pending = nil
		if line, status := sess.Feed(chunk); status != lineedit.FeedMore {
			d.pending = sess.Unconsumed()
			return line, status, nil
		}
	}

	requested := false
	for {
		var next chan<- struct{}
		if !requested {
			next = req
		}

		select {
		case next <- struct{}{}:
			requested = true

		case r := <-res:
			requested = false
			if errors.Is(r.err, io.EOF) {
				return "", lineedit.FeedEOF, nil
			}
			if r.err != nil {
				log.Errorw("input failed", "error", r.err)
				return "", lineedit.FeedEOF, r.err
			}
			if line, status := sess.Feed(r.data); status != lineedit.FeedMore {
				d.pending = sess.Unconsumed()
				return line, status, nil
			}

		case sig := <-d.signals:
			log.Infow("signal received", "signal", sig)
			d.notify(sess, sig)

		case <-ctx.Done():
			return "", lineedit.FeedEOF, ctx.Err()
		}
	}
}

// notify prints a signal notice without disturbing the line being
// edited.
func (d *asyncDriver) notify(sess *lineedit.Session, sig os.Signal) {
	sess.Notify(signalNotice(sig))
}

func signalNotice(sig os.Signal) string {
	return "signal received: " + signalName(sig)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func signalName(sig os.Signal) string {
	if s, ok := sig.(syscall.Signal); ok {
		if name := unix.SignalName(s); name != "" {
			return name
		}
	}
	return sig.String()
}

func (d *asyncDriver) ClearScreen() error {
	_, err := io.WriteString(d.out, clearScreen)
	return err
}

// SetMask applies from the next edit session on.
func (d *asyncDriver) SetMask(on bool) error {
	d.mask = on
	return nil
}

func (d *asyncDriver) SetMultiLine(on bool) error {
	d.multiLine = on
	return nil
}

// PrintKeyCodes reads the terminal directly. The pump is idle while a
// command runs, so nothing else is reading.
func (d *asyncDriver) PrintKeyCodes() error {
	if err := lineedit.PrintKeyCodes(d.in, d.out, d.fd); err != nil {
		return fmt.Errorf("key codes: %w", err)
	}
	return nil
}
