package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"lnsh/lineedit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type pollStep struct {
	data string
	err  error
}

// chanPoller hands out one step per Wait and reports io.EOF once the
// channel is closed.
type chanPoller struct {
	steps chan pollStep
	calls int
}

func (p *chanPoller) Wait(time.Duration) ([]byte, error) {
	p.calls++
	s, ok := <-p.steps
	if !ok {
		return nil, io.EOF
	}
	return []byte(s.data), s.err
}

func scripted(steps ...pollStep) *chanPoller {
	ch := make(chan pollStep, len(steps))
	for _, s := range steps {
		ch <- s
	}
	close(ch)
	return &chanPoller{steps: ch}
}

type asyncFixture struct {
	d      *asyncDriver
	term   *bytes.Buffer
	out    *bytes.Buffer
	hist   *lineedit.History
	poller *chanPoller
}

func newAsyncFixture(t *testing.T, poller *chanPoller) *asyncFixture {
	t.Helper()
	sh, hist, out := newTestShell(t)

	var termOut bytes.Buffer
	d := &asyncDriver{
		prompt:   "$ ",
		interval: 10 * time.Millisecond,
		sh:       sh,
		hist:     hist,
		poller:   poller,
		log:      zap.NewNop().Sugar(),
		in:       strings.NewReader(""),
		out:      &termOut,
		width:    func() int { return 80 },
	}
	sh.SetTerminal(d)
	return &asyncFixture{d: d, term: &termOut, out: out, hist: hist, poller: poller}
}

func TestAsync_EchoThenExit(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "echo hi\r"},
		pollStep{data: "exit\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "hi\n", f.out.String())
	assert.Equal(t, []string{"echo hi", "exit"}, f.hist.Lines())

	require.NoError(t, f.hist.Save())
	data, err := os.ReadFile(f.hist.File())
	require.NoError(t, err)
	assert.Equal(t, "echo hi\nexit\n", string(data))
}

func TestAsync_SplitChunks(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "ec"},
		pollStep{data: "ho h"},
		pollStep{data: "i\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "hi\n", f.out.String())
}

func TestAsync_SeveralLinesInOneChunk(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "echo one\recho two\rexit\recho three\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "one\ntwo\n", f.out.String())
	assert.Equal(t, 1, f.poller.calls)
}

func TestAsync_EndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		steps []pollStep
	}{
		{name: "ctrl-d", steps: []pollStep{{data: "\x04"}, {data: "echo late\r"}}},
		{name: "closed input", steps: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAsyncFixture(t, scripted(tt.steps...))
			require.NoError(t, f.d.run(context.Background()))
			assert.Empty(t, f.out.String())
		})
	}
}

func TestAsync_InterruptAbandonsLine(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "echo no\x03"},
		pollStep{data: "echo yes\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "yes\n", f.out.String())
	assert.Equal(t, []string{"echo yes"}, f.hist.Lines())
	assert.Contains(t, f.term.String(), "^C")
}

func TestAsync_RetriesTimeoutsAndInterruptedPolls(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{err: lineedit.ErrPollTimeout},
		pollStep{err: &lineedit.PollError{Op: "poll", Err: unix.EINTR}},
		pollStep{err: &lineedit.PollError{Op: "read", Err: unix.EAGAIN}},
		pollStep{data: "echo ok\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "ok\n", f.out.String())
}

func TestAsync_FatalPollError(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "echo partial"},
		pollStep{err: &lineedit.PollError{Op: "poll", Err: unix.EBADF}},
		pollStep{data: "\r"},
	))

	err := f.d.run(context.Background())
	var perr *lineedit.PollError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "poll", perr.Op)
	assert.ErrorIs(t, err, unix.EBADF)
	assert.Empty(t, f.out.String())
}

func TestAsync_SignalKeepsEditState(t *testing.T) {
	steps := make(chan pollStep)
	sigs := make(chan os.Signal)
	f := newAsyncFixture(t, &chanPoller{steps: steps})
	f.d.signals = sigs

	done := make(chan error, 1)
	go func() { done <- f.d.run(context.Background()) }()

	steps <- pollStep{data: "ab"}
	// the pump only polls again after the driver has fed "ab"
	steps <- pollStep{err: lineedit.ErrPollTimeout}
	sigs <- syscall.SIGUSR1
	steps <- pollStep{data: "c\r"}
	close(steps)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not finish")
	}

	assert.Equal(t, "invalid command: abc\n", f.out.String())
	assert.Equal(t, []string{"abc"}, f.hist.Lines())

	term := f.term.String()
	i := strings.Index(term, "signal received: SIGUSR1\n")
	require.GreaterOrEqual(t, i, 0, "notice missing from %q", term)
	assert.Contains(t, term[i:], "$ ab\x1b[0K")
}

func TestAsync_Notify(t *testing.T) {
	f := newAsyncFixture(t, scripted())
	sess := lineedit.NewSession(lineedit.Config{Prompt: "$ ", Out: f.term, Width: f.d.width})
	require.NoError(t, sess.Start())
	_, status := sess.Feed([]byte("hello\x02\x02"))
	require.Equal(t, lineedit.FeedMore, status)
	before := sess.Snapshot()

	f.d.notify(sess, syscall.SIGUSR2)

	assert.Equal(t, before, sess.Snapshot())
	assert.Equal(t, lineedit.StateFeeding, sess.State())
	assert.Contains(t, f.term.String(), "signal received: SIGUSR2\n")
}

func TestAsync_ContextCancel(t *testing.T) {
	steps := make(chan pollStep)
	t.Cleanup(func() { close(steps) })
	f := newAsyncFixture(t, &chanPoller{steps: steps})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.d.run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop")
	}
}

func TestAsync_TerminalCommands(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "mask on\r"},
		pollStep{data: "secret\r"},
		pollStep{data: "mask off\r"},
		pollStep{data: "multiline on\r"},
		pollStep{data: "clear\r"},
	))

	require.NoError(t, f.d.run(context.Background()))
	assert.False(t, f.d.mask)
	assert.True(t, f.d.multiLine)

	term := f.term.String()
	assert.Contains(t, term, "******")
	assert.NotContains(t, term, "secret")
	assert.Contains(t, term, clearScreen)
	assert.Equal(t, "invalid command: secret\n", f.out.String())
}

func TestAsync_KeysReadsInput(t *testing.T) {
	f := newAsyncFixture(t, scripted(pollStep{data: "keys\r"}))
	f.d.in = strings.NewReader("aquit")
	f.d.fd = -1

	require.NoError(t, f.d.run(context.Background()))
	assert.Contains(t, f.term.String(), "'a' 61 (97)")
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGUSR1", signalName(syscall.SIGUSR1))
	assert.Equal(t, "SIGUSR2", signalName(syscall.SIGUSR2))
	assert.Equal(t, "signal received: SIGUSR1", signalNotice(syscall.SIGUSR1))
}

func TestAsync_PlainSession(t *testing.T) {
	f := newAsyncFixture(t, scripted(
		pollStep{data: "echo hi\n"},
		pollStep{data: "exit\n"},
	))
	f.d.plain = true

	require.NoError(t, f.d.run(context.Background()))
	assert.Equal(t, "hi\n", f.out.String())
	assert.Empty(t, f.term.String())
}

func TestNewAsyncDriver_PipeIsPlain(t *testing.T) {
	sh, hist, out := newTestShell(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(); w.Close() })

	d := newAsyncDriver(defaultConfig(), sh, hist, r, out, zap.NewNop().Sugar())
	assert.False(t, d.raw)
	assert.True(t, d.plain)
}
