package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"lnsh/lineedit"
	"lnsh/shell"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type readResult struct {
	line string
	err  error
}

// fakeReader replays canned Readline results, then reports io.EOF.
type fakeReader struct {
	results []readResult
}

func (r *fakeReader) Readline() (string, error) {
	if len(r.results) == 0 {
		return "", io.EOF
	}
	res := r.results[0]
	r.results = r.results[1:]
	return res.line, res.err
}

func newTestShell(t *testing.T) (*shell.Shell, *lineedit.History, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	hist := lineedit.NewHistory(filepath.Join(t.TempDir(), ".shell_history"), 0)
	sh := shell.New(shell.NewBuiltinRegistry(), shell.Options{Out: &out, History: hist})
	return sh, hist, &out
}

func TestRunSync_EchoThenExit(t *testing.T) {
	sh, hist, out := newTestShell(t)
	r := &fakeReader{results: []readResult{
		{line: "echo hi"},
		{line: "exit"},
		{line: "echo unreachable"},
	}}

	require.NoError(t, runSync(r, sh, hist, zap.NewNop().Sugar()))
	assert.Equal(t, "hi\n", out.String())
	assert.Equal(t, []string{"echo hi", "exit"}, hist.Lines())
	assert.Len(t, r.results, 1)

	require.NoError(t, hist.Save())
	data, err := os.ReadFile(hist.File())
	require.NoError(t, err)
	assert.Equal(t, "echo hi\nexit\n", string(data))
}

func TestRunSync_InterruptContinues(t *testing.T) {
	sh, hist, out := newTestShell(t)
	r := &fakeReader{results: []readResult{
		{err: readline.ErrInterrupt},
		{line: "echo after"},
	}}

	require.NoError(t, runSync(r, sh, hist, zap.NewNop().Sugar()))
	assert.Equal(t, "after\n", out.String())
}

func TestRunSync_ReadError(t *testing.T) {
	sh, hist, _ := newTestShell(t)
	boom := errors.New("boom")
	r := &fakeReader{results: []readResult{{err: boom}}}

	err := runSync(r, sh, hist, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, boom)
}

func TestRunSync_SkipsBlankHistory(t *testing.T) {
	sh, hist, out := newTestShell(t)
	r := &fakeReader{results: []readResult{{line: "   "}, {line: "nope"}}}

	require.NoError(t, runSync(r, sh, hist, zap.NewNop().Sugar()))
	assert.Equal(t, []string{"nope"}, hist.Lines())
	assert.Equal(t, "invalid command: nope\n", out.String())
}

func TestReadlineCompleter(t *testing.T) {
	sh, _, _ := newTestShell(t)
	c := &readlineCompleter{sh: sh}

	tests := []struct {
		name   string
		line   string
		want   []string
		length int
	}{
		{name: "command prefix", line: "ec", want: []string{"ho"}, length: 2},
		{name: "several commands", line: "c", want: []string{"d", "at", "lear"}, length: 1},
		{name: "enum argument", line: "mask o", want: []string{"n", "ff"}, length: 1},
		{name: "extra spaces", line: "mask   of", want: []string{"f"}, length: 2},
		{name: "empty argument", line: "multiline ", want: []string{"on", "off"}, length: 0},
		{name: "no match", line: "zz", want: nil, length: 0},
		{name: "complete word", line: "exit", want: nil, length: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := []rune(tt.line)
			got, length := c.Do(line, len(line))

			var strs []string
			for _, r := range got {
				strs = append(strs, string(r))
			}
			assert.Equal(t, tt.want, strs)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestReadlineCompleter_CursorInsideLine(t *testing.T) {
	sh, _, _ := newTestShell(t)
	c := &readlineCompleter{sh: sh}

	got, length := c.Do([]rune("ec foo"), 2)
	require.Len(t, got, 1)
	assert.Equal(t, "ho", string(got[0]))
	assert.Equal(t, 2, length)
}
