package lineedit

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFilePoller(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	p := NewFilePoller(int(r.Fd()))

	_, err = p.Wait(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrPollTimeout)

	_, err = w.Write([]byte("ls\r"))
	require.NoError(t, err)
	data, err := p.Wait(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("ls\r"), data)

	require.NoError(t, w.Close())
	_, err = p.Wait(time.Second)
	assert.ErrorIs(t, err, io.EOF)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&PollError{Op: "poll", Err: unix.EINTR}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", unix.EAGAIN)))
	assert.False(t, IsTransient(&PollError{Op: "poll", Err: unix.EBADF}))
	assert.False(t, IsTransient(ErrPollTimeout))
}

func TestPollError(t *testing.T) {
	err := &PollError{Op: "read", Err: unix.EIO}
	assert.Equal(t, "read: input/output error", err.Error())
	assert.ErrorIs(t, err, unix.EIO)
}
