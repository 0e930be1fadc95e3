package lineedit

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// ErrPollTimeout is returned by Poller.Wait when no input arrived within
// the wait bound. It is not a failure; callers poll again.
var ErrPollTimeout = errors.New("lineedit: poll timeout")

// PollError is a non-transient failure of the readiness poll or the read
// that follows it.
type PollError struct {
	Op  string
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Poller waits for terminal input.
type Poller interface {
	// Wait blocks for at most timeout and returns the bytes that became
	// available. It returns ErrPollTimeout when nothing arrived and
	// io.EOF when the input is closed.
	Wait(timeout time.Duration) ([]byte, error)
}

// IsTransient reports whether err is an interruption after which the
// poll should simply be retried.
func IsTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

// FilePoller polls a file descriptor with poll(2).
type FilePoller struct {
	fd  int
	buf []byte
}

// NewFilePoller returns a poller reading from fd.
func NewFilePoller(fd int) *FilePoller {
	return &FilePoller{fd: fd, buf: make([]byte, 1024)}
}

// Wait implements Poller.
func (p *FilePoller) Wait(timeout time.Duration) ([]byte, error) {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		return nil, &PollError{Op: "poll", Err: err}
	}
	if n == 0 || fds[0].Revents == 0 {
		return nil, ErrPollTimeout
	}
	if fds[0].Revents&unix.POLLNVAL != 0 {
		return nil, &PollError{Op: "poll", Err: unix.EBADF}
	}

	m, err := unix.Read(p.fd, p.buf)
	if err != nil {
		return nil, &PollError{Op: "read", Err: err}
	}
	if m == 0 {
		return nil, io.EOF
	}
	return append([]byte(nil), p.buf[:m]...), nil
}
