// Package lineedit implements an incremental line editor. A Session is
// fed raw terminal input chunk by chunk, so a caller can multiplex the
// editor with other events instead of blocking inside a read.
package lineedit

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateStarted  State = iota // created, nothing rendered yet
	StateFeeding               // accepting input
	StateComplete              // a line or end of input was produced
	StateClosed                // terminal released
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "STARTED"
	case StateFeeding:
		return "FEEDING"
	case StateComplete:
		return "COMPLETE"
	case StateClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FeedStatus reports the outcome of one Feed call.
type FeedStatus int

const (
	FeedMore      FeedStatus = iota // line not finished yet
	FeedLine                        // Enter was pressed
	FeedEOF                         // Ctrl-D on an empty line
	FeedInterrupt                   // Ctrl-C, the line is abandoned
)

// CompleteFunc returns full replacement lines for the current buffer.
type CompleteFunc func(line string) []string

// Config describes a Session.
type Config struct {
	Prompt    string
	Out       io.Writer
	Width     func() int
	Complete  CompleteFunc
	History   *History
	Mask      bool
	MultiLine bool

	// Raw puts Fd into raw mode between Start and Close.
	Raw bool
	Fd  int

	// Plain edits without drawing anything, for input that is not typed
	// at a terminal. Notify messages are still written.
	Plain bool
}

// Snapshot is the visible edit state.
type Snapshot struct {
	Line string
	Pos  int
}

// Session is one in-progress line edit. It is not safe for concurrent
// use; a single goroutine owns it from Start to Close.
type Session struct {
	cfg     Config
	state   State
	buf     []rune
	pos     int
	pending []byte

	// tab completion cycle
	cands   []string
	candIdx int
	origBuf []rune
	origPos int

	// cursor column and row high-water mark of the last render
	oldCol  int
	maxRows int

	restore *term.State
}

// NewSession creates a session in the STARTED state.
func NewSession(cfg Config) *Session {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.History != nil {
		cfg.History.Reset()
	}
	return &Session{cfg: cfg, state: StateStarted}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Start enters raw mode if configured, draws the prompt and moves to
// FEEDING.
func (s *Session) Start() error {
	if s.state != StateStarted {
		return fmt.Errorf("lineedit: start in state %s", s.state)
	}
	if s.cfg.Raw {
		st, err := term.MakeRaw(s.cfg.Fd)
		if err != nil {
			return fmt.Errorf("lineedit: raw mode: %w", err)
		}
		s.restore = st
	}
	s.state = StateFeeding
	s.refresh(refreshAll)
	return nil
}

// Feed processes a chunk of input. Bytes of an incomplete key are kept
// for the next call. Input following a finished line is left unconsumed
// and can be retrieved with Unconsumed.
func (s *Session) Feed(chunk []byte) (string, FeedStatus) {
	if s.state != StateFeeding {
		return "", FeedEOF
	}

	s.pending = append(s.pending, chunk...)
	for len(s.pending) > 0 {
		key, n, ok := decodeKey(s.pending)
		if !ok {
			break
		}
		s.pending = s.pending[n:]

		if line, status := s.handleKey(key); status != FeedMore {
			s.state = StateComplete
			return line, status
		}
	}

	// Terminals write an escape sequence in one go, so an ESC that ends
	// the chunk on its own is the Esc key.
	if len(s.pending) == 1 && s.pending[0] == readline.CharEsc {
		s.pending = s.pending[:0]
		s.handleKey(readline.CharEsc)
	}
	return "", FeedMore
}

// Unconsumed returns input received after the line was completed.
func (s *Session) Unconsumed() []byte {
	return append([]byte(nil), s.pending...)
}

// Snapshot returns the current buffer and cursor position.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Line: string(s.buf), Pos: s.pos}
}

// Hide erases the edit line from the terminal. The buffer is untouched.
func (s *Session) Hide() {
	s.refresh(refreshClean)
	s.maxRows = 0
	s.oldCol = 0
}

// Show redraws the edit line after Hide.
func (s *Session) Show() {
	s.refresh(refreshAll)
}

// Notify prints msg on its own line above the edit line. The edit line
// is fully erased before msg is written and redrawn only after it.
func (s *Session) Notify(msg string) {
	s.Hide()
	_, _ = io.WriteString(s.cfg.Out, msg+s.newline())
	s.Show()
}

// Close leaves raw mode and ends the line on the terminal. It is safe to
// call more than once.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	var err error
	if s.restore != nil {
		err = term.Restore(s.cfg.Fd, s.restore)
		s.restore = nil
	}
	s.write([]byte("\n"))
	return err
}

func (s *Session) handleKey(key rune) (string, FeedStatus) {
	if key == readline.CharTab && s.cfg.Complete != nil {
		s.completeNext()
		return "", FeedMore
	}
	if s.cands != nil {
		if key == readline.CharEsc {
			s.setLine(s.origBuf, s.origPos)
			s.endCompletion()
			s.refresh(refreshAll)
			return "", FeedMore
		}
		s.endCompletion()
	}

	switch key {
	case readline.CharEnter, readline.CharCtrlJ:
		if s.cfg.MultiLine && s.pos != len(s.buf) {
			s.pos = len(s.buf)
			s.refresh(refreshAll)
		}
		return string(s.buf), FeedLine

	case readline.CharInterrupt:
		s.pos = len(s.buf)
		s.refresh(refreshAll)
		s.write([]byte("^C"))
		return "", FeedInterrupt

	case readline.CharDelete:
		if len(s.buf) == 0 {
			return "", FeedEOF
		}
		s.deleteAt(s.pos)

	case keyDel:
		s.deleteAt(s.pos)

	case readline.CharBackspace, readline.CharCtrlH:
		if s.pos > 0 {
			s.pos--
			s.deleteAt(s.pos)
		}

	case readline.CharLineStart, keyHome:
		s.moveTo(0)

	case readline.CharLineEnd, keyEnd:
		s.moveTo(len(s.buf))

	case readline.CharBackward, keyLeft:
		s.moveTo(s.pos - 1)

	case readline.CharForward, keyRight:
		s.moveTo(s.pos + 1)

	case readline.CharPrev, keyUp:
		s.historyStep(true)

	case readline.CharNext, keyDown:
		s.historyStep(false)

	case readline.CharKill:
		s.buf = s.buf[:s.pos]
		s.refresh(refreshAll)

	case readline.CharCtrlU:
		s.setLine(nil, 0)
		s.refresh(refreshAll)

	case readline.CharCtrlW:
		s.deletePrevWord()

	case readline.CharTranspose:
		s.transpose()

	case readline.CharCtrlL:
		s.write([]byte("\x1b[H\x1b[2J"))
		s.maxRows = 0
		s.oldCol = 0
		s.refresh(refreshAll)

	default:
		if key < ' ' || (key >= keyUp && key <= keyIgnored) {
			return "", FeedMore
		}
		s.insert(key)
	}
	return "", FeedMore
}

func (s *Session) insert(r rune) {
	s.buf = append(s.buf, 0)
	copy(s.buf[s.pos+1:], s.buf[s.pos:])
	s.buf[s.pos] = r
	s.pos++
	s.refresh(refreshAll)
}

func (s *Session) deleteAt(i int) {
	if i < 0 || i >= len(s.buf) {
		return
	}
	s.buf = append(s.buf[:i], s.buf[i+1:]...)
	s.refresh(refreshAll)
}

func (s *Session) moveTo(pos int) {
	if pos < 0 || pos > len(s.buf) || pos == s.pos {
		return
	}
	s.pos = pos
	s.refresh(refreshAll)
}

func (s *Session) deletePrevWord() {
	end := s.pos
	for s.pos > 0 && s.buf[s.pos-1] == ' ' {
		s.pos--
	}
	for s.pos > 0 && s.buf[s.pos-1] != ' ' {
		s.pos--
	}
	s.buf = append(s.buf[:s.pos], s.buf[end:]...)
	s.refresh(refreshAll)
}

// transpose swaps the runes around the cursor, or the last two runes
// when the cursor is at the end of the line.
func (s *Session) transpose() {
	if s.pos == 0 || len(s.buf) < 2 {
		return
	}
	if s.pos == len(s.buf) {
		s.buf[s.pos-2], s.buf[s.pos-1] = s.buf[s.pos-1], s.buf[s.pos-2]
		s.refresh(refreshAll)
		return
	}
	s.buf[s.pos-1], s.buf[s.pos] = s.buf[s.pos], s.buf[s.pos-1]
	if s.pos != len(s.buf)-1 {
		s.pos++
	}
	s.refresh(refreshAll)
}

func (s *Session) historyStep(up bool) {
	if s.cfg.History == nil {
		return
	}

	var line string
	var ok bool
	if up {
		line, ok = s.cfg.History.Up(string(s.buf))
	} else {
		line, ok = s.cfg.History.Down()
	}
	if !ok {
		return
	}

	rs := []rune(line)
	s.setLine(rs, len(rs))
	s.refresh(refreshAll)
}

// completeNext shows the next candidate. After the last one the original
// line comes back before the cycle restarts.
func (s *Session) completeNext() {
	if s.cands == nil {
		cands := s.cfg.Complete(string(s.buf))
		if len(cands) == 0 {
			s.write([]byte("\a"))
			return
		}
		s.cands = cands
		s.candIdx = -1
		s.origBuf = append([]rune(nil), s.buf...)
		s.origPos = s.pos
	}

	s.candIdx = (s.candIdx + 1) % (len(s.cands) + 1)
	if s.candIdx == len(s.cands) {
		s.write([]byte("\a"))
		s.setLine(s.origBuf, s.origPos)
	} else {
		rs := []rune(s.cands[s.candIdx])
		s.setLine(rs, len(rs))
	}
	s.refresh(refreshAll)
}

func (s *Session) endCompletion() {
	s.cands = nil
	s.origBuf = nil
}

// setLine replaces the buffer with a copy of rs.
func (s *Session) setLine(rs []rune, pos int) {
	s.buf = append(s.buf[:0], rs...)
	s.pos = pos
}

func (s *Session) newline() string {
	if s.restore != nil {
		return "\r\n"
	}
	return "\n"
}

func (s *Session) write(b []byte) {
	if s.cfg.Plain {
		return
	}
	_, _ = s.cfg.Out.Write(b)
}
