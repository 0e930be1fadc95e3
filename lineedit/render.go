package lineedit

import (
	"bytes"
	"fmt"

	"github.com/mattn/go-runewidth"
)

const defaultWidth = 80

const (
	refreshClean = 1 << iota // erase what was drawn
	refreshWrite             // draw prompt and buffer

	refreshAll = refreshClean | refreshWrite
)

func (s *Session) refresh(flags int) {
	if s.cfg.MultiLine {
		s.refreshMulti(flags)
	} else {
		s.refreshSingle(flags)
	}
}

// refreshSingle draws the line on one terminal row, scrolling the
// visible window horizontally so the cursor stays on screen.
func (s *Session) refreshSingle(flags int) {
	plen := runewidth.StringWidth(s.cfg.Prompt)
	cols := s.width()
	view := s.view()

	start, end := 0, len(view)
	for start < s.pos && plen+runesWidth(view[start:s.pos]) >= cols {
		start++
	}
	for end > s.pos && plen+runesWidth(view[start:end]) > cols {
		end--
	}

	var b bytes.Buffer
	b.WriteByte('\r')
	if flags&refreshWrite != 0 {
		b.WriteString(s.cfg.Prompt)
		b.WriteString(string(view[start:end]))
	}
	b.WriteString("\x1b[0K")
	if flags&refreshWrite != 0 {
		b.WriteByte('\r')
		if col := plen + runesWidth(view[start:s.pos]); col > 0 {
			fmt.Fprintf(&b, "\x1b[%dC", col)
		}
	}
	s.write(b.Bytes())
}

// refreshMulti lets the line wrap over as many rows as it needs. Rows
// drawn previously are cleared from the bottom up before redrawing.
func (s *Session) refreshMulti(flags int) {
	plen := runewidth.StringWidth(s.cfg.Prompt)
	cols := s.width()
	view := s.view()

	total := plen + runesWidth(view)
	rows := (total + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}
	rpos := (s.oldCol + cols) / cols
	oldRows := s.maxRows
	if rows > s.maxRows {
		s.maxRows = rows
	}

	var b bytes.Buffer
	if flags&refreshClean != 0 {
		if oldRows-rpos > 0 {
			fmt.Fprintf(&b, "\x1b[%dB", oldRows-rpos)
		}
		for j := 0; j < oldRows-1; j++ {
			b.WriteString("\r\x1b[0K\x1b[1A")
		}
	}
	b.WriteString("\r\x1b[0K")

	if flags&refreshWrite != 0 {
		b.WriteString(s.cfg.Prompt)
		b.WriteString(string(view))

		col := plen + runesWidth(view[:s.pos])
		// Cursor sits right after the last column: open a new row for it.
		if s.pos > 0 && s.pos == len(view) && total%cols == 0 {
			b.WriteString("\n\r")
			rows++
			if rows > s.maxRows {
				s.maxRows = rows
			}
		}

		if up := rows - (col+cols)/cols; up > 0 {
			fmt.Fprintf(&b, "\x1b[%dA", up)
		}
		if c := col % cols; c > 0 {
			fmt.Fprintf(&b, "\r\x1b[%dC", c)
		} else {
			b.WriteByte('\r')
		}
		s.oldCol = col
	}
	s.write(b.Bytes())
}

// view is the buffer as displayed: masked runes are shown as '*'.
func (s *Session) view() []rune {
	if !s.cfg.Mask {
		return s.buf
	}
	masked := make([]rune, len(s.buf))
	for i := range masked {
		masked[i] = '*'
	}
	return masked
}

func (s *Session) width() int {
	if s.cfg.Width != nil {
		if w := s.cfg.Width(); w > 0 {
			return w
		}
	}
	return defaultWidth
}

func runesWidth(rs []rune) int {
	w := 0
	for _, r := range rs {
		w += runewidth.RuneWidth(r)
	}
	return w
}
