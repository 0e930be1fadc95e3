package lineedit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// DefaultHistorySize is the number of entries kept when no limit is given.
const DefaultHistorySize = 1000

// History holds previously entered lines with Up/Down navigation and
// file persistence.
type History struct {
	lines  []string
	limit  int
	cursor int
	saved  string // input saved before navigating
	file   string
}

// NewHistory creates an empty history backed by file. A limit <= 0 means
// DefaultHistorySize. An empty file name disables persistence.
func NewHistory(file string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{file: file, limit: limit}
}

// Load reads the history file. A missing file is not an error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	data, err := os.ReadFile(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			h.lines = append(h.lines, line)
		}
	}
	h.trim()
	h.cursor = len(h.lines)
	return nil
}

// Add appends a line. Blank lines and repeats of the previous entry are
// not recorded.
func (h *History) Add(line string) {
	defer h.Reset()
	if strings.TrimSpace(line) == "" {
		return
	}
	if len(h.lines) > 0 && h.lines[len(h.lines)-1] == line {
		return
	}
	h.lines = append(h.lines, line)
	h.trim()
}

// Lines returns the recorded entries, oldest first.
func (h *History) Lines() []string {
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

// File returns the backing file name.
func (h *History) File() string {
	return h.file
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.lines)
}

// Save writes all entries to the history file, one per line.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	var b strings.Builder
	for _, line := range h.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(h.file, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Up navigates backward. On the first step the current input is saved so
// Down can bring it back.
func (h *History) Up(current string) (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if h.cursor == len(h.lines) {
		h.saved = current
	}
	if h.cursor > 0 {
		h.cursor--
		return h.lines[h.cursor], true
	}
	return "", false
}

// Down navigates forward, ending at the saved input.
func (h *History) Down() (string, bool) {
	if h.cursor >= len(h.lines) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.lines) {
		return h.saved, true
	}
	return h.lines[h.cursor], true
}

// Reset moves the cursor past the newest entry.
func (h *History) Reset() {
	h.cursor = len(h.lines)
	h.saved = ""
}

func (h *History) trim() {
	if len(h.lines) > h.limit {
		h.lines = h.lines[len(h.lines)-h.limit:]
	}
}
