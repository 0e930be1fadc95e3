package lineedit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/term"
)

const keyCodesQuit = "quit"

// PrintKeyCodes echoes the code of every byte read from in until "quit"
// is typed. When fd is a terminal it is switched to raw mode for the
// duration so that control keys arrive unprocessed.
func PrintKeyCodes(in io.Reader, out io.Writer, fd int) error {
	nl := "\n"
	if term.IsTerminal(fd) {
		st, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(fd, st)
		nl = "\r\n"
	}

	fmt.Fprintf(out, "Key codes debugging mode.%sPress keys to see scan codes. Type '%s' at any time to exit.%s", nl, keyCodesQuit, nl)

	var last [len(keyCodesQuit)]byte
	b := make([]byte, 1)
	for {
		n, err := in.Read(b)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		copy(last[:], last[1:])
		last[len(last)-1] = b[0]
		if bytes.Equal(last[:], []byte(keyCodesQuit)) {
			return nil
		}

		c := b[0]
		if c < ' ' || c > '~' {
			c = '?'
		}
		fmt.Fprintf(out, "'%c' %02x (%d) (type %s to exit)%s", c, b[0], b[0], keyCodesQuit, nl)
	}
}
