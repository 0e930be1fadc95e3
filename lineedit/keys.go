package lineedit

import (
	"unicode/utf8"

	"github.com/chzyer/readline"
)

// Keys that arrive as escape sequences are mapped into the private use
// area so they share one rune space with control and printable keys.
const (
	keyUp rune = 0xE000 + iota
	keyDown
	keyLeft
	keyRight
	keyHome
	keyEnd
	keyDel
	keyIgnored
)

// decodeKey reads one key from the front of buf. It reports ok=false when
// buf holds only the beginning of a key and more input is needed.
func decodeKey(buf []byte) (key rune, n int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}

	if buf[0] == readline.CharEsc {
		return decodeEscape(buf)
	}

	if !utf8.FullRune(buf) {
		return 0, 0, false
	}
	r, size := utf8.DecodeRune(buf)
	return r, size, true
}

// decodeEscape handles ESC, CSI (ESC [) and SS3 (ESC O) sequences.
func decodeEscape(buf []byte) (rune, int, bool) {
	if len(buf) < 2 {
		return 0, 0, false
	}

	switch buf[1] {
	case readline.CharEscapeEx:
		// CSI: parameter bytes followed by one final byte in 0x40-0x7e.
		for i := 2; i < len(buf); i++ {
			b := buf[i]
			if b >= 0x40 && b <= 0x7e {
				return csiKey(buf[2:i], b), i + 1, true
			}
		}
		return 0, 0, false

	case 'O':
		if len(buf) < 3 {
			return 0, 0, false
		}
		switch buf[2] {
		case 'H':
			return keyHome, 3, true
		case 'F':
			return keyEnd, 3, true
		}
		return keyIgnored, 3, true
	}

	// A lone ESC followed by an ordinary key.
	return readline.CharEsc, 1, true
}

func csiKey(params []byte, final byte) rune {
	switch final {
	case 'A':
		return keyUp
	case 'B':
		return keyDown
	case 'C':
		return keyRight
	case 'D':
		return keyLeft
	case 'H':
		return keyHome
	case 'F':
		return keyEnd
	case '~':
		switch string(params) {
		case "1", "7":
			return keyHome
		case "4", "8":
			return keyEnd
		case "3":
			return keyDel
		}
	}
	return keyIgnored
}
