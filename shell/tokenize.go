package shell

import "strings"

// Tokenize splits a line into whitespace-delimited arguments.
// Only space and horizontal tab separate tokens; runs of them collapse,
// so the result never contains empty strings. A blank line yields an
// empty slice.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, isDelim)
}

func isDelim(r rune) bool {
	return r == ' ' || r == '\t'
}
