package shell

import "strings"

// Script is an ordered list of commands that stops at the first failure.
type Script []Command

// String renders the script as a single sh command line.
func (s Script) String() string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " && ")
}

// Stdin returns the input the script expects on stdin: the content of its
// first KindWriteSecret command plus a newline, or "" when it has none.
func (s Script) Stdin() string {
	for _, c := range s {
		if c.Kind == KindWriteSecret {
			return c.Content + "\n"
		}
	}
	return ""
}

// Kinds returns the kind of every command in order.
func (s Script) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s))
	for _, c := range s {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

// Has reports whether the script contains a command of the given kind.
func (s Script) Has(kind Kind) bool {
	for _, c := range s {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
