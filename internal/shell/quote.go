package shell

import "al.essio.dev/pkg/shellescape"

// Quote returns s as a single sh word, quoting only when s contains
// characters the shell would interpret.
func Quote(s string) string {
	return shellescape.Quote(s)
}
