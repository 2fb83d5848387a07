// Package output provides formatters for command output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdash/internal/service"
)

// FormatIdentity writes the identity fields one per line, labels padded to
// a common width. Empty fields print as "-".
func FormatIdentity(w io.Writer, id service.Identity) {
	fmt.Fprintf(w, "uid:          %s\n", normalize(id.UID))
	fmt.Fprintf(w, "email:        %s\n", normalize(id.Email))
	fmt.Fprintf(w, "display name: %s\n", normalize(id.DisplayName))
	fmt.Fprintf(w, "photo url:    %s\n", normalize(id.PhotoURL))
}

// FormatListening writes the address the server is listening on.
func FormatListening(w io.Writer, addr string) {
	fmt.Fprintf(w, "listening on %s\n", addr)
}

// normalize replaces newlines with spaces; empty or whitespace-only
// values become "-".
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
