// Package domain cleans up names typed or piped in by users before they are
// sent to the registration API.
package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"text/tabwriter"

	"golang.org/x/net/idna"
)

var ErrEmpty = errors.New("empty domain")

// Normalize reduces input to a lower-case ASCII domain. URLs, paths, ports
// and a trailing dot are stripped; Unicode labels are converted to punycode.
func Normalize(input string) (string, error) {
	s := hostOf(strings.TrimSpace(input))
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if s == "" {
		return "", ErrEmpty
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("idna %q: %w", input, err)
	}
	if !strings.Contains(ascii, ".") {
		return "", fmt.Errorf("domain must contain a dot: %q", input)
	}
	if !validASCII(ascii) {
		return "", fmt.Errorf("invalid domain: %q", input)
	}
	return ascii, nil
}

// NormalizeAll normalizes names in order and drops duplicates. The first
// invalid name aborts.
func NormalizeAll(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		d, err := Normalize(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

func hostOf(s string) string {
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if host, port, err := net.SplitHostPort(s); err == nil && digits(port) {
		return host
	}
	if i := strings.LastIndexByte(s, ':'); i > 0 && digits(s[i+1:]) {
		return s[:i]
	}
	return s
}

// Chunk splits names into consecutive batches of at most size entries.
func Chunk(names []string, size int) [][]string {
	if size <= 0 || len(names) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(names)+size-1)/size)
	for len(names) > size {
		out = append(out, names[:size:size])
		names = names[size:]
	}
	return append(out, names)
}

// ReadLines returns the non-blank lines of r, trimmed. Lines starting with #
// are comments.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func validASCII(s string) bool {
	if len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
				return false
			}
		}
	}
	return true
}
