package main

import (
	"io"
	"os"
	"strings"

	"github.com/benithors/dotbuy/internal/domain"
	"golang.org/x/term"
)

// readDomainsFromArgsAndStdin returns args followed by any lines piped on
// stdin. An interactive terminal is never read.
func readDomainsFromArgsAndStdin(args []string, stdin io.Reader) ([]string, error) {
	var out []string
	for _, a := range args {
		out = append(out, splitCommaList(a)...)
	}

	if stdin == nil {
		return out, nil
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return out, nil
	}

	lines, err := domain.ReadLines(stdin)
	if err != nil {
		return nil, err
	}
	return append(out, lines...), nil
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
