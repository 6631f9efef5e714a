package render

import "strings"

// Dedent removes the leading whitespace common to every non-blank line.
// Whitespace-only lines become empty. A first line with no indentation that
// is followed by more lines is left out of the margin computation: schema
// text often starts right after the opening tag while the following lines
// carry the source indentation.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	start := 0
	if len(lines) > 1 && !isBlank(lines[0]) && leadingSpace(lines[0]) == "" {
		start = 1
	}

	var margin string
	found := false
	for _, line := range lines[start:] {
		if isBlank(line) {
			continue
		}
		ws := leadingSpace(line)
		if !found {
			margin, found = ws, true
			continue
		}
		margin = commonPrefix(margin, ws)
	}

	for i, line := range lines {
		switch {
		case isBlank(line):
			lines[i] = ""
		case i >= start:
			lines[i] = line[len(margin):]
		}
	}
	return strings.Join(lines, "\n")
}

// block dedents s and drops leading and trailing blank lines.
func block(s string) string {
	return strings.Trim(Dedent(s), "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
