package render

import (
	"fmt"
	"strings"
)

// IntegrityError reports rendered output whose terminal structure is
// malformed. It signals a renderer defect, never bad input.
type IntegrityError struct {
	Dialect Dialect
	Reason  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("render %s: malformed output: %s", e.Dialect, e.Reason)
}

// Check verifies the terminal structure of rendered output.
func Check(d Dialect, out string) error {
	var reason string
	switch d {
	case HTML:
		reason = checkHTML(out)
	case Markdown:
		reason = checkMarkdown(out)
	default:
		return fmt.Errorf("unknown output format %q", d)
	}
	if reason != "" {
		return &IntegrityError{Dialect: d, Reason: reason}
	}
	return nil
}

func checkHTML(out string) string {
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		return "missing doctype"
	}
	if n := strings.Count(out, "</html>"); n != 1 {
		return fmt.Sprintf("document closed %d times", n)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "</html>") {
		return "content after closing html tag"
	}
	return ""
}

func checkMarkdown(out string) string {
	if !strings.HasSuffix(out, "\n") {
		return "missing final newline"
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	var fence string
	titles, columns := 0, 0
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indented := len(line)-len(trimmed) >= 4
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, string(fence[0])+" ") == "" {
				fence = ""
			}
			continue
		}
		if !indented && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")) {
			fence = trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, trimmed[:1]))]
			continue
		}
		if !indented && strings.HasPrefix(trimmed, "<") {
			return fmt.Sprintf("html block on line %d", i+1)
		}
		if !indented && strings.HasPrefix(trimmed, "|") {
			cells := countCells(trimmed)
			if columns == 0 {
				columns = cells
			} else if cells != columns {
				return fmt.Sprintf("table row on line %d has %d cells, want %d", i+1, cells, columns)
			}
		} else {
			columns = 0
		}
		if i > 0 && !indented && isUnderline(line) && !isBlank(lines[i-1]) {
			titles++
			if i != 1 {
				return fmt.Sprintf("title underline on line %d", i+1)
			}
		}
	}
	if fence != "" {
		return "unterminated code fence"
	}
	if titles != 1 {
		return fmt.Sprintf("%d document titles", titles)
	}
	return ""
}

// countCells counts the cells of a pipe table row with leading and trailing
// pipes. Backslash-escaped pipes do not separate cells.
func countCells(row string) int {
	pipes := 0
	for i := 0; i < len(row); i++ {
		switch row[i] {
		case '\\':
			i++
		case '|':
			pipes++
		}
	}
	return max(pipes-1, 0)
}

func isUnderline(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && strings.Trim(t, "=") == ""
}
