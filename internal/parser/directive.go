package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/schemadoc/internal/doctree"
)

// Directive generates host nodes in place of a directive call. The argument
// is the text after the directive name; options are the `:key: value`
// lines of the call body.
type Directive interface {
	Run(argument string, options map[string]string) ([]*doctree.DocNode, error)
}

// Registry maps directive names to their implementations.
type Registry struct {
	mu         sync.RWMutex
	directives map[string]Directive
}

func NewRegistry() *Registry {
	return &Registry{directives: make(map[string]Directive)}
}

// Register adds a directive, replacing any previous one of the same name.
func (r *Registry) Register(name string, d Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directives[name] = d
}

func (r *Registry) Lookup(name string) (Directive, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.directives[name]
	return d, ok
}

// Names returns the registered directive names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.directives))
	for name := range r.directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseCall splits a fence info string of the form "{name} argument".
func parseCall(info string) (name, argument string, ok bool) {
	info = strings.TrimSpace(info)
	if !strings.HasPrefix(info, "{") {
		return "", "", false
	}
	end := strings.Index(info, "}")
	if end < 2 {
		return "", "", false
	}
	return strings.TrimSpace(info[1:end]), strings.TrimSpace(info[end+1:]), true
}

// parseOptions reads ":key: value" lines. An indented line continues the
// value of the option above it.
func parseOptions(lines []string) (map[string]string, error) {
	opts := make(map[string]string)
	var last string
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && last != "" {
			opts[last] += "\n" + strings.TrimSpace(line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		key, value, ok := strings.Cut(strings.TrimPrefix(trimmed, ":"), ":")
		if !strings.HasPrefix(trimmed, ":") || !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("option line %d: expected \":name: value\", got %q", i+1, trimmed)
		}
		last = strings.TrimSpace(key)
		opts[last] = strings.TrimSpace(value)
	}
	return opts, nil
}
