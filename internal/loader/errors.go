package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a package or file missing from every search root.
	ErrNotFound = errors.New("not found")
	// ErrNoSource reports a Source with neither a path nor a package.
	ErrNoSource = errors.New("no schema source given")
)

// SchemaLoadError is returned for any failure to locate, read or parse a
// schema. Identifier names the package, file or path that failed.
type SchemaLoadError struct {
	Identifier string
	Err        error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema %q: %v", e.Identifier, e.Err)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Err
}

func loadError(ident string, err error) error {
	return &SchemaLoadError{Identifier: ident, Err: err}
}
