package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dgallion1/schemadoc/internal/schema"
)

// componentFile is the entry file of every schema package.
const componentFile = "component.xml"

// Source identifies what to load: a single schema file, or a package
// optionally restricted to one of its files.
type Source struct {
	Path    string // Schema file on disk
	Package string // Package identifier, e.g. "logger" or "zconfig.components.logger"
	File    string // Restrict a package load to the types declared in this file
}

func (s Source) String() string {
	switch {
	case s.Package != "" && s.File != "":
		return s.Package + "/" + s.File
	case s.Package != "":
		return s.Package
	default:
		return s.Path
	}
}

// Loader builds component trees from schema sources. Packages are looked up
// in the search roots in order; the first root holding the package wins.
type Loader struct {
	roots []fs.FS
}

// New creates a Loader over the given search roots.
func New(roots ...fs.FS) *Loader {
	return &Loader{roots: roots}
}

// Load dispatches on the kind of source.
func (l *Loader) Load(src Source) (*schema.Tree, error) {
	switch {
	case src.Package != "":
		return l.LoadPackage(src.Package, src.File)
	case src.Path != "":
		return l.LoadFile(src.Path)
	default:
		return nil, loadError("", ErrNoSource)
	}
}

// LoadFile loads a single schema file from disk.
func (l *Loader) LoadFile(p string) (*schema.Tree, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, loadError(p, err)
	}
	defer f.Close()

	tree, err := load(f, filepath.Base(p))
	if err != nil {
		return nil, loadError(p, err)
	}
	return tree, nil
}

// LoadReader loads a single schema document read from r. name identifies
// the document in the tree and in errors.
func LoadReader(r io.Reader, name string) (*schema.Tree, error) {
	tree, err := load(r, name)
	if err != nil {
		return nil, loadError(name, err)
	}
	return tree, nil
}

func load(r io.Reader, name string) (*schema.Tree, error) {
	fd, err := parseFile(r, name, "")
	if err != nil {
		return nil, err
	}

	rootName := fd.prefix
	if rootName == "" {
		rootName = name
	}
	root := &schema.Node{
		QualifiedName: rootName,
		DisplayName:   name,
		Kind:          schema.KindRoot,
		Datatype:      fd.datatype,
		File:          name,
		Description:   fd.description,
		Attributes:    fd.attrs,
	}
	if err := assemble(root, fd.types, fd.types); err != nil {
		return nil, err
	}
	return &schema.Tree{Root: root, File: name, Prefix: fd.prefix}, nil
}

// LoadPackage loads every component type of a package. With file set, the
// tree holds only the types declared directly in that file; the rest of the
// package is still read so inheritance resolves.
func (l *Loader) LoadPackage(pkg, file string) (*schema.Tree, error) {
	dir, err := packageDir(pkg)
	if err != nil {
		return nil, loadError(pkg, err)
	}
	fsys := l.find(path.Join(dir, componentFile))
	if fsys == nil {
		return nil, loadError(pkg, fmt.Errorf("package %w in search path", ErrNotFound))
	}

	comp, err := readFile(fsys, dir, componentFile, "")
	if err != nil {
		return nil, loadError(pkg, err)
	}
	files := []*fileDecls{comp}
	seen := map[string]*fileDecls{componentFile: comp}
	for i := 0; i < len(files); i++ {
		for _, imp := range files[i].imports {
			if seen[imp] != nil {
				continue
			}
			fd, err := readFile(fsys, dir, imp, comp.prefix)
			if err != nil {
				return nil, loadError(pkg, err)
			}
			seen[imp] = fd
			files = append(files, fd)
		}
	}

	if file != "" && seen[file] == nil {
		fd, err := readFile(fsys, dir, file, comp.prefix)
		if err != nil {
			return nil, loadError(pkg+"/"+file, err)
		}
		seen[file] = fd
		files = append(files, fd)
	}

	var known []*decl
	for _, fd := range files {
		known = append(known, fd.types...)
	}

	tree := &schema.Tree{Package: pkg, Prefix: comp.prefix}
	root := &schema.Node{
		QualifiedName: pkg,
		DisplayName:   pkg,
		Kind:          schema.KindRoot,
		File:          componentFile,
		Description:   comp.description,
	}
	selected := known
	if file != "" {
		fd := seen[file]
		tree.File = file
		tree.Prefix = fd.prefix
		root.QualifiedName = pkg + "/" + file
		root.DisplayName = file
		root.File = file
		root.Description = fd.description
		selected = fd.types
	}
	tree.Root = root

	if err := assemble(root, known, selected); err != nil {
		return nil, loadError(tree.Root.QualifiedName, err)
	}
	return tree, nil
}

func (l *Loader) find(name string) fs.FS {
	for _, fsys := range l.roots {
		if _, err := fs.Stat(fsys, name); err == nil {
			return fsys
		}
	}
	return nil
}

// packageDir maps a dotted package identifier to its directory.
func packageDir(pkg string) (string, error) {
	dir := strings.ReplaceAll(strings.TrimSpace(pkg), ".", "/")
	if dir == "" || !fs.ValidPath(dir) {
		return "", fmt.Errorf("invalid package identifier %q", pkg)
	}
	return dir, nil
}

func readFile(fsys fs.FS, dir, name, prefix string) (*fileDecls, error) {
	p := path.Join(dir, name)
	if strings.Contains(name, "/") || !fs.ValidPath(p) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	f, err := fsys.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s %w", name, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return parseFile(f, name, prefix)
}
