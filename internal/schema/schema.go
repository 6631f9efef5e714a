package schema

// Kind identifies what a component node describes.
type Kind string

const (
	KindRoot          Kind = "root"
	KindSectionType   Kind = "section-type"
	KindKeyType       Kind = "key-type"
	KindDatatypeAlias Kind = "datatype-alias"
)

// Tree is a loaded schema or package of schemas.
type Tree struct {
	Root    *Node
	Package string // Package identifier, empty for a single schema file
	File    string // File restriction or schema file name
	Prefix  string // Namespace for package-relative names
}

// Node is one schema component. Nodes are never modified after load.
type Node struct {
	QualifiedName string // Dotted path, unique within the tree
	DisplayName   string // Local name used in headings
	Kind          Kind
	Abstract      bool   // Abstract section type
	Datatype      string // Conversion datatype, or aliased type for datatype-alias
	Extends       string
	Implements    string
	Default       string // Key-type default value
	File          string // Declaring file
	Description   string // Raw text, indentation as found in the source
	Example       string // Raw text, indentation as found in the source
	Attributes    []Attribute
	Children      []*Node
}

// Attribute is a key or section slot declared by a component.
type Attribute struct {
	Name        string
	Type        string // Type signature, e.g. "string" or "multisection: zconfig.logger.handler"
	Required    bool
	Default     string
	Description string
	Example     string // Raw text, as for Node.Example
}
