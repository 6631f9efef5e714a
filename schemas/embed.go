// Package schemas holds the schema packages shipped with schemadoc.
package schemas

import "embed"

// FS contains the bundled packages, one directory per package with a
// component.xml entry file.
//
//go:embed logger
var FS embed.FS
