package directive

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/schemadoc/internal/doctree"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/schemas"
)

func newBridge() *Bridge {
	return New(loader.New(schemas.FS), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func expand(t *testing.T, doc string) *doctree.DocTree {
	t.Helper()
	tree, err := newBridge().Expand([]byte(doc), "guide.md")
	require.NoError(t, err)
	return tree
}

func TestRun_WholePackage(t *testing.T) {
	nodes, err := newBridge().Run("logger", nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	root := nodes[0]
	assert.Equal(t, "logger", root.Title)
	text := doctree.Flatten(nodes)
	assert.Contains(t, text, "SMTPHandler")
	assert.Contains(t, text, "Example:")
	assert.Contains(t, text, "Base definition for the logger types defined by this package.\nIt declares the settings every logger section understands.")

	base := doctree.Find(nodes, "base-logger")
	require.NotNil(t, base)
	assert.Contains(t, base.Text, "zconfig.logger.base-logger")
	assert.Contains(t, base.Text, "<logger>\n  level info")
	require.NotNil(t, doctree.Find(base.Children, "handler"))
	assert.NotNil(t, doctree.Find(base.Children, "email-notifier"))
}

func TestRun_FileRestriction(t *testing.T) {
	nodes, err := newBridge().Run("logger", map[string]string{OptFile: "base-logger.xml"})
	require.NoError(t, err)

	text := doctree.Flatten(nodes)
	assert.Contains(t, text, "base-logger")
	assert.Contains(t, text, "Example:")
	assert.NotContains(t, text, "SMTPHandler")
	assert.Equal(t, "base-logger.xml", nodes[0].Title)
}

func TestRun_Members(t *testing.T) {
	nodes, err := newBridge().Run("logger", map[string]string{OptMembers: "syslog logfile"})
	require.NoError(t, err)

	text := doctree.Flatten(nodes)
	assert.Contains(t, text, "syslog")
	assert.Contains(t, text, "SyslogHandlerFactory")
	assert.Contains(t, text, "FileHandlerFactory")
	assert.NotContains(t, text, "SMTPHandler")
	assert.NotNil(t, doctree.Find(nodes, "syslog"))
	assert.NotNil(t, doctree.Find(nodes, "logfile"))
	assert.Nil(t, doctree.Find(nodes, "handler"))
}

func TestRun_ExcludedMembers(t *testing.T) {
	nodes, err := newBridge().Run("logger", map[string]string{
		OptMembers:         "zconfig.logger.base-logger",
		OptExcludedMembers: "zconfig.logger.handler",
	})
	require.NoError(t, err)

	text := doctree.Flatten(nodes)
	assert.Contains(t, text, "zconfig.logger.base-logger")
	for _, absent := range []string{"SMTPHandler", "syslog", "SyslogHandlerFactory", "FileHandlerFactory"} {
		assert.NotContains(t, text, absent)
	}
}

func TestRun_EmptySelectionIsMinimalDocument(t *testing.T) {
	nodes, err := newBridge().Run("logger", map[string]string{OptMembers: "nosuch"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "logger", nodes[0].Title)
	assert.Empty(t, nodes[0].Children)
}

func TestRun_Errors(t *testing.T) {
	b := newBridge()

	_, err := b.Run("nosuch", nil)
	var loadErr *loader.SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "nosuch", loadErr.Identifier)

	_, err = b.Run("logger", map[string]string{OptFile: "nosuch.xml"})
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "logger/nosuch.xml", loadErr.Identifier)

	_, err = b.Run(" ", nil)
	assert.Error(t, err)

	_, err = b.Run("logger", map[string]string{"member": "syslog", "bogus": "x"})
	assert.EqualError(t, err, "unknown options: bogus, member")
}

// trickyPackage declares text that reads as Markdown structure when written
// out verbatim.
var trickyPackage = fstest.MapFS{
	"p/component.xml": {Data: []byte(`<component prefix="p">
  <sectiontype name="first">
    <description>
      Rendered as:
      &lt;pre&gt;
        first
      &lt;/pre&gt;
    </description>
    <key name="format" default="%(a)s|%(b)s">
      <description>Format string.</description>
      <example>format %(a)s</example>
    </key>
  </sectiontype>
  <sectiontype name="second">
    <description>Follows first.</description>
  </sectiontype>
</component>
`)},
}

func TestRun_StructuralTextSurvivesRoundTrip(t *testing.T) {
	b := New(loader.New(trickyPackage), slog.New(slog.NewTextHandler(io.Discard, nil)))
	nodes, err := b.Run("p", nil)
	require.NoError(t, err)

	first := doctree.Find(nodes, "first")
	require.NotNil(t, first)
	assert.Contains(t, first.Text, "Rendered as:\n<pre>")
	assert.Contains(t, first.Text, "format | string | no | %(a)s|%(b)s | Format string.")
	assert.Contains(t, first.Text, "Example for format:")
	assert.NotContains(t, first.Text, "second")

	second := doctree.Find(nodes, "second")
	require.NotNil(t, second)
	assert.Contains(t, second.Text, "p.second")
	assert.Contains(t, second.Text, "Follows first.")
}

func TestExpand_SplicesAtCallSite(t *testing.T) {
	doc := "# Configuring logging\n\nIntro.\n\n```{schemadoc} logger\n:members:\n    syslog\n    logfile\n```\n\nClosing words.\n\n# Appendix\n"
	tree := expand(t, doc)

	require.Len(t, tree.Children, 2)
	guide := tree.Children[0]
	assert.Equal(t, "Configuring logging", guide.Title)
	assert.Contains(t, guide.Text, "Intro.")
	assert.Contains(t, guide.Text, "Closing words.")

	require.Len(t, guide.Children, 1)
	assert.Equal(t, "logger", guide.Children[0].Title)
	assert.NotNil(t, doctree.Find(guide.Children, "syslog"))
	assert.Equal(t, "Appendix", tree.Children[1].Title)
}

func TestExpand_LoadErrorSurfaces(t *testing.T) {
	_, err := newBridge().Expand([]byte("```{schemadoc} nosuch\n```\n"), "guide.md")
	var loadErr *loader.SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "guide.md:1")
}
