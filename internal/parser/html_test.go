package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_RenderedPage(t *testing.T) {
	input := `<!DOCTYPE html><html lang="en"><head><title>logger</title></head><body>
<div class="section"><h1>logger</h1><p class="signature"><em>package</em> <code>logger</code></p>
<div class="section"><h2>base-logger</h2><p>Base definition.</p>
<table class="attributes"><thead><tr><th>Name</th><th>Default</th></tr></thead>
<tbody><tr><td><code>level</code></td><td><code>info</code></td></tr></tbody></table>
<p class="example-label">Example:</p><pre class="example">&lt;logger&gt;
  level info
&lt;/logger&gt;</pre></div></div></body></html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "logger.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "logger" {
		t.Errorf("expected title %q, got %q", "logger", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}
	root := tree.Children[0]
	if !strings.Contains(root.Text, "package logger") {
		t.Errorf("expected signature text, got %q", root.Text)
	}
	if len(root.Children) != 1 || root.Children[0].Title != "base-logger" {
		t.Fatalf("expected base-logger section, got %+v", root.Children)
	}

	text := root.Children[0].Text
	for _, want := range []string{"Base definition.", "Name | Default", "level | info", "Example:", "<logger>\n  level info"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
}

func TestHTMLParser_SkipsChrome(t *testing.T) {
	input := `<html><body><nav><p>menu</p></nav><h1>Doc</h1><p>content</p><script>x()</script></body></html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "page" {
		t.Errorf("expected title %q, got %q", "page", tree.Title)
	}
	if got := tree.Children[0].Text; got != "content" {
		t.Errorf("expected %q, got %q", "content", got)
	}
}

func TestHTMLParser_NestingAndFragments(t *testing.T) {
	input := `<h1>Top</h1><p>one
   two</p><h3>Deep</h3><dl><dt>key</dt><dd>value</dd></dl><h2>Side</h2><p>s</p>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "frag.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}
	top := tree.Children[0]
	if top.Text != "one two" {
		t.Errorf("expected collapsed text, got %q", top.Text)
	}
	if len(top.Children) != 2 || top.Children[0].Title != "Deep" || top.Children[1].Title != "Side" {
		t.Fatalf("unexpected sections: %+v", top.Children)
	}
	if got := top.Children[0].Text; got != "key\n\nvalue" {
		t.Errorf("expected definition list text, got %q", got)
	}
}

func TestHTMLParser_TextOnly(t *testing.T) {
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(`<p>just text</p>`), "plain.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Text != "just text" {
		t.Fatalf("expected single text node, got %+v", tree.Children)
	}
}
