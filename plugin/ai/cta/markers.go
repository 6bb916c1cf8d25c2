package cta

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// arrowMarkers introduce a call to action in model output.
var arrowMarkers = []string{"→", "➡", "👉", "▶", "=>", "->"}

var markdown = goldmark.New()

// HasCTAMarker reports whether text already carries a bullet list or an
// arrow marker, in which case no CTA line is appended.
func HasCTAMarker(s string) bool {
	for _, m := range arrowMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return hasList(s)
}

// hasList parses s as markdown and looks for a list node.
func hasList(s string) bool {
	src := []byte(s)
	doc := markdown.Parser().Parse(text.NewReader(src))
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindList {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
