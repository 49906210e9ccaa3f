package htmltree

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/convman/internal/dom"
)

func mustParse(t *testing.T, src, base string) *Tree {
	t.Helper()
	tree, err := Parse(strings.NewReader(src), base)
	require.NoError(t, err)
	return tree
}

func TestLayoutFromAnnotations(t *testing.T) {
	tree := mustParse(t, `<html><body>
<div id="a" data-top="120px" data-left="8" data-width="300" data-height="40"><span id="inner">x</span></div>
<div id="b">loose</div>
</body></html>`, "")

	nodes, err := tree.Query(nil, "#a, #inner, #b")
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, dom.Rect{Top: 120, Left: 8, Width: 300, Height: 40}, nodes[0].Rect())
	assert.Equal(t, nodes[0].Rect(), nodes[1].Rect(), "unannotated child inherits the box")

	// a later sibling sits just below the preceding annotated box
	b := nodes[2].Rect()
	assert.Greater(t, b.Top, 120.0)
	assert.Less(t, b.Top, 121.0)
	assert.Equal(t, 8.0, b.Left)
}

func TestLayoutPartialAnnotations(t *testing.T) {
	tree := mustParse(t, `<html><body>
<div id="head">banner</div>
<div id="note">notice</div>
<div id="a" data-top="100">a</div>
<div id="b" data-top="200">b</div>
<div id="c">c</div>
<div id="d">d</div>
<div id="e" data-top="201">e</div>
</body></html>`, "")

	nodes, err := tree.Query(nil, "#head, #note, #a, #b, #c, #d, #e")
	require.NoError(t, err)
	require.Len(t, nodes, 7)

	var tops []float64
	for _, n := range nodes {
		tops = append(tops, n.Rect().Top)
	}
	assert.Less(t, tops[0], 0.0, "elements ahead of the first annotation come first")
	assert.True(t, sort.Float64sAreSorted(tops), "document order is kept: %v", tops)
	for i := 1; i < len(tops); i++ {
		assert.NotEqual(t, tops[i-1], tops[i])
	}
	assert.Less(t, tops[5], 201.0)
}

func TestLayoutDocumentOrder(t *testing.T) {
	tree := mustParse(t, `<html><body><div id="a"><p id="p">x</p></div><div id="b">y</div></body></html>`, "")

	nodes, err := tree.Query(nil, "#a, #p, #b")
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	a, p, b := nodes[0].Rect(), nodes[1].Rect(), nodes[2].Rect()
	assert.Less(t, a.Top, p.Top)
	assert.Less(t, p.Top, b.Top)
	assert.Equal(t, a.Left+1, p.Left)
	assert.Less(t, nodes[0].DocumentIndex(), nodes[2].DocumentIndex())
}

func TestQueryInvalidPattern(t *testing.T) {
	tree := mustParse(t, `<html><body></body></html>`, "")

	for _, p := range []string{"div[", "", "   "} {
		_, err := tree.Query(nil, p)
		assert.True(t, errors.Is(err, dom.ErrInvalidPattern), "pattern %q", p)
	}
}

func TestQueryScoped(t *testing.T) {
	tree := mustParse(t, `<html><body>
<div id="one"><p>a</p><p>b</p></div>
<div id="two"><p>c</p></div>
</body></html>`, "")

	scope, err := tree.Query(nil, "#one")
	require.NoError(t, err)
	require.Len(t, scope, 1)

	ps, err := tree.Query(scope[0], "p")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "a", ps[0].Text())
	assert.Equal(t, "p", ps[0].Tag())

	other := mustParse(t, `<html><body><p>z</p></body></html>`, "")
	_, err = other.Query(scope[0], "p")
	assert.Error(t, err)
}

func TestIdentityStable(t *testing.T) {
	tree := mustParse(t, `<html><body><div class="x y" id="d">t</div></body></html>`, "")

	byClass, err := tree.Query(nil, ".x")
	require.NoError(t, err)
	byID, err := tree.Query(nil, "#d")
	require.NoError(t, err)
	assert.Equal(t, byClass[0].Identity(), byID[0].Identity())

	v, ok := byID[0].Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "x y", v)
	_, ok = byID[0].Attr("href")
	assert.False(t, ok)
}

func TestBaseURLAndTitle(t *testing.T) {
	src := `<html><head><title> Chat </title><base href="https://www.genspark.ai/agents/"></head><body></body></html>`

	tree := mustParse(t, src, "")
	assert.Equal(t, "Chat", tree.Title())
	assert.Equal(t, "https://www.genspark.ai/agents/", tree.URL())

	overridden := mustParse(t, src, "https://example.test/")
	assert.Equal(t, "https://example.test/", overridden.URL())

	canonical := mustParse(t, `<html><head><link rel="canonical" href="https://c.test/x"></head></html>`, "")
	assert.Equal(t, "https://c.test/x", canonical.URL())

	assert.Empty(t, mustParse(t, `<html></html>`, "").URL())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><head><title>Saved</title></head></html>`), 0o644))

	tree, err := ParseFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Saved", tree.Title())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.html"), "")
	assert.Error(t, err)
}
