// Package htmltree serves saved HTML snapshots as a dom.Tree.
//
// A snapshot has no layout engine behind it, so node boxes come from
// data-top / data-left / data-width / data-height attributes when the
// snapshotting tool stamped them (unannotated elements inherit the nearest
// annotated ancestor's box). Other unannotated elements sit just below the
// nearest preceding annotated element, or just above -1 when no annotation
// precedes them, so they keep their document position. A document with no
// annotations at all is laid out in document order: top is the element's
// pre-order index, left its depth.
package htmltree

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/Zuo-Peng/convman/internal/dom"
)

var errForeignNode = errors.New("scope node does not belong to this tree")

type layout struct {
	index int
	rect  dom.Rect
}

// Tree is an immutable parsed snapshot.
type Tree struct {
	doc    *goquery.Document
	base   *url.URL
	title  string
	layout map[*html.Node]layout
}

// Node is an element of a Tree.
type Node struct {
	tree *Tree
	n    *html.Node
}

// ParseFile reads and parses a snapshot file.
func ParseFile(path, baseURL string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, baseURL)
}

// Parse parses a snapshot. baseURL, when empty, falls back to the document's
// <base href>, then its canonical link.
func Parse(r io.Reader, baseURL string) (*Tree, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	t := &Tree{
		doc:    doc,
		title:  strings.TrimSpace(doc.Find("title").First().Text()),
		layout: make(map[*html.Node]layout),
	}

	if baseURL == "" {
		if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
			baseURL = href
		} else if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
			baseURL = href
		}
	}
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			t.base = u
		}
	}

	t.computeLayout()
	return t, nil
}

// orderStep is how far below the nearest preceding annotated box an
// unannotated element is placed per element of document distance. It keeps
// such elements after that box and, for any realistic page, above the next
// annotated one a pixel or more further down.
const orderStep = 1e-6

func (t *Tree) computeLayout() {
	type frame struct {
		rect      dom.Rect
		annotated bool
	}
	var (
		index  int
		last   *layout     // nearest preceding annotated element
		before []*html.Node // elements ahead of the first annotation
	)

	var walk func(n *html.Node, depth int, parent frame)
	walk = func(n *html.Node, depth int, parent frame) {
		cur := parent
		if n.Type == html.ElementNode {
			l := layout{index: index}
			r, own := annotatedRect(n)
			switch {
			case own:
				cur = frame{rect: r, annotated: true}
				l.rect = r
				last = &layout{index: index, rect: r}
			case cur.annotated:
				l.rect = cur.rect
			case last != nil:
				l.rect = last.rect
				l.rect.Top += float64(index-last.index) * orderStep
			default:
				l.rect = dom.Rect{Top: float64(index), Left: float64(depth)}
				before = append(before, n)
			}
			t.layout[n] = l
			index++
			depth++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth, cur)
		}
	}
	for _, root := range t.doc.Nodes {
		walk(root, 0, frame{})
	}

	if last == nil {
		return // no annotations: document order layout
	}
	// elements ahead of the first annotation sort before everything
	// annotated, still in document order
	for _, n := range before {
		l := t.layout[n]
		l.rect = dom.Rect{Top: -1 + float64(l.index)*orderStep}
		t.layout[n] = l
	}
}

func annotatedRect(n *html.Node) (dom.Rect, bool) {
	var r dom.Rect
	found := false
	for _, a := range n.Attr {
		var dst *float64
		switch a.Key {
		case "data-top":
			dst = &r.Top
		case "data-left":
			dst = &r.Left
		case "data-width":
			dst = &r.Width
		case "data-height":
			dst = &r.Height
		default:
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(a.Val), "px"), 64)
		if err != nil {
			continue
		}
		*dst = v
		if a.Key == "data-top" {
			found = true
		}
	}
	return r, found
}

// Query implements dom.Tree.
func (t *Tree) Query(scope dom.Node, pattern string) ([]dom.Node, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", dom.ErrInvalidPattern)
	}
	sel, err := cascadia.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", dom.ErrInvalidPattern, pattern, err)
	}

	from := t.doc.Selection
	if scope != nil {
		n, ok := scope.(*Node)
		if !ok || n.tree != t {
			return nil, errForeignNode
		}
		from = t.doc.FindNodes(n.n)
	}

	found := from.FindMatcher(sel)
	nodes := make([]dom.Node, 0, found.Length())
	for _, n := range found.Nodes {
		nodes = append(nodes, &Node{tree: t, n: n})
	}
	return nodes, nil
}

func (t *Tree) Title() string { return t.title }

func (t *Tree) URL() string {
	if t.base == nil {
		return ""
	}
	return t.base.String()
}

func (n *Node) Identity() any { return n.n }

func (n *Node) Text() string {
	return n.tree.doc.FindNodes(n.n).Text()
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n *Node) Tag() string { return n.n.Data }

func (n *Node) Rect() dom.Rect { return n.tree.layout[n.n].rect }

func (n *Node) DocumentIndex() int {
	if l, ok := n.tree.layout[n.n]; ok {
		return l.index
	}
	return -1
}
