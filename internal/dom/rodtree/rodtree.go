// Package rodtree reads a live page from a running Chrome over the DevTools
// protocol. Boxes come from getBoundingClientRect at query time, so every
// extraction sees the page as currently laid out.
package rodtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Zuo-Peng/convman/internal/dom"
)

const (
	jsText = `() => this.textContent || this.innerText || ''`
	jsTag  = `() => this.tagName.toLowerCase()`
	jsRect = `() => {
		const r = this.getBoundingClientRect();
		return [r.top, r.left, r.width, r.height];
	}`
	jsIndex = `() => {
		const w = document.createTreeWalker(document.documentElement, NodeFilter.SHOW_ELEMENT);
		let i = 0;
		do {
			if (w.currentNode === this) return i;
			i++;
		} while (w.nextNode());
		return -1;
	}`
	jsHighlight = `() => {
		const bg = this.style.backgroundColor;
		const border = this.style.border;
		this.style.transition = 'all 0.3s';
		this.style.backgroundColor = '#fff3cd';
		this.style.border = '2px solid #667eea';
		setTimeout(() => {
			this.style.backgroundColor = bg;
			this.style.border = border;
		}, 2000);
	}`
)

// Tree is one browser tab.
type Tree struct {
	page *rod.Page
}

// Node is an element handle on the page.
type Node struct {
	el *rod.Element
	id any
}

// Connect attaches to the browser at controlURL (a ws:// DevTools endpoint)
// and picks the first tab whose URL matches pageMatch, a JS regex. An empty
// pageMatch picks the first tab.
func Connect(ctx context.Context, controlURL, pageMatch string) (*Tree, error) {
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	var page *rod.Page
	if pageMatch == "" {
		page = pages.First()
	} else {
		page, err = pages.FindByURL(pageMatch)
		if err != nil {
			return nil, fmt.Errorf("find page %q: %w", pageMatch, err)
		}
	}
	if page == nil {
		return nil, errors.New("no open page")
	}
	return &Tree{page: page.Context(ctx)}, nil
}

// Query implements dom.Tree.
func (t *Tree) Query(scope dom.Node, pattern string) ([]dom.Node, error) {
	var (
		els rod.Elements
		err error
	)
	if scope == nil {
		els, err = t.page.Elements(pattern)
	} else {
		n, ok := scope.(*Node)
		if !ok {
			return nil, errors.New("scope node does not belong to this page")
		}
		els, err = n.el.Elements(pattern)
	}
	if err != nil {
		var evalErr *rod.EvalError
		if errors.As(err, &evalErr) {
			return nil, fmt.Errorf("%w: %q: %v", dom.ErrInvalidPattern, pattern, err)
		}
		return nil, err
	}

	nodes := make([]dom.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, newNode(el))
	}
	return nodes, nil
}

func newNode(el *rod.Element) *Node {
	n := &Node{el: el, id: el}
	if desc, err := el.Describe(0, false); err == nil {
		n.id = desc.BackendNodeID
	}
	return n
}

func (t *Tree) Title() string {
	info, err := t.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (t *Tree) URL() string {
	info, err := t.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (n *Node) Identity() any { return n.id }

func (n *Node) Text() string {
	obj, err := n.el.Eval(jsText)
	if err != nil {
		return ""
	}
	return obj.Value.Str()
}

func (n *Node) Attr(name string) (string, bool) {
	v, err := n.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (n *Node) Tag() string {
	obj, err := n.el.Eval(jsTag)
	if err != nil {
		return ""
	}
	return obj.Value.Str()
}

func (n *Node) Rect() dom.Rect {
	obj, err := n.el.Eval(jsRect)
	if err != nil {
		return dom.Rect{}
	}
	v := obj.Value.Arr()
	if len(v) != 4 {
		return dom.Rect{}
	}
	return dom.Rect{Top: v[0].Num(), Left: v[1].Num(), Width: v[2].Num(), Height: v[3].Num()}
}

func (n *Node) DocumentIndex() int {
	obj, err := n.el.Eval(jsIndex)
	if err != nil {
		return -1
	}
	return obj.Value.Int()
}

// Highlight scrolls the element into view and tints it for two seconds.
func (n *Node) Highlight() error {
	if err := n.el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if _, err := n.el.Eval(jsHighlight); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return nil
}

// Activate highlights the element and clicks its first link (or the element
// itself when it is a link).
func (n *Node) Activate() error {
	if err := n.Highlight(); err != nil {
		return err
	}
	target := n.el
	links, err := n.el.Elements("a")
	if err == nil && len(links) > 0 {
		target = links.First()
	} else if n.Tag() != "a" {
		return errors.New("no link to follow")
	}
	return target.Click(proto.InputMouseButtonLeft, 1)
}
