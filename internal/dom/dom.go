// Package dom defines the document tree the extractors read from. Providers
// live in subpackages: htmltree for saved HTML snapshots, rodtree for a live
// browser page.
package dom

import "errors"

// ErrInvalidPattern is wrapped by Query when the provider cannot evaluate a
// pattern. Callers treat it as a per-pattern failure, never a fatal one.
var ErrInvalidPattern = errors.New("invalid pattern")

// Rect is a node's box in layout coordinates.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Node is a handle on one element of a Tree. Handles are only meaningful for
// the snapshot they were queried from.
type Node interface {
	// Identity is a comparable value that is equal for two handles on the
	// same physical element.
	Identity() any
	// Text is the element's text content, whitespace preserved.
	Text() string
	Attr(name string) (string, bool)
	Tag() string
	Rect() Rect
	// DocumentIndex is the element's pre-order position, -1 if unknown.
	DocumentIndex() int
}

// Tree answers pattern queries. A nil scope queries the whole document;
// otherwise only descendants of scope are matched. Results are in document
// order.
type Tree interface {
	Query(scope Node, pattern string) ([]Node, error)
	Title() string
	URL() string
}

// Highlighter is implemented by nodes that can be brought into view and
// marked on screen.
type Highlighter interface {
	Highlight() error
}

// Activator is implemented by nodes that can follow their link in place.
type Activator interface {
	Activate() error
}
