// Package locator resolves ordered lists of fallback patterns against a
// dom.Tree. Page markup changes between builds, so every semantic element is
// described by several patterns; Resolve unions them and First trusts the
// first one that matches.
package locator

import (
	"log/slog"
	"sort"

	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/logging"
)

var locLog = logging.ForComponent(logging.CompLocator)

// Locator is an ordered list of patterns. A single pattern is a one-entry
// Locator.
type Locator []string

// Resolve runs every pattern of loc under scope (nil for the whole document)
// and returns the union of the matches, each physical node once, in the order
// first encountered. A pattern the tree rejects is logged and skipped.
func Resolve(tree dom.Tree, loc Locator, scope dom.Node) []dom.Node {
	seen := make(map[any]struct{})
	var out []dom.Node
	for _, pattern := range loc {
		for _, n := range query(tree, pattern, scope) {
			id := n.Identity()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// First returns the matches of the first pattern that matches anything, along
// with that pattern. Later patterns are not tried.
func First(tree dom.Tree, loc Locator, scope dom.Node) ([]dom.Node, string) {
	for _, pattern := range loc {
		if nodes := query(tree, pattern, scope); len(nodes) > 0 {
			return nodes, pattern
		}
	}
	return nil, ""
}

// FirstNode is the first node Resolve would return, or nil.
func FirstNode(tree dom.Tree, loc Locator, scope dom.Node) dom.Node {
	for _, pattern := range loc {
		if nodes := query(tree, pattern, scope); len(nodes) > 0 {
			return nodes[0]
		}
	}
	return nil
}

// InDocumentOrder returns nodes stably sorted by document position. Nodes
// with an unknown position keep their relative place at the end.
func InDocumentOrder(nodes []dom.Node) []dom.Node {
	out := make([]dom.Node, len(nodes))
	copy(out, nodes)
	idx := make(map[any]int, len(out))
	for _, n := range out {
		idx[n.Identity()] = n.DocumentIndex()
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := idx[out[i].Identity()], idx[out[j].Identity()]
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
	return out
}

func query(tree dom.Tree, pattern string, scope dom.Node) []dom.Node {
	nodes, err := tree.Query(scope, pattern)
	if err != nil {
		locLog.Warn("pattern_failed",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()))
		return nil
	}
	return nodes
}
