// Package search ranks messages and conversations against a query with
// exact, word-overlap and subsequence tiers.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/convman/internal/model"
)

// Params are the tuning constants of the match cascade.
type Params struct {
	// SnippetRadius is the context kept on each side of an in-conversation
	// hit, in runes.
	SnippetRadius int `toml:"snippet_radius"`
	// SummarySnippetRadius is the same for sidebar hits.
	SummarySnippetRadius int `toml:"summary_snippet_radius"`

	ExactScore float64 `toml:"exact_score"`
	WordScore  float64 `toml:"word_score"`
	// MinWordLength: a query word counts toward overlap only when longer
	// than this many runes.
	MinWordLength int `toml:"min_word_length"`

	// FuzzyCap is the subsequence score of a full match; a subsequence
	// score is a hit only above FuzzyThreshold.
	FuzzyCap       float64 `toml:"fuzzy_cap"`
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
}

func DefaultParams() Params {
	return Params{
		SnippetRadius:        50,
		SummarySnippetRadius: 40,
		ExactScore:           100,
		WordScore:            80,
		MinWordLength:        2,
		FuzzyCap:             60,
		FuzzyThreshold:       40,
	}
}

type Engine struct {
	p Params
}

func New(p Params) *Engine {
	return &Engine{p: p}
}

// Search runs an exact search with the default parameters.
func Search(messages []model.ExtractedMessage, query string) []model.SearchResult {
	return New(DefaultParams()).Search(messages, query)
}

// Search finds every message whose content contains query, ignoring case.
// Results keep message order; a blank query matches nothing.
func (e *Engine) Search(messages []model.ExtractedMessage, query string) []model.SearchResult {
	q := normalize(query)
	if q == "" {
		return nil
	}
	qRunes := []rune(q)

	var results []model.SearchResult
	for i, m := range messages {
		text := []rune(m.Content)
		pos := indexRunes(lowerRunes(text), qRunes)
		if pos < 0 {
			continue
		}
		results = append(results, model.SearchResult{
			SourceIndex:   i,
			Role:          m.Role,
			Content:       m.Content,
			Snippet:       makeSnippet(text, pos, len(qRunes), e.p.SnippetRadius),
			MatchPosition: pos,
			Score:         e.p.ExactScore,
			ExactMatch:    true,
			MatchedField:  model.FieldContent,
		})
	}
	return results
}

type match struct {
	hit   bool
	score float64
	exact bool
}

// SearchAll ranks sidebar summaries against query by the better of their
// title and full-text scores, highest first.
func (e *Engine) SearchAll(summaries []model.ConversationSummary, query string) []model.SearchResult {
	q := normalize(query)
	if q == "" {
		return nil
	}
	qRunes := []rune(q)

	var results []model.SearchResult
	for _, s := range summaries {
		title := e.score(s.Title, q)
		content := e.score(s.FullText, q)

		best, field := content, model.FieldContent
		if title.score > content.score {
			best, field = title, model.FieldTitle
		}
		if !best.hit {
			continue
		}

		full := []rune(s.FullText)
		snippet := s.Title
		pos := indexRunes(lowerRunes(full), qRunes)
		if pos >= 0 {
			snippet = makeSnippet(full, pos, len(qRunes), e.p.SummarySnippetRadius)
		}

		results = append(results, model.SearchResult{
			SourceIndex:   s.SequenceIndex,
			ID:            s.ID,
			Title:         s.Title,
			Date:          s.Date,
			URL:           s.URL,
			Content:       s.FullText,
			Snippet:       snippet,
			MatchPosition: pos,
			Score:         best.score,
			ExactMatch:    best.exact,
			MatchedField:  field,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// score runs the cascade for one field. q is already normalized.
func (e *Engine) score(field, q string) match {
	lower := strings.Map(unicode.ToLower, field)

	if strings.Contains(lower, q) {
		return match{hit: true, score: e.p.ExactScore, exact: true}
	}

	words := strings.Fields(q)
	matched := 0
	for _, w := range words {
		if len([]rune(w)) > e.p.MinWordLength && strings.Contains(lower, w) {
			matched++
		}
	}
	if matched > 0 {
		return match{hit: true, score: float64(matched) / float64(len(words)) * e.p.WordScore}
	}

	qRunes := []rune(q)
	fieldRunes := []rune(lower)
	found, last := 0, -1
	for _, r := range qRunes {
		// a miss leaves the cursor where it was
		if i := indexRunes(fieldRunes[last+1:], []rune{r}); i >= 0 {
			found++
			last += i + 1
		}
	}
	fuzzy := float64(found) / float64(len(qRunes)) * e.p.FuzzyCap
	if fuzzy > e.p.FuzzyThreshold {
		return match{hit: true, score: fuzzy}
	}
	return match{}
}

// normalize lowers rune by rune so rune offsets in the lowered text line up
// with the original.
func normalize(query string) string {
	return strings.Map(unicode.ToLower, strings.TrimSpace(query))
}

func lowerRunes(r []rune) []rune {
	out := make([]rune, len(r))
	for i, c := range r {
		out[i] = unicode.ToLower(c)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

// makeSnippet cuts radius runes of context around the match at pos, marking
// clipped ends with "...".
func makeSnippet(text []rune, pos, qLen, radius int) string {
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + qLen + radius
	if end > len(text) {
		end = len(text)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(text) {
		suffix = "..."
	}
	return prefix + string(text[start:end]) + suffix
}
