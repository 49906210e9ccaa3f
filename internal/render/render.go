package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/convman/internal/model"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitIndex int    // message to mark, -1 for none
	Context  int    // messages before/after hit to show; 0 = 10, <0 = all
	Width    int    // wrap width (0 = no wrap)
	Query    string // search query for keyword highlighting
	NoColor  bool
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		lower := []rune(strings.ToLower(term))
		i := 0
		for i < len(text) {
			pos, n := indexFold(text[i:], lower)
			if pos < 0 {
				break
			}
			pos += i
			replacement := colorBoldRed + text[pos:pos+n] + colorReset
			text = text[:pos] + replacement + text[pos+n:]
			i = pos + len(replacement)
		}
	}
	return text
}

// indexFold finds lower in s ignoring case and returns the byte offset and
// byte length of the match in s.
func indexFold(s string, lower []rune) (int, int) {
	if len(lower) == 0 {
		return -1, 0
	}
	for start := 0; start < len(s); {
		i, ok := start, true
		for _, want := range lower {
			if i >= len(s) {
				ok = false
				break
			}
			r, size := utf8.DecodeRuneInString(s[i:])
			if !strings.EqualFold(string(r), string(want)) {
				ok = false
				break
			}
			i += size
		}
		if ok {
			return start, i - start
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		start += size
	}
	return -1, 0
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// StripANSI removes the escape sequences this package writes.
func StripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// RenderConversation renders messages around the hit and returns the content
// and the 0-based line number of the hit message header (-1 if no hit).
func RenderConversation(title, url string, msgs []model.ExtractedMessage, opts Options) (string, int) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if len(msgs) == 0 {
		return "(empty conversation)", -1
	}

	start, end := 0, len(msgs)
	if opts.Context > 0 && opts.HitIndex >= 0 && opts.HitIndex < len(msgs) {
		start = max(0, opts.HitIndex-opts.Context)
		end = min(len(msgs), opts.HitIndex+opts.Context+1)
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + strings.Repeat("-", 50) + colorReset

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	// header
	if url != "" {
		writeLine(fmt.Sprintf("%s--- %s [%s] ---%s", colorDim, title, url, colorReset))
	} else {
		writeLine(fmt.Sprintf("%s--- %s ---%s", colorDim, title, colorReset))
	}

	if start > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, start, colorReset))
	}

	for i := start; i < end; i++ {
		m := msgs[i]
		isHit := i == opts.HitIndex

		// separator between messages
		if i > start {
			writeLine(separator)
		}

		if isHit {
			hitLine = lineCount
		}

		roleColor, roleLabel := colorAssist, "AI"
		if m.Role == model.RoleUser {
			roleColor, roleLabel = colorUser, "USER"
		}

		if isHit {
			writeLine(fmt.Sprintf("%s>> %s %d > %s <<%s", colorHit, roleLabel, i+1, m.TimestampRaw, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s %d >%s %s%s%s", roleColor, roleLabel, i+1, colorReset, colorDim, m.TimestampRaw, colorReset))
		}

		text := highlightKeywords(m.Content, opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("") // blank line after message
	}

	if after := len(msgs) - end; after > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, after, colorReset))
	}

	out := b.String()
	if opts.NoColor {
		out = StripANSI(out)
	}
	return out, hitLine
}
