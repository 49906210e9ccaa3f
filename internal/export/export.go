// Package export renders an extracted conversation as a JSON document or a
// plain-text transcript.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/Zuo-Peng/convman/internal/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
	FormatBoth Format = "both"
)

// ParseFormat accepts json, txt or both; empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatTXT, FormatBoth:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, txt or both)", s)
	}
}

// Document is the JSON export shape.
type Document struct {
	Title         string                   `json:"title"`
	URL           string                   `json:"url"`
	Timestamp     time.Time                `json:"timestamp"`
	MessageCount  int                      `json:"messageCount"`
	Conversations []model.ExtractedMessage `json:"conversations"`
}

func NewDocument(title, url string, at time.Time, msgs []model.ExtractedMessage) Document {
	if msgs == nil {
		msgs = []model.ExtractedMessage{}
	}
	return Document{
		Title:         title,
		URL:           url,
		Timestamp:     at,
		MessageCount:  len(msgs),
		Conversations: msgs,
	}
}

// FromConversation exports a saved conversation as it was at save time.
func FromConversation(c *model.Conversation) Document {
	return NewDocument(c.Title, c.URL, c.SavedAt, c.Messages)
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// ParseJSON reads a document written by WriteJSON.
func ParseJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode export: %w", err)
	}
	return doc, nil
}

// WriteTXT writes a transcript: a header block, then numbered messages.
func WriteTXT(w io.Writer, doc Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	fmt.Fprintf(&b, "URL: %s\n", doc.URL)
	fmt.Fprintf(&b, "Date: %s\n", doc.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Messages: %d\n", doc.MessageCount)
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	for i, m := range doc.Conversations {
		label := "[AI]"
		if m.Role == model.RoleUser {
			label = "[User]"
		}
		fmt.Fprintf(&b, "%s (%d):\n", label, i+1)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("-", 30))
		b.WriteString("\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// FileName is <title>_<YYYY-MM-DD>.<ext> with every run of characters that
// is not a letter, digit, dash or underscore collapsed to "_".
func FileName(title string, at time.Time, f Format) string {
	name := strings.Trim(unsafeName.ReplaceAllString(title, "_"), "_")
	if name == "" {
		name = "conversation"
	}
	return fmt.Sprintf("%s_%s.%s", name, at.Format("2006-01-02"), f)
}
