package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/export"
	"github.com/Zuo-Peng/convman/internal/model"
	"github.com/Zuo-Peng/convman/internal/store"
)

func (d *Dispatcher) stats(ctx context.Context) (Response, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	return Response{"messageCount": len(d.ex.Messages(tree))}, nil
}

func (d *Dispatcher) search(ctx context.Context, query string) (Response, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	return results(d.engine.Search(d.ex.Messages(tree), query)), nil
}

func (d *Dispatcher) searchAll(ctx context.Context, query string) (Response, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	return results(d.engine.SearchAll(d.ex.Summaries(tree), query)), nil
}

func results(r []model.SearchResult) Response {
	if r == nil {
		r = []model.SearchResult{}
	}
	return Response{"success": true, "count": len(r), "results": r}
}

type conversationRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

func (d *Dispatcher) conversations(ctx context.Context) (Response, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	summaries := d.ex.Summaries(tree)
	refs := make([]conversationRef, len(summaries))
	for i, s := range summaries {
		refs[i] = conversationRef{ID: s.ID, Title: s.Title, Date: s.Date}
	}
	return Response{"success": true, "count": len(refs), "conversations": refs}, nil
}

func (d *Dispatcher) navigate(ctx context.Context, id string) (Response, error) {
	if id == "" {
		return nil, errors.New("conversationId is required")
	}
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	s, err := d.ex.FindSummary(tree, id)
	if err != nil {
		return nil, err
	}

	if a, ok := s.NodeRef.(dom.Activator); ok {
		if err := a.Activate(); err != nil {
			return nil, fmt.Errorf("activate %s: %w", id, err)
		}
		return Response{"success": true, "activated": true, "url": s.URL}, nil
	}
	if s.URL != "" && d.openURL != nil {
		if err := d.openURL(s.URL); err != nil {
			return nil, fmt.Errorf("open %s: %w", s.URL, err)
		}
	}
	return Response{"success": true, "activated": false, "url": s.URL}, nil
}

func (d *Dispatcher) highlight(ctx context.Context, index int) (Response, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	n, err := d.ex.Locate(tree, index)
	if err != nil {
		return nil, err
	}
	h, ok := n.(dom.Highlighter)
	if !ok {
		return Response{"success": true, "highlighted": false, "index": index}, nil
	}
	if err := h.Highlight(); err != nil {
		return nil, fmt.Errorf("highlight message %d: %w", index, err)
	}
	return Response{"success": true, "highlighted": true, "index": index}, nil
}

// Current extracts the open conversation into its saved form without storing
// it.
func (d *Dispatcher) Current(ctx context.Context) (*model.Conversation, error) {
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	msgs := d.ex.Messages(tree)
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	now := d.now()
	title := d.ex.ConversationTitle(tree, msgs)
	if title == "" {
		title = "Conversation from " + now.Format("2006-01-02")
	}
	return &model.Conversation{
		ID:           store.NewID(now),
		Title:        title,
		URL:          tree.URL(),
		SavedAt:      now.UTC(),
		MessageCount: len(msgs),
		Messages:     msgs,
	}, nil
}

func (d *Dispatcher) save(ctx context.Context) (Response, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	c, err := d.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, c); err != nil {
		return nil, err
	}
	dispLog.Info("conversation_saved",
		slog.String("id", c.ID),
		slog.Int("messages", c.MessageCount))
	return Response{
		"success":        true,
		"conversationId": c.ID,
		"messageCount":   c.MessageCount,
		"title":          c.Title,
	}, nil
}

// ExportFile is one file of a download response.
type ExportFile struct {
	Name    string        `json:"name"`
	Format  export.Format `json:"format"`
	Content string        `json:"content"`
}

func (d *Dispatcher) download(ctx context.Context, format string) (Response, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	tree, err := d.tree(ctx)
	if err != nil {
		return nil, err
	}
	now := d.now()
	doc := export.NewDocument(d.ex.PageTitle(tree), tree.URL(), now, d.ex.Messages(tree))

	var files []ExportFile
	if f == export.FormatJSON || f == export.FormatBoth {
		var buf bytes.Buffer
		if err := export.WriteJSON(&buf, doc); err != nil {
			return nil, err
		}
		files = append(files, ExportFile{export.FileName(doc.Title, now, export.FormatJSON), export.FormatJSON, buf.String()})
	}
	if f == export.FormatTXT || f == export.FormatBoth {
		var buf bytes.Buffer
		if err := export.WriteTXT(&buf, doc); err != nil {
			return nil, err
		}
		files = append(files, ExportFile{export.FileName(doc.Title, now, export.FormatTXT), export.FormatTXT, buf.String()})
	}
	return Response{"success": true, "messageCount": doc.MessageCount, "files": files}, nil
}

// Files returns the files carried by a download response.
func Files(resp Response) ([]ExportFile, error) {
	files, ok := resp["files"].([]ExportFile)
	if !ok {
		return nil, errors.New("response carries no files")
	}
	return files, nil
}

func (d *Dispatcher) listSaved(ctx context.Context) (Response, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	list, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []store.Summary{}
	}
	return Response{"success": true, "count": len(list), "conversations": list}, nil
}

func (d *Dispatcher) getSaved(ctx context.Context, id string) (Response, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	c, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("saved conversation not found: %s", id)
	}
	return Response{"success": true, "conversation": c}, nil
}

func (d *Dispatcher) deleteSaved(ctx context.Context, id string) (Response, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	ok, err := d.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return Response{"success": true, "deleted": ok}, nil
}

func (d *Dispatcher) searchSaved(ctx context.Context, query string) (Response, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	convs, err := LoadSaved(ctx, d.store)
	if err != nil {
		return nil, err
	}
	return results(d.engine.FilterSaved(convs, query)), nil
}

// LoadSaved reads every saved conversation in list order.
func LoadSaved(ctx context.Context, st store.Store) ([]model.Conversation, error) {
	list, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	convs := make([]model.Conversation, 0, len(list))
	for _, s := range list {
		c, err := st.Get(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			convs = append(convs, *c)
		}
	}
	return convs, nil
}
