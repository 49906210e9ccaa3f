// Package dispatch maps named actions with a JSON payload onto extraction,
// search and the saved-conversation store. Transports (HTTP, WebSocket,
// NATS) all go through Dispatcher.Handle.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/extract"
	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/search"
	"github.com/Zuo-Peng/convman/internal/store"
)

var dispLog = logging.ForComponent(logging.CompDispatch)

// Version is reported by the ping action.
var Version = "dev"

const (
	ActionPing             = "ping"
	ActionGetStats         = "getStats"
	ActionSearch           = "search"
	ActionSearchAll        = "searchAll"
	ActionGetConversations = "getAllConversations"
	ActionNavigate         = "navigateToConversation"
	ActionHighlight        = "highlightMessage"
	ActionSaveConversation = "saveConversation"
	ActionDownload         = "download"
	ActionListSaved        = "listSaved"
	ActionGetSaved         = "getSaved"
	ActionDeleteSaved      = "deleteSaved"
	ActionSearchSaved      = "searchSaved"
)

var errNoStore = errors.New("no conversation store configured")

// ErrNoMessages is returned by Current when the page has no messages.
var ErrNoMessages = errors.New("no messages to save")

// Source produces a fresh tree for one request.
type Source func(ctx context.Context) (dom.Tree, error)

// Request is an action plus its parameters. Unused fields are ignored.
type Request struct {
	Action         string `json:"action"`
	Query          string `json:"query,omitempty"`
	Index          int    `json:"index,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ID             string `json:"id,omitempty"`
	Format         string `json:"format,omitempty"`
}

// Response is the JSON object returned for an action.
type Response map[string]any

type Options struct {
	Source    Source
	Extractor *extract.Extractor
	Engine    *search.Engine

	// Store is optional; the saved-conversation actions fail without it.
	Store store.Store

	// OpenURL navigates when the sidebar entry cannot be activated in place.
	OpenURL func(url string) error

	Now func() time.Time
}

type Dispatcher struct {
	source  Source
	ex      *extract.Extractor
	engine  *search.Engine
	store   store.Store
	openURL func(string) error
	now     func() time.Time
}

func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		source:  opts.Source,
		ex:      opts.Extractor,
		engine:  opts.Engine,
		store:   opts.Store,
		openURL: opts.OpenURL,
		now:     opts.Now,
	}
	if d.ex == nil {
		d.ex = extract.New(extract.DefaultLocators())
	}
	if d.engine == nil {
		d.engine = search.New(search.DefaultParams())
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// HandleJSON decodes a request, handles it and encodes the response.
func (d *Dispatcher) HandleJSON(ctx context.Context, payload []byte) []byte {
	var req Request
	var resp Response
	if err := json.Unmarshal(payload, &req); err != nil {
		resp = failure(fmt.Errorf("decode request: %w", err))
	} else {
		resp = d.Handle(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(failure(err))
	}
	return out
}

// Handle runs one action. Failures are reported in the response, never
// returned.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	resp, err := d.handle(ctx, req)
	if err != nil {
		dispLog.Warn("action_failed",
			slog.String("action", req.Action),
			slog.String("error", err.Error()))
		resp = failure(err)
	}
	dispLog.Debug("action_handled",
		slog.String("action", req.Action),
		slog.Duration("took", time.Since(start)))
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, req Request) (Response, error) {
	switch req.Action {
	case ActionPing:
		return Response{"status": "active", "version": Version}, nil
	case ActionGetStats:
		return d.stats(ctx)
	case ActionSearch:
		return d.search(ctx, req.Query)
	case ActionSearchAll:
		return d.searchAll(ctx, req.Query)
	case ActionGetConversations:
		return d.conversations(ctx)
	case ActionNavigate:
		return d.navigate(ctx, req.ConversationID)
	case ActionHighlight:
		return d.highlight(ctx, req.Index)
	case ActionSaveConversation:
		return d.save(ctx)
	case ActionDownload:
		return d.download(ctx, req.Format)
	case ActionListSaved:
		return d.listSaved(ctx)
	case ActionGetSaved:
		return d.getSaved(ctx, req.ID)
	case ActionDeleteSaved:
		return d.deleteSaved(ctx, req.ID)
	case ActionSearchSaved:
		return d.searchSaved(ctx, req.Query)
	default:
		return Response{"error": "unknown action"}, nil
	}
}

func failure(err error) Response {
	return Response{"success": false, "error": err.Error()}
}

func (d *Dispatcher) tree(ctx context.Context) (dom.Tree, error) {
	if d.source == nil {
		return nil, errors.New("no document source configured")
	}
	tree, err := d.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return tree, nil
}
