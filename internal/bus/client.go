// Package bus fronts the dispatcher on NATS and publishes snapshot events.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Zuo-Peng/convman/internal/logging"
)

var busLog = logging.ForComponent(logging.CompBus)

const (
	// SubjectDispatch takes a dispatch request and replies with its response.
	SubjectDispatch = "convman.dispatch"

	SubjectSnapshotChanged = "convman.snapshot.changed"

	queueGroup = "convman"
)

// SnapshotChanged is published after a watched page is re-imported.
type SnapshotChanged struct {
	Path           string    `json:"path"`
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	MessageCount   int       `json:"message_count"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Handler answers a raw JSON request.
type Handler interface {
	HandleJSON(ctx context.Context, payload []byte) []byte
}

type Client struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func NewClient(url, token string) (*Client, error) {
	opts := []nats.Option{
		nats.Name("convman"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				busLog.Warn("nats_disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			busLog.Info("nats_reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	busLog.Info("subscribed", slog.String("subject", subject))
	return nil
}

// Serve answers requests on subject with h. Several convman processes may
// serve the same subject; each request goes to one of them.
func (c *Client) Serve(ctx context.Context, subject string, h Handler) error {
	sub, err := c.conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		reply := h.HandleJSON(ctx, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			busLog.Warn("respond_failed", slog.String("subject", subject), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	busLog.Info("serving", slog.String("subject", subject))
	return nil
}

// Request sends a dispatch request and waits for the reply.
func (c *Client) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	return msg.Data, nil
}

// Ping round-trips to the server. Connect succeeds without a server while
// retrying, so this is how callers learn the link is up.
func (c *Client) Ping(timeout time.Duration) error {
	return c.conn.FlushTimeout(timeout)
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
