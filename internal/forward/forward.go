// Package forward posts selected domain events to a remote webhook so other
// devices can mirror raid notifications. Delivery is best-effort: events are
// queued and shipped by a background goroutine, failures are logged, and a
// full queue drops the oldest entry rather than ever blocking dispatch.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/raidwatch/raidwatch/internal/events"
)

const (
	requestTimeout   = 5 * time.Second
	defaultUserAgent = "raidwatch/0.1"
	queueDepth       = 64
)

// forwardedKinds are the event kinds worth pushing off-machine.
var forwardedKinds = []events.Kind{
	events.KindMatchFound,
	events.KindRaidStarted,
	events.KindRaidExited,
	events.KindFleaSold,
	events.KindFleaOfferExpired,
	events.KindTaskStarted,
	events.KindTaskFailed,
	events.KindTaskFinished,
}

// Client ships events to one webhook endpoint.
type Client struct {
	url       string
	token     string
	http      *http.Client
	userAgent string
	queue     chan envelope
}

type envelope struct {
	Kind    events.Kind    `json:"kind"`
	Time    time.Time      `json:"time"`
	Profile events.Profile `json:"profile"`
	Event   events.Event   `json:"event"`
}

// NewClient builds a Client for the given webhook URL. Token may be empty.
func NewClient(url, token string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is empty")
	}
	return &Client{
		url:       url,
		token:     token,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		queue:     make(chan envelope, queueDepth),
	}, nil
}

// Attach subscribes the client to the forwarded event kinds and starts the
// delivery goroutine. It returns immediately.
func (c *Client) Attach(ctx context.Context, bus *events.Bus) {
	for _, kind := range forwardedKinds {
		bus.Subscribe(kind, c.enqueue)
	}
	go c.deliver(ctx)
}

func (c *Client) enqueue(ev events.Event) {
	env := envelope{Kind: ev.Kind(), Time: ev.When(), Event: ev}
	if m, ok := ev.(interface{ ProfileOf() events.Profile }); ok {
		env.Profile = m.ProfileOf()
	}
	for {
		select {
		case c.queue <- env:
			return
		default:
			// Queue full: drop the oldest so fresh events still ship.
			select {
			case <-c.queue:
			default:
			}
		}
	}
}

func (c *Client) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.queue:
			if err := c.post(ctx, env); err != nil {
				log.Printf("forward %s: %v", env.Kind, err)
			}
		}
	}
}

func (c *Client) post(ctx context.Context, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
