package obs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreykaipov/goobs"
	"github.com/andreykaipov/goobs/api/events"
	"github.com/sony/gobreaker"

	"github.com/alejandrade/twitch-bot/internal/metrics"
)

const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

// StateChange is raised whenever the streaming output starts or stops.
type StateChange struct {
	Streaming bool
}

// Controller is the streaming-control surface handlers depend on.
type Controller interface {
	IsStreaming(ctx context.Context) (bool, error)
	StartStreaming(ctx context.Context) error
	StopStreaming(ctx context.Context) error
}

// Subscription is a cancelable handle on a state-change listener.
type Subscription struct {
	cancel func()
}

// Cancel detaches the listener. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Client is the production Controller backed by an OBS WebSocket
// connection. OBS calls can hang when the application is busy with a
// scene collection load, so every request runs through a circuit breaker
// that degrades calls to fast failures.
type Client struct {
	url      string
	password string
	breaker  *gobreaker.CircuitBreaker

	mu           sync.Mutex
	conn         *goobs.Client
	listeners    map[int]func(StateChange)
	nextListener int
}

func NewClient(url, password string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "obs",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		Timeout: breakerOpenDuration,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("OBS circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		url:       url,
		password:  password,
		breaker:   breaker,
		listeners: make(map[int]func(StateChange)),
	}
}

// Connect establishes the OBS WebSocket session and starts the event
// listener that translates StreamStateChanged notifications.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := goobs.New(c.url, goobs.WithPassword(c.password))
	if err != nil {
		return fmt.Errorf("failed to connect to OBS at %s: %w", c.url, err)
	}
	c.conn = conn

	go c.listen(conn)

	slog.Info("Connected to OBS", "url", c.url)
	return nil
}

// Close tears down the OBS session. Safe to call when never connected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return conn.Disconnect()
}

// IsStreaming reports whether the streaming output is currently active.
func (c *Client) IsStreaming(ctx context.Context) (bool, error) {
	result, err := c.execute("GetStreamStatus", func(conn *goobs.Client) (any, error) {
		resp, err := conn.Stream.GetStreamStatus()
		if err != nil {
			return nil, err
		}
		return resp.OutputActive, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// StartStreaming starts the streaming output.
func (c *Client) StartStreaming(ctx context.Context) error {
	_, err := c.execute("StartStream", func(conn *goobs.Client) (any, error) {
		return conn.Stream.StartStream()
	})
	return err
}

// StopStreaming stops the streaming output.
func (c *Client) StopStreaming(ctx context.Context) error {
	_, err := c.execute("StopStream", func(conn *goobs.Client) (any, error) {
		return conn.Stream.StopStream()
	})
	return err
}

// SubscribeState attaches a listener for stream state changes. Multiple
// listeners are supported; each receives every change until canceled.
func (c *Client) SubscribeState(fn func(StateChange)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn

	return &Subscription{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}}
}

func (c *Client) execute(operation string, fn func(conn *goobs.Client) (any, error)) (any, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		metrics.OBSRequestsTotal.WithLabelValues(operation, "not_connected").Inc()
		return nil, fmt.Errorf("not connected to OBS")
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return fn(conn)
	})
	if err != nil {
		metrics.OBSRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("OBS %s failed: %w", operation, err)
	}

	metrics.OBSRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return result, nil
}

func (c *Client) listen(conn *goobs.Client) {
	conn.Listen(func(event any) {
		switch e := event.(type) {
		case *events.StreamStateChanged:
			slog.Debug("OBS stream state changed", "active", e.OutputActive, "state", e.OutputState)
			c.notify(StateChange{Streaming: e.OutputActive})
		}
	})
}

func (c *Client) notify(change StateChange) {
	c.mu.Lock()
	listeners := make([]func(StateChange), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}
