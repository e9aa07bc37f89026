package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	irc "github.com/gempir/go-twitch-irc/v4"

	"github.com/alejandrade/twitch-bot/internal/metrics"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// Subscription is a cancelable handle on a bridge event listener.
type Subscription struct {
	cancel func()
}

// NewSubscription wraps a cancel function in a Subscription handle.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel detaches the listener. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

type listenerSet struct {
	chat          map[int]func(ChatMessage)
	subscriptions map[int]func(SubscriptionEvent)
	bits          map[int]func(BitsEvent)
	raids         map[int]func(RaidEvent)
	next          int
}

// Bridge maintains the IRC chat connection as an explicit state machine
// (disconnected, connecting, connected) so that connect-then-act is one
// coordinated operation instead of a check-then-call race.
type Bridge struct {
	mu        sync.Mutex
	state     connState
	creds     Credentials
	client    *irc.Client
	listeners listenerSet
}

func NewBridge() *Bridge {
	return &Bridge{
		listeners: listenerSet{
			chat:          make(map[int]func(ChatMessage)),
			subscriptions: make(map[int]func(SubscriptionEvent)),
			bits:          make(map[int]func(BitsEvent)),
			raids:         make(map[int]func(RaidEvent)),
		},
	}
}

// SetCredentials stores the bot account to use on the next Connect. It
// fails while a connection is live; disconnect first.
func (b *Bridge) SetCredentials(creds Credentials) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateDisconnected {
		return fmt.Errorf("cannot change credentials while connected")
	}
	b.creds = creds
	return nil
}

// Connected reports whether the chat connection is established.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateConnected
}

// Connect establishes the chat connection and joins the configured
// channel. It blocks until the server acknowledges the connection or ctx
// expires. Connecting while already connected is a no-op; a second
// concurrent Connect fails instead of racing the first.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case stateConnected:
		b.mu.Unlock()
		return nil
	case stateConnecting:
		b.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	}

	if b.creds.Username == "" || b.creds.AccessToken == "" {
		b.mu.Unlock()
		return fmt.Errorf("no credentials set, authenticate first")
	}
	if b.creds.Channel == "" {
		b.mu.Unlock()
		return fmt.Errorf("no channel configured")
	}

	client := irc.NewClient(b.creds.Username, "oauth:"+b.creds.AccessToken)
	channel := b.creds.Channel

	connected := make(chan struct{})
	var connectedOnce sync.Once
	client.OnConnect(func() {
		b.mu.Lock()
		if b.client == client {
			b.state = stateConnected
		}
		b.mu.Unlock()
		connectedOnce.Do(func() { close(connected) })
	})
	b.wireCallbacks(client)
	client.Join(channel)

	b.state = stateConnecting
	b.client = client
	b.mu.Unlock()

	failed := make(chan error, 1)
	go func() {
		// Connect blocks for the lifetime of the connection.
		if err := client.Connect(); err != nil {
			failed <- err
		}
		b.releaseClient(client)
	}()

	select {
	case <-connected:
		slog.Info("Connected to Twitch chat", "channel", channel)
		return nil
	case err := <-failed:
		return fmt.Errorf("failed to connect to Twitch chat: %w", err)
	case <-ctx.Done():
		_ = client.Disconnect()
		return fmt.Errorf("twitch chat connect canceled: %w", ctx.Err())
	}
}

// releaseClient resets the connection state, but only while the given
// client still owns it. The monitor goroutine of a previous connection can
// outlive a disconnect-then-reconnect sequence; it must not clobber the
// state of the connection that replaced it.
func (b *Bridge) releaseClient(client *irc.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == client {
		b.state = stateDisconnected
		b.client = nil
	}
}

// Disconnect closes the chat connection. Safe to call when not connected.
func (b *Bridge) Disconnect() error {
	b.mu.Lock()
	client := b.client
	b.state = stateDisconnected
	b.client = nil
	b.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from Twitch chat: %w", err)
	}
	slog.Info("Disconnected from Twitch chat")
	return nil
}

// SendMessage posts a chat line to the joined channel.
func (b *Bridge) SendMessage(text string) error {
	client, channel, err := b.liveClient()
	if err != nil {
		return err
	}
	client.Say(channel, text)
	return nil
}

// Ban permanently bans a user from the channel.
func (b *Bridge) Ban(user, reason string) error {
	client, channel, err := b.liveClient()
	if err != nil {
		return err
	}
	client.Say(channel, fmt.Sprintf("/ban %s %s", user, reason))
	return nil
}

// Timeout removes a user from chat for the given number of seconds.
func (b *Bridge) Timeout(user string, seconds int, reason string) error {
	client, channel, err := b.liveClient()
	if err != nil {
		return err
	}
	client.Say(channel, fmt.Sprintf("/timeout %s %d %s", user, seconds, reason))
	return nil
}

// Unban lifts a ban.
func (b *Bridge) Unban(user string) error {
	client, channel, err := b.liveClient()
	if err != nil {
		return err
	}
	client.Say(channel, fmt.Sprintf("/unban %s", user))
	return nil
}

func (b *Bridge) liveClient() (*irc.Client, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateConnected || b.client == nil {
		return nil, "", fmt.Errorf("not connected to Twitch chat")
	}
	return b.client, b.creds.Channel, nil
}

// SubscribeChat attaches a chat-message listener. Multiple listeners are
// supported; each receives every message until canceled.
func (b *Bridge) SubscribeChat(fn func(ChatMessage)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.listeners.next
	b.listeners.next++
	b.listeners.chat[id] = fn
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners.chat, id)
	}}
}

// SubscribeSubscriptions attaches a subscription-event listener.
func (b *Bridge) SubscribeSubscriptions(fn func(SubscriptionEvent)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.listeners.next
	b.listeners.next++
	b.listeners.subscriptions[id] = fn
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners.subscriptions, id)
	}}
}

// SubscribeBits attaches a bits listener.
func (b *Bridge) SubscribeBits(fn func(BitsEvent)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.listeners.next
	b.listeners.next++
	b.listeners.bits[id] = fn
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners.bits, id)
	}}
}

// SubscribeRaids attaches a raid listener.
func (b *Bridge) SubscribeRaids(fn func(RaidEvent)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.listeners.next
	b.listeners.next++
	b.listeners.raids[id] = fn
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners.raids, id)
	}}
}

func (b *Bridge) wireCallbacks(client *irc.Client) {
	client.OnPrivateMessage(func(m irc.PrivateMessage) {
		if m.Bits > 0 {
			metrics.TwitchChatEventsTotal.WithLabelValues("bits").Inc()
			b.emitBits(BitsEvent{Username: m.User.DisplayName, Amount: m.Bits, Message: m.Message})
		}
		metrics.TwitchChatEventsTotal.WithLabelValues("message").Inc()
		b.emitChat(ChatMessage{Username: m.User.DisplayName, Channel: m.Channel, Message: m.Message})
	})

	client.OnUserNoticeMessage(func(m irc.UserNoticeMessage) {
		switch m.MsgID {
		case "sub", "resub", "subgift":
			months, _ := strconv.Atoi(m.MsgParams["msg-param-cumulative-months"])
			metrics.TwitchChatEventsTotal.WithLabelValues("subscription").Inc()
			b.emitSubscription(SubscriptionEvent{
				Username: m.User.DisplayName,
				Plan:     m.MsgParams["msg-param-sub-plan"],
				Months:   months,
				Message:  m.Message,
			})
		case "raid":
			viewers, _ := strconv.Atoi(m.MsgParams["msg-param-viewerCount"])
			metrics.TwitchChatEventsTotal.WithLabelValues("raid").Inc()
			b.emitRaid(RaidEvent{Username: m.User.DisplayName, Viewers: viewers})
		}
	})
}

func (b *Bridge) emitChat(m ChatMessage) {
	for _, fn := range b.snapshotChat() {
		fn(m)
	}
}

func (b *Bridge) emitSubscription(s SubscriptionEvent) {
	b.mu.Lock()
	fns := make([]func(SubscriptionEvent), 0, len(b.listeners.subscriptions))
	for _, fn := range b.listeners.subscriptions {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (b *Bridge) emitBits(ev BitsEvent) {
	b.mu.Lock()
	fns := make([]func(BitsEvent), 0, len(b.listeners.bits))
	for _, fn := range b.listeners.bits {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (b *Bridge) emitRaid(ev RaidEvent) {
	b.mu.Lock()
	fns := make([]func(RaidEvent), 0, len(b.listeners.raids))
	for _, fn := range b.listeners.raids {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (b *Bridge) snapshotChat() []func(ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fns := make([]func(ChatMessage), 0, len(b.listeners.chat))
	for _, fn := range b.listeners.chat {
		fns = append(fns, fn)
	}
	return fns
}
