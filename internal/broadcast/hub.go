package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/logging"
	"github.com/alejandrade/twitch-bot/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// ErrNotRegistered is returned by SendTo when the target connection is not
// in the live set (never added, already removed, or evicted mid-call).
var ErrNotRegistered = fmt.Errorf("connection not registered")

// client pairs a connection's writer with the identity used in logs.
type client struct {
	id     uuid.UUID
	writer *clientWriter
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection  *websocket.Conn
	doneChannel chan struct{}
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	data []byte
}

type sendToCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	data         []byte
	errorChannel chan error
}

type countCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub owns the live-connection set. One goroutine processes all commands,
// so membership never mutates concurrently with a broadcast; the only
// removal path during iteration is the hub's own eviction of dead or slow
// writers.
type Hub struct {
	cmdCh   chan hubCmd
	clock   clockwork.Clock
	clients map[*websocket.Conn]*client
	done    chan struct{}
}

func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		clients: make(map[*websocket.Conn]*client),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

// Register inserts a connection into the live set. Insertion is idempotent
// by identity: registering a connection that is already live is a no-op.
// Blocks until the hub has processed the command or the command times out.
func (h *Hub) Register(conn *websocket.Conn) {
	done := make(chan struct{})
	h.cmdCh <- registerCmd{connection: conn, doneChannel: done}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.Chan():
		slog.Warn("Register timed out", "timeout", commandTimeout)
	}
}

// Unregister removes a connection from the live set. Safe to call multiple
// times or on a connection that was never registered.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// Broadcast delivers data to every live connection. Serialization happened
// once at the caller; delivery is best-effort and unordered across
// connections, FIFO per connection. Connections whose writer has stopped
// or whose send buffer is full are evicted as part of the same call.
func (h *Hub) Broadcast(data []byte) {
	metrics.HubBroadcastsTotal.Inc()
	h.cmdCh <- broadcastCmd{data: data}
}

// SendTo delivers data to a single live connection with the same
// check-then-send-or-evict discipline as Broadcast.
func (h *Hub) SendTo(conn *websocket.Conn, data []byte) error {
	errCh := make(chan error, 1)
	h.cmdCh <- sendToCmd{connection: conn, data: data, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("sendTo command timed out after %v", commandTimeout)
	}
}

// Count returns the current live-connection cardinality. Returns -1 if the
// command times out.
func (h *Hub) Count() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- countCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("Count timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all client connections. Blocks until
// the hub goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connection)
		case broadcastCmd:
			h.handleBroadcast(c)
		case sendToCmd:
			c.errorChannel <- h.handleSendTo(c)
		case countCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	defer close(c.doneChannel)

	if _, exists := h.clients[c.connection]; exists {
		slog.Debug("Connection already registered", "total_clients", len(h.clients))
		return
	}

	h.clients[c.connection] = &client{
		id:     uuid.New(),
		writer: newClientWriter(c.connection, h.clock),
	}

	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	logging.WithConnection(h.clients[c.connection].id.String()).Info("Connection registered", "total_clients", len(h.clients))
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cl, exists := h.clients[conn]
	if !exists {
		return
	}

	cl.writer.stop()
	delete(h.clients, conn)

	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	logging.WithConnection(cl.id.String()).Info("Connection unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	var evict []*websocket.Conn
	for conn, cl := range h.clients {
		if cl.writer.stopped() {
			evict = append(evict, conn)
			continue
		}
		select {
		case cl.writer.sendChannel <- c.data:
		default:
			// client is slow, mark for removal
			evict = append(evict, conn)
		}
	}

	for _, conn := range evict {
		logging.WithConnection(h.clients[conn].id.String()).Warn("Evicting dead or slow connection")
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleSendTo(c sendToCmd) error {
	cl, exists := h.clients[c.connection]
	if !exists {
		return ErrNotRegistered
	}

	if cl.writer.stopped() {
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(c.connection)
		return ErrNotRegistered
	}

	select {
	case cl.writer.sendChannel <- c.data:
		return nil
	default:
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(c.connection)
		return fmt.Errorf("send buffer full, connection evicted")
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "total_clients", len(h.clients))
	h.closeAllClients("Server shutting down")
}

func (h *Hub) closeAllClients(reason string) {
	for conn, cl := range h.clients {
		cl.writer.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}
