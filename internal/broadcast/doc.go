// Package broadcast tracks the set of live WebSocket connections and
// provides broadcast-to-all and send-to-one delivery with dead-connection
// cleanup. A single hub goroutine owns the live set; all mutation goes
// through its command mailbox.
package broadcast
