// Package transport defines the connection capability the core consumes and
// hosts the concrete implementations (ws, tcpframe, mem).
//
// Outbound traffic flows through Conn.Send: fire-and-forget, buffered, dropped
// on overflow so a slow receiver never blocks the pairing critical section.
// Inbound traffic stays transport-side: each implementation runs its own read
// loop and hands raw frames to the server one at a time in arrival order.
package transport
