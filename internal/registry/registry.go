// Package registry tracks the live set of observer connections and fans
// accepted payloads out to them. Membership mutations and broadcasts may
// arrive concurrently from independent connection lifecycles.
package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akiroussama/codeClashServer/internal/metrics"
)

type Registry struct {
	mu    sync.RWMutex
	conns map[*Connection]struct{}

	sendBuffer   int
	writeTimeout time.Duration
}

func New(sendBuffer int, writeTimeout time.Duration) *Registry {
	return &Registry{
		conns:        make(map[*Connection]struct{}),
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
	}
}

func (r *Registry) register(c *Connection) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
	metrics.ObserverConnections.Inc()
}

// unregister removes the connection if present. Repeated disconnect
// signals for the same handle are no-ops.
func (r *Registry) unregister(c *Connection) {
	r.mu.Lock()
	_, present := r.conns[c]
	delete(r.conns, c)
	r.mu.Unlock()
	if present {
		metrics.ObserverConnections.Dec()
	}
	c.close()
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers an already-serialized payload to every connection
// whose transport is open. Non-open connections are skipped, not removed;
// removal happens only via the disconnect signal. Per-connection failures
// are isolated and nothing propagates to the caller.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(payload) {
			metrics.BroadcastDrops.Inc()
		}
	}
	metrics.BroadcastsTotal.Inc()
}

// Serve registers an upgraded websocket connection and blocks until the
// observer disconnects, then removes it. Inbound messages are read and
// discarded; the channel is push-only.
func (r *Registry) Serve(ws *websocket.Conn) {
	c := newConnection(ws, r.sendBuffer, r.writeTimeout)
	r.register(c)
	slog.Debug("observer connected", slog.String("remote", ws.RemoteAddr().String()))

	go c.writePump()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	r.unregister(c)
	slog.Debug("observer disconnected", slog.String("remote", ws.RemoteAddr().String()))
}
