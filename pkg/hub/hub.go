// Package hub is the single owner of pairing state. One mutex guards the
// connection registry, the matchmaking queue, and the symmetric paired map;
// every operation that reads-then-writes them runs as one critical section so
// the cross-map invariants hold atomically:
//
//   - paired[a] = b ⇔ paired[b] = a, and both records carry the same key
//   - an id sits in at most one of {queue, paired map}
//   - a queued id always resolves to a live, open connection at pop time
//
// Nothing in the hub blocks: transport sends are fire-and-forget and crypto
// is CPU-only, so a slow receiver never stalls pairing for other users.
package hub

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textanon/pkg/match"
	"textanon/pkg/moderation"
	"textanon/pkg/registry"
	"textanon/pkg/transport"

	"textanon/pkg/protocol"
)

// User-facing notice texts.
const (
	noticeConnected      = "You are now connected to a stranger. Say hi!"
	noticeNoPartner      = "You have no chat partner yet. Hang tight while we find one."
	noticeSecureError    = "Secure connection error. Please reconnect."
	noticeBadMessage     = "Your message could not be processed."
	noticeEmptyMessage   = "Your message was empty after filtering and was not sent."
	noticeCensored       = "Your message contained blocked words and was partially masked."
	noticePartnerLeft    = "The stranger has left the chat. Finding you a new match..."
	noticePartnerSkipped = "Looking for a new stranger to chat with..."
	noticeNoCallPartner  = "Your partner is unavailable for a call right now."
)

// Options tunes hub behavior.
type Options struct {
	// RequeueWithoutPartner re-enters a sender into the queue when a chat
	// message finds its partner gone, instead of leaving the connection in
	// a stuck paired-but-partnerless state.
	RequeueWithoutPartner bool
}

// Hub coordinates matchmaking, relaying, signaling and lifecycle for all
// connections of one process.
type Hub struct {
	mu     sync.Mutex
	reg    *registry.Registry
	queue  *match.Queue
	paired map[string]string
	filter *moderation.Filter
	opts   Options
	log    *zap.Logger
}

// New builds a Hub. filter must be non-nil; log may be nil for zap.L().
func New(filter *moderation.Filter, opts Options, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.L()
	}
	return &Hub{
		reg:    registry.New(),
		queue:  match.NewQueue(),
		paired: make(map[string]string),
		filter: filter,
		opts:   opts,
		log:    log,
	}
}

// Connect registers a new transport connection and assigns it an id. The
// client learns the id through an assignedId event.
func (h *Hub) Connect(conn transport.Conn) string {
	id := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reg.Register(id, conn); err != nil {
		// uuid collision or reuse; cannot happen short of a caller bug
		h.log.DPanic("connect: register failed", zap.String("id", id), zap.Error(err))
		return id
	}
	h.send(id, conn, protocol.AssignedID(id))
	h.log.Info("connection registered", zap.String("id", id), zap.String("remote", conn.RemoteAddr()))
	return id
}

// Register stores the display name and enters the connection into
// matchmaking. Re-registering while paired re-sends the partner info and
// shared key instead (recovery from a client-side duplicate registration).
func (h *Hub) Register(id, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec := h.reg.Get(id)
	if rec == nil {
		return
	}
	h.reg.SetName(id, name)

	if partnerID, ok := h.paired[id]; ok {
		partner := h.reg.Get(partnerID)
		if partner == nil {
			h.log.Warn("paired partner missing on re-register", zap.String("id", id), zap.String("partner", partnerID))
			return
		}
		h.send(id, rec.Conn, protocol.PartnerConnected(partnerID, partner.Name))
		h.send(id, rec.Conn, protocol.SharedKey(rec.Key))
		h.send(id, rec.Conn, protocol.SystemNotice(noticeConnected))
		return
	}

	h.enqueueLocked(id)
	h.pairLocked()
}

// send delivers one event, logging delivery failures at debug level; drops
// are acceptable everywhere the hub emits.
func (h *Hub) send(id string, conn transport.Conn, ev *protocol.Event) {
	if err := conn.Send(ev); err != nil {
		h.log.Debug("send dropped", zap.String("id", id), zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// snapshot helpers used by tests and the health endpoint.

// Waiting returns the number of queued connections.
func (h *Hub) Waiting() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queue.Len()
}

// Pairs returns the number of active pairs.
func (h *Hub) Pairs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.paired) / 2
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg.Len()
}

// PartnerOf returns the current partner of id, if any.
func (h *Hub) PartnerOf(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.paired[id]
	return p, ok
}
