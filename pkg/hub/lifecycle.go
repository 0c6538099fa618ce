package hub

import (
	"go.uber.org/zap"

	"textanon/pkg/protocol"
)

// Lifecycle: skip and disconnect both tear down the current pairing and
// re-run one pairing pass. Skip keeps the actor's record and re-queues it;
// disconnect destroys the record (terminal).

// Skip ends the current pairing at the user's request and re-enters the
// actor into matchmaking.
func (h *Hub) Skip(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if partnerID, ok := h.paired[id]; ok {
		h.unpairLocked(id, partnerID)
		h.releasePartnerLocked(partnerID)
	} else {
		// waiting or unregistered: defensive queue removal
		h.queue.Remove(id)
	}

	if rec := h.reg.Get(id); rec != nil && rec.Conn.IsOpen() {
		h.send(id, rec.Conn, protocol.SystemNotice(noticePartnerSkipped))
		h.enqueueLocked(id)
	}
	h.pairLocked()
	h.log.Debug("skip handled", zap.String("id", id))
}

// Disconnect handles a closed transport: tears down the pairing, releases
// the partner, and destroys the actor's record.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if partnerID, ok := h.paired[id]; ok {
		h.unpairLocked(id, partnerID)
		h.releasePartnerLocked(partnerID)
	}
	h.queue.Remove(id)
	h.reg.Remove(id)
	h.pairLocked()
	h.log.Info("connection removed", zap.String("id", id))
}

// unpairLocked clears both sides of a pairing and both shared keys.
func (h *Hub) unpairLocked(a, b string) {
	delete(h.paired, a)
	delete(h.paired, b)
	h.reg.ClearKey(a)
	h.reg.ClearKey(b)
}

// releasePartnerLocked notifies a surviving partner that the chat ended and
// re-queues it when still valid. enqueueLocked guards against the partner
// already being queued or re-paired in the meantime.
func (h *Hub) releasePartnerLocked(partnerID string) {
	partner := h.reg.Get(partnerID)
	if partner == nil || !partner.Conn.IsOpen() {
		return
	}
	h.send(partnerID, partner.Conn, protocol.SystemNotice(noticePartnerLeft))
	h.send(partnerID, partner.Conn, protocol.ChatEnded())
	h.enqueueLocked(partnerID)
}
