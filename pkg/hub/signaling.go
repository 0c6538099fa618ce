package hub

import (
	"textanon/pkg/protocol"
	"textanon/pkg/registry"
)

// Signaling relay: call-setup payloads are forwarded verbatim between a pair,
// never inspected. Offers and answers tell the sender when the partner is
// unavailable; ICE candidates and typing indicators are numerous and
// best-effort, so their failures are silent.

// CallOffer forwards an opaque call offer to the partner of id.
func (h *Hub) CallOffer(id string, signal any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwardLocked(id, func(partnerID string) *protocol.Event {
		return protocol.CallOffer(signal, id)
	}, true)
}

// CallAnswer forwards an opaque call answer to the partner of id.
func (h *Hub) CallAnswer(id string, signal any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwardLocked(id, func(partnerID string) *protocol.Event {
		return protocol.CallAnswer(signal, id)
	}, true)
}

// ICECandidate forwards an opaque ICE candidate to the partner of id.
func (h *Hub) ICECandidate(id string, candidate any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwardLocked(id, func(partnerID string) *protocol.Event {
		return protocol.ICECandidate(candidate, id)
	}, false)
}

// Typing forwards a typing indicator to the partner of id.
func (h *Hub) Typing(id string, active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwardLocked(id, func(partnerID string) *protocol.Event {
		return protocol.Typing(active, id)
	}, false)
}

// forwardLocked resolves the partner of id and sends it the event built by
// mk. When notify is set, an unresolvable partner produces a notice to the
// sender; otherwise the event is silently dropped.
func (h *Hub) forwardLocked(id string, mk func(partnerID string) *protocol.Event, notify bool) {
	rec := h.reg.Get(id)
	if rec == nil {
		return
	}
	partnerID, ok := h.paired[id]
	var partner *registry.Record
	if ok {
		partner = h.reg.Get(partnerID)
	}
	if partner == nil || !partner.Conn.IsOpen() {
		if notify {
			h.send(id, rec.Conn, protocol.SystemNotice(noticeNoCallPartner))
		}
		return
	}
	h.send(partnerID, partner.Conn, mk(partnerID))
}
