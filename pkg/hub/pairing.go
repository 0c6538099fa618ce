package hub

import (
	"go.uber.org/zap"

	"textanon/pkg/crypto/seal"
	"textanon/pkg/protocol"
	"textanon/pkg/registry"
)

// enqueueLocked adds id to the queue and notifies it, unless it is already
// queued or paired, its record is gone, or its transport is closed.
func (h *Hub) enqueueLocked(id string) {
	if h.queue.Contains(id) {
		return
	}
	if _, paired := h.paired[id]; paired {
		return
	}
	rec := h.reg.Get(id)
	if rec == nil || !rec.Conn.IsOpen() {
		return
	}
	h.queue.Push(id)
	h.send(id, rec.Conn, protocol.Waiting())
	h.log.Debug("enqueued", zap.String("id", id), zap.Int("waiting", h.queue.Len()))
}

// pairLocked is the pairing pass, run after every event that could have
// produced newly eligible waiters. It repeatedly takes the two oldest valid
// waiters and pairs them under a fresh shared key. Stale entries (vanished
// record, closed transport, already paired) are dropped, not re-inserted;
// they are already invalid and the next pass triggered by other events
// self-heals any miss.
func (h *Hub) pairLocked() {
	for {
		a, recA := h.popValidLocked()
		if recA == nil {
			return
		}
		b, recB := h.popValidLocked()
		if recB == nil {
			// lone valid waiter keeps its place at the head
			h.queue.PushFront(a)
			return
		}

		key := seal.NewKey()
		h.reg.SetKey(a, key)
		h.reg.SetKey(b, key)
		h.paired[a] = b
		h.paired[b] = a

		h.notifyPairedLocked(a, recA, b, recB.Name, key)
		h.notifyPairedLocked(b, recB, a, recA.Name, key)
		h.log.Info("paired", zap.String("a", a), zap.String("b", b))
	}
}

// popValidLocked pops queue entries until one passes validation, dropping
// stale ids along the way.
func (h *Hub) popValidLocked() (string, *registry.Record) {
	for {
		id, ok := h.queue.Pop()
		if !ok {
			return "", nil
		}
		if rec := h.validLocked(id); rec != nil {
			return id, rec
		}
		h.log.Debug("dropped stale queue entry", zap.String("id", id))
	}
}

// validLocked returns the record for a popped queue entry when it is still
// eligible for pairing, nil otherwise.
func (h *Hub) validLocked(id string) *registry.Record {
	rec := h.reg.Get(id)
	if rec == nil || !rec.Conn.IsOpen() {
		return nil
	}
	if _, paired := h.paired[id]; paired {
		// invariant breach: a paired id was still queued
		h.log.Error("queued id already paired, dropping", zap.String("id", id))
		return nil
	}
	return rec
}

func (h *Hub) notifyPairedLocked(id string, rec *registry.Record, partnerID, partnerName, key string) {
	h.send(id, rec.Conn, protocol.PartnerConnected(partnerID, partnerName))
	h.send(id, rec.Conn, protocol.SharedKey(key))
	h.send(id, rec.Conn, protocol.SystemNotice(noticeConnected))
}
