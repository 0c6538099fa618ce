package hub

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"textanon/pkg/crypto/seal"
	"textanon/pkg/protocol"
)

// Chat runs the relay pipeline for one inbound chat event from id:
// decrypt → moderate → re-encrypt → forward. On full success exactly one
// chatMessage reaches the partner; every short-circuit sends at most one
// notice back to the sender and forwards nothing.
func (h *Hub) Chat(id, ciphertext string, ts int64, clientMessageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.reg.Get(id)
	if rec == nil {
		return
	}

	partnerID, ok := h.paired[id]
	partner := h.reg.Get(partnerID)
	if !ok || partner == nil || !partner.Conn.IsOpen() {
		h.send(id, rec.Conn, protocol.SystemNotice(noticeNoPartner))
		if h.opts.RequeueWithoutPartner {
			// drop the dead pairing so the sender is eligible again
			if ok {
				h.unpairLocked(id, partnerID)
			}
			h.enqueueLocked(id)
			h.pairLocked()
		}
		return
	}

	if rec.Key == "" {
		// paired without a key: invariant breach, not client-triggerable
		h.log.Error("paired connection has no shared key", zap.String("id", id), zap.String("partner", partnerID))
		h.send(id, rec.Conn, protocol.SystemNotice(noticeSecureError))
		return
	}

	plain, err := seal.Decrypt(ciphertext, rec.Key)
	if err != nil {
		h.log.Warn("chat decrypt failed", zap.String("id", id), zap.Error(err))
		h.send(id, rec.Conn, protocol.SystemNotice(noticeBadMessage))
		return
	}

	censored, hits := h.filter.Censor(plain)
	if strings.TrimSpace(censored) == "" {
		h.send(id, rec.Conn, protocol.SystemNotice(noticeEmptyMessage))
		return
	}
	if hits > 0 {
		h.send(id, rec.Conn, protocol.ModerationNotice(noticeCensored))
	}

	out, err := seal.Encrypt(censored, rec.Key)
	if err != nil {
		h.log.Warn("chat encrypt failed", zap.String("id", id), zap.Error(err))
		h.send(id, rec.Conn, protocol.SystemNotice(noticeBadMessage))
		return
	}

	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	h.send(partnerID, partner.Conn, protocol.ChatMessage(id, rec.Name, out, ts, clientMessageID))
}
