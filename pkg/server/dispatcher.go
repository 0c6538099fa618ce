package server

import (
	"go.uber.org/zap"

	"textanon/pkg/hub"
	"textanon/pkg/protocol"
	"textanon/pkg/protocol/codec"
	"textanon/pkg/transport"
)

const noticeMalformed = "Your last message could not be understood."

// Dispatcher decodes inbound frames and routes them to hub operations by
// event type. Each connection's read loop calls Dispatch serially, so
// per-connection ordering is preserved; cross-connection interleaving is
// serialized inside the hub.
type Dispatcher struct {
	hub *hub.Hub
	log *zap.Logger
}

// NewDispatcher builds a Dispatcher. log may be nil for zap.L().
func NewDispatcher(h *hub.Hub, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.L()
	}
	return &Dispatcher{hub: h, log: log}
}

// Dispatch handles one raw inbound frame from connection id. Malformed input
// is dropped with a generic notice to the sender; it never tears down the
// connection.
func (d *Dispatcher) Dispatch(id string, conn transport.Conn, raw []byte, cdc codec.Codec) {
	var ev protocol.Event
	if err := cdc.Unmarshal(raw, &ev); err != nil {
		d.log.Debug("malformed frame", zap.String("id", id), zap.Error(err))
		_ = conn.Send(protocol.SystemNotice(noticeMalformed))
		return
	}

	switch ev.Type {
	case protocol.EvtRegister:
		d.hub.Register(id, ev.Name)
	case protocol.EvtChat:
		if ev.Text == "" {
			_ = conn.Send(protocol.SystemNotice(noticeMalformed))
			return
		}
		d.hub.Chat(id, ev.Text, ev.Timestamp, ev.ClientMessageID)
	case protocol.EvtSkip:
		d.hub.Skip(id)
	case protocol.EvtTyping:
		d.hub.Typing(id, ev.Active)
	case protocol.EvtCallOffer:
		d.hub.CallOffer(id, ev.Signal)
	case protocol.EvtCallAnswer:
		d.hub.CallAnswer(id, ev.Signal)
	case protocol.EvtICECandidate:
		d.hub.ICECandidate(id, ev.Candidate)
	default:
		d.log.Debug("unsupported event type", zap.String("id", id), zap.String("type", string(ev.Type)))
		_ = conn.Send(protocol.SystemNotice(noticeMalformed))
	}
}
