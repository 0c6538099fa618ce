// Package protocol defines the wire-level event model exchanged between the
// server and connected clients. Events are flat objects with a discriminating
// "type" field; unused fields are omitted on the wire.
package protocol

// EventType discriminates events on the wire.
type EventType string

// Client-to-server event types.
const (
	EvtRegister     EventType = "register"
	EvtChat         EventType = "chat"
	EvtTyping       EventType = "typing"
	EvtSkip         EventType = "skip"
	EvtCallOffer    EventType = "callOffer"
	EvtCallAnswer   EventType = "callAnswer"
	EvtICECandidate EventType = "iceCandidate"
)

// Server-to-client event types. Typing and the call events are reused in the
// outbound direction with FromID filled in.
const (
	EvtAssignedID       EventType = "assignedId"
	EvtWaiting          EventType = "waiting"
	EvtPartnerConnected EventType = "partnerConnected"
	EvtSharedKey        EventType = "sharedKey"
	EvtSystemNotice     EventType = "systemNotice"
	EvtChatEnded        EventType = "chatEnded"
	EvtChatMessage      EventType = "chatMessage"
	EvtModerationNotice EventType = "moderationNotice"
)

// Event is the single envelope for every message in either direction.
// Signal and Candidate carry opaque call-setup payloads that the server
// forwards without inspection.
type Event struct {
	Type EventType `json:"type" cbor:"type"`

	// register / identity
	ID   string `json:"id,omitempty" cbor:"id,omitempty"`
	Name string `json:"name,omitempty" cbor:"name,omitempty"`

	// chat
	Text            string `json:"text,omitempty" cbor:"text,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty" cbor:"timestamp,omitempty"`
	ClientMessageID string `json:"clientMessageId,omitempty" cbor:"clientMessageId,omitempty"`

	// chatMessage (relayed)
	SenderID   string `json:"senderId,omitempty" cbor:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty" cbor:"senderName,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty" cbor:"ciphertext,omitempty"`

	// pairing
	PartnerID   string `json:"partnerId,omitempty" cbor:"partnerId,omitempty"`
	PartnerName string `json:"partnerName,omitempty" cbor:"partnerName,omitempty"`
	Key         string `json:"key,omitempty" cbor:"key,omitempty"`

	// call signaling (opaque)
	Signal    any    `json:"signal,omitempty" cbor:"signal,omitempty"`
	Candidate any    `json:"candidate,omitempty" cbor:"candidate,omitempty"`
	FromID    string `json:"fromId,omitempty" cbor:"fromId,omitempty"`

	// typing indicator
	Active bool `json:"active,omitempty" cbor:"active,omitempty"`

	// notices
	Reason string `json:"reason,omitempty" cbor:"reason,omitempty"`
}

// AssignedID tells a freshly connected client its connection id.
func AssignedID(id string) *Event { return &Event{Type: EvtAssignedID, ID: id} }

// Waiting signals that the client entered the matchmaking queue.
func Waiting() *Event { return &Event{Type: EvtWaiting} }

// PartnerConnected announces the matched partner.
func PartnerConnected(partnerID, partnerName string) *Event {
	return &Event{Type: EvtPartnerConnected, PartnerID: partnerID, PartnerName: partnerName}
}

// SharedKey delivers the 64-hex pair key.
func SharedKey(key string) *Event { return &Event{Type: EvtSharedKey, Key: key} }

// SystemNotice carries a human-readable server notice.
func SystemNotice(text string) *Event { return &Event{Type: EvtSystemNotice, Text: text} }

// ChatEnded signals that the current pairing was torn down.
func ChatEnded() *Event { return &Event{Type: EvtChatEnded} }

// ChatMessage is a relayed, re-encrypted chat message.
func ChatMessage(senderID, senderName, ciphertext string, ts int64, clientMessageID string) *Event {
	return &Event{
		Type:            EvtChatMessage,
		SenderID:        senderID,
		SenderName:      senderName,
		Ciphertext:      ciphertext,
		Timestamp:       ts,
		ClientMessageID: clientMessageID,
	}
}

// ModerationNotice informs the sender that censorship was applied.
func ModerationNotice(reason string) *Event { return &Event{Type: EvtModerationNotice, Reason: reason} }

// CallOffer forwards an opaque call offer from a partner.
func CallOffer(signal any, fromID string) *Event {
	return &Event{Type: EvtCallOffer, Signal: signal, FromID: fromID}
}

// CallAnswer forwards an opaque call answer from a partner.
func CallAnswer(signal any, fromID string) *Event {
	return &Event{Type: EvtCallAnswer, Signal: signal, FromID: fromID}
}

// ICECandidate forwards an opaque ICE candidate from a partner.
func ICECandidate(candidate any, fromID string) *Event {
	return &Event{Type: EvtICECandidate, Candidate: candidate, FromID: fromID}
}

// Typing forwards a typing indicator from a partner.
func Typing(active bool, fromID string) *Event {
	return &Event{Type: EvtTyping, Active: active, FromID: fromID}
}

// Inbound reports whether t is a type clients are allowed to send.
func (t EventType) Inbound() bool {
	switch t {
	case EvtRegister, EvtChat, EvtTyping, EvtSkip, EvtCallOffer, EvtCallAnswer, EvtICECandidate:
		return true
	default:
		return false
	}
}
