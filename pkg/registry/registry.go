// Package registry owns the authoritative mapping from connection id to
// session metadata: display name, the pair's shared key while paired, and the
// transport handle. Records are owned exclusively by the Registry; other
// components reference ids only.
//
// The Registry carries no lock of its own. All access happens under the hub's
// single mutex so that cross-map invariants (registry, queue, paired map)
// mutate atomically.
package registry

import (
	"errors"
	"strings"

	"textanon/pkg/transport"
)

// MaxNameLen is the display name limit in runes.
const MaxNameLen = 20

// ErrDuplicateID reports a Register call for an id that already exists.
// This is a programming error in the caller, not a client-triggerable state.
var ErrDuplicateID = errors.New("registry: duplicate connection id")

// Record is one active connection's session state.
type Record struct {
	ID   string
	Name string
	// Key is the pair's 64-hex shared key; empty while unpaired.
	Key  string
	Conn transport.Conn
}

// Registry maps connection ids to Records.
type Registry struct {
	records map[string]*Record
}

// New returns an empty Registry.
func New() *Registry { return &Registry{records: make(map[string]*Record)} }

// Register creates a Record with a placeholder display name.
func (r *Registry) Register(id string, conn transport.Conn) error {
	if _, exists := r.records[id]; exists {
		return ErrDuplicateID
	}
	r.records[id] = &Record{ID: id, Name: placeholderName(id), Conn: conn}
	return nil
}

// SetName normalizes and stores a display name: trimmed, truncated to
// MaxNameLen runes, and falling back to the existing name when empty.
// Idempotent; a no-op for unknown ids.
func (r *Registry) SetName(id, raw string) {
	rec := r.records[id]
	if rec == nil {
		return
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return
	}
	if runes := []rune(name); len(runes) > MaxNameLen {
		name = string(runes[:MaxNameLen])
	}
	rec.Name = name
}

// Get returns the record for id, or nil when the connection has vanished.
// Callers treat nil as "abort the operation silently".
func (r *Registry) Get(id string) *Record { return r.records[id] }

// SetKey stores the shared key on a record.
func (r *Registry) SetKey(id, key string) {
	if rec := r.records[id]; rec != nil {
		rec.Key = key
	}
}

// ClearKey removes the shared key from a record on unpairing.
func (r *Registry) ClearKey(id string) {
	if rec := r.records[id]; rec != nil {
		rec.Key = ""
	}
}

// Remove deletes the record. Used only on disconnect.
func (r *Registry) Remove(id string) { delete(r.records, id) }

// Len returns the number of live records.
func (r *Registry) Len() int { return len(r.records) }

func placeholderName(id string) string {
	tail := id
	if len(tail) > 4 {
		tail = tail[:4]
	}
	return "Stranger-" + tail
}
