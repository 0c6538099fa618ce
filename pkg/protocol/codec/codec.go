package codec

// Codec defines a simple interface for marshaling wire events.
// Implementations must be deterministic and safe for concurrent use.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps format/content type aliases to codecs.
type Registry struct{ byType map[string]Codec }

// NewRegistry constructs a registry preloaded with the JSON codec.
// CBOR can be added explicitly via Register.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Codec)}
	r.Register(JSON())
	return r
}

// Register adds a codec.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }

// ByName resolves a short config alias ("json", "cbor") to a codec.
func ByName(name string) (Codec, error) {
	switch name {
	case "cbor":
		return CBOR()
	default:
		return JSON(), nil
	}
}
