package endpoint

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Serialization selects how handler results are stored in the cache.
type Serialization int

const (
	// SerializeRaw stores results with encoding/gob. Concrete types carried
	// inside interface values must be registered with RegisterType.
	SerializeRaw Serialization = iota
	// SerializeJSON stores results as JSON. Only JSON-representable values
	// round-trip; cached payloads decode into maps, slices and float64.
	SerializeJSON
	// SerializeBinary stores results as MessagePack.
	SerializeBinary
)

func (s Serialization) String() string {
	switch s {
	case SerializeRaw:
		return "raw"
	case SerializeJSON:
		return "json"
	case SerializeBinary:
		return "binary"
	default:
		return fmt.Sprintf("Serialization(%d)", int(s))
	}
}

// ParseSerialization maps a mode name ("raw", "json", "binary") to its value.
func ParseSerialization(name string) (Serialization, error) {
	switch name {
	case "", "raw", "gob":
		return SerializeRaw, nil
	case "json":
		return SerializeJSON, nil
	case "binary", "msgpack":
		return SerializeBinary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, name)
}

// Codec converts handler results to and from cache payloads.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// NewCodec returns the codec for mode.
func NewCodec(mode Serialization) (Codec, error) {
	switch mode {
	case SerializeRaw:
		return gobCodec{}, nil
	case SerializeJSON:
		return jsonCodec{}, nil
	case SerializeBinary:
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
}

// RegisterType records a concrete type for SerializeRaw payloads. It
// forwards to gob.Register.
func RegisterType(v any) {
	gob.Register(v)
}

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]map[string]any{})
	gob.Register(map[string]string{})
	gob.Register([]string{})
}

// gobEnvelope lets gob carry an arbitrary value behind an interface.
type gobEnvelope struct {
	Value any
}

type gobCodec struct{}

func (gobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobEnvelope{Value: v}); err != nil {
		return nil, fmt.Errorf("endpoint: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(data []byte) (any, error) {
	var env gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("endpoint: gob decode: %w", err)
	}
	return env.Value, nil
}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("endpoint: json encode: %w", err)
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("endpoint: json decode: %w", err)
	}
	return v, nil
}

type msgpackCodec struct{}

func (msgpackCodec) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("endpoint: msgpack encode: %w", err)
	}
	return data, nil
}

// Decode uses loose interface decoding so integers come back as int64 and
// uint64 rather than the narrowest wire type.
func (msgpackCodec) Decode(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("endpoint: msgpack decode: %w", err)
	}
	return v, nil
}
