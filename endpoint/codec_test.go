package endpoint

import (
	"errors"
	"reflect"
	"testing"
)

type postSummary struct {
	ID    int
	Title string
	Tags  []string
}

func init() {
	RegisterType(postSummary{})
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		mode Serialization
		in   any
		want any
	}{
		{
			mode: SerializeRaw,
			in:   map[string]any{"post": postSummary{ID: 1, Title: "hello", Tags: []string{"go"}}},
			want: map[string]any{"post": postSummary{ID: 1, Title: "hello", Tags: []string{"go"}}},
		},
		{
			mode: SerializeJSON,
			in:   map[string]any{"id": 1, "title": "hello", "tags": []string{"go"}},
			want: map[string]any{"id": float64(1), "title": "hello", "tags": []any{"go"}},
		},
		{
			mode: SerializeBinary,
			in:   map[string]any{"id": 1, "title": "hello", "tags": []string{"go"}},
			want: map[string]any{"id": int64(1), "title": "hello", "tags": []any{"go"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c, err := NewCodec(tt.mode)
			if err != nil {
				t.Fatalf("NewCodec: %v", err)
			}
			data, err := c.Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("round trip = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCodec_DecodeGarbage(t *testing.T) {
	for _, mode := range []Serialization{SerializeRaw, SerializeJSON, SerializeBinary} {
		c, _ := NewCodec(mode)
		if _, err := c.Decode([]byte{0xc1, 0x00, 0xff}); err == nil {
			t.Errorf("%s: expected decode error", mode)
		}
	}
}

func TestNewCodec_Unsupported(t *testing.T) {
	if _, err := NewCodec(Serialization(42)); !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestParseSerialization(t *testing.T) {
	tests := map[string]Serialization{
		"":        SerializeRaw,
		"raw":     SerializeRaw,
		"json":    SerializeJSON,
		"binary":  SerializeBinary,
		"msgpack": SerializeBinary,
	}
	for in, want := range tests {
		got, err := ParseSerialization(in)
		if err != nil || got != want {
			t.Errorf("ParseSerialization(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSerialization("igbinary"); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("expected ErrUnsupportedMode, got %v", err)
	}
}
