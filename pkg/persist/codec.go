package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid is returned by codecs for values they refuse to decode.
var ErrInvalid = errors.New("persist: invalid stored value")

// Codec converts values to and from their cached string form.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(s string) (T, error)
}

// StringCodec stores string-like values verbatim. When allowed is not
// empty, values outside it fail to decode or encode with ErrInvalid.
func StringCodec[T ~string](allowed ...T) Codec[T] {
	return stringCodec[T]{allowed: allowed}
}

type stringCodec[T ~string] struct {
	allowed []T
}

func (c stringCodec[T]) Encode(v T) (string, error) {
	if !c.valid(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, string(v))
	}
	return string(v), nil
}

func (c stringCodec[T]) Decode(s string) (T, error) {
	v := T(s)
	if !c.valid(v) {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return v, nil
}

func (c stringCodec[T]) valid(v T) bool {
	return len(c.allowed) == 0 || slices.Contains(c.allowed, v)
}

// EnvelopeVersion is the schema version written by JSONCodec.
const EnvelopeVersion = 1

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// JSONCodec stores values as {"v":1,"data":<json>}.
// Envelopes with any other version decode to ErrInvalid.
func JSONCodec[T any]() Codec[T] {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("persist: encode: %w", err)
	}
	raw, err := json.Marshal(envelope{V: EnvelopeVersion, Data: data})
	if err != nil {
		return "", fmt.Errorf("persist: encode envelope: %w", err)
	}
	return string(raw), nil
}

func (jsonCodec[T]) Decode(s string) (T, error) {
	var zero T

	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if env.V != EnvelopeVersion {
		return zero, fmt.Errorf("%w: unsupported version %d", ErrInvalid, env.V)
	}
	if len(env.Data) == 0 {
		return zero, fmt.Errorf("%w: missing data", ErrInvalid)
	}

	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return v, nil
}
