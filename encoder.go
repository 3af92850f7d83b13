package hxstore

import (
	"errors"
	"fmt"

	"github.com/a-h/templ"
	"github.com/pthm/hxstore/lib/encoding"
)

// Encoder is an alias for encoding.Encoder for convenience.
type Encoder = encoding.Encoder

// NewEncoder creates a new encoder with the given key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// wrapEncodingError maps encoding package errors onto hxstore sentinels.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) {
		return ErrInvalidFormat
	}
	if errors.Is(err, encoding.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, encoding.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}

// EncodePayload encodes payload for a wire attribute, signed or encrypted
// depending on how the store was configured.
func (s *Store) EncodePayload(payload any) (string, error) {
	return s.encoder.Encode(payload, s.sensitive)
}

// DecodePayload reverses EncodePayload.
func (s *Store) DecodePayload(encoded string) (any, error) {
	v, err := s.encoder.Decode(encoded, s.sensitive)
	return v, wrapEncodingError(err)
}

// Wire returns the HTMX attributes for an element that dispatches
// domain/name with payload when triggered. The payload is signed (or
// encrypted, see Sensitive) so clients cannot alter it. A nil payload
// yields attributes without hx-vals.
//
// A payload that cannot be encoded is an error: dropping it would dispatch
// the reducer with a zero payload instead.
func (s *Store) Wire(domain, name string, payload any) (templ.Attributes, error) {
	path := s.path + domain + "/" + name
	if payload == nil {
		return WireAttrs(path, ""), nil
	}
	encoded, err := s.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("hxstore: cannot encode payload for %s/%s: %w", domain, name, err)
	}
	return WireAttrs(path, encoded), nil
}

// MustWire is like Wire but panics if the payload cannot be encoded. It is
// meant for templates, where payload types are fixed at compile time:
//
//	<button { store.MustWire("counter", "inc", 1)... } hx-target="#app">+1</button>
func (s *Store) MustWire(domain, name string, payload any) templ.Attributes {
	attrs, err := s.Wire(domain, name, payload)
	if err != nil {
		panic(err)
	}
	return attrs
}
