package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Errors returned by Decode.
var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrDecryptFailed    = errors.New("decryption failed")
)

// Encoder handles encoding and decoding of action payloads.
// It supports two modes:
//   - Signed (default): Base64 msgpack + HMAC signature - visible but tamper-proof
//   - Encrypted: AES-256-GCM - fully opaque
type Encoder struct {
	key []byte
	gcm cipher.AEAD
}

// NewEncoder creates a new encoder with the given key.
// Keys that are not exactly 32 bytes are stretched with SHA-256.
func NewEncoder(key []byte) (*Encoder, error) {
	if len(key) != 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		key: key,
		gcm: gcm,
	}, nil
}

// Encode serializes v with msgpack and returns an encoded string.
// If sensitive is true, the data is encrypted; otherwise it's signed.
func (e *Encoder) Encode(v any, sensitive bool) (string, error) {
	packed, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}

	if sensitive {
		return e.encrypt(packed)
	}
	return e.sign(packed), nil
}

// Decode reverses Encode. Maps decode as map[string]any and numbers as the
// narrowest msgpack integer or float type.
func (e *Encoder) Decode(encoded string, sensitive bool) (any, error) {
	var v any
	if err := e.DecodeInto(encoded, sensitive, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeInto reverses Encode into the value pointed to by v.
func (e *Encoder) DecodeInto(encoded string, sensitive bool, v any) error {
	var packed []byte
	var err error

	if sensitive {
		packed, err = e.decrypt(encoded)
	} else {
		packed, err = e.verify(encoded)
	}
	if err != nil {
		return err
	}

	if err := msgpack.Unmarshal(packed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}

// sign creates a signed (but visible) encoding: base64.signature
func (e *Encoder) sign(data []byte) string {
	b64 := base64.RawURLEncoding.EncodeToString(data)
	return b64 + "." + base64.RawURLEncoding.EncodeToString(e.mac(data))
}

func (e *Encoder) mac(data []byte) []byte {
	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	return mac.Sum(nil)[:16] // 128 bits
}

// verify verifies and decodes a signed string
func (e *Encoder) verify(encoded string) ([]byte, error) {
	body, sigPart, ok := strings.Cut(encoded, ".")
	if !ok {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidFormat)
	}

	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if !hmac.Equal(sig, e.mac(data)) {
		return nil, ErrSignatureInvalid
	}

	return data, nil
}

// encrypt creates an encrypted encoding using AES-256-GCM
func (e *Encoder) encrypt(data []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := e.gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// decrypt decodes and decrypts an encrypted string
func (e *Encoder) decrypt(encoded string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if len(ciphertext) < e.gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}

	nonce := ciphertext[:e.gcm.NonceSize()]
	ciphertext = ciphertext[e.gcm.NonceSize():]

	plain, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plain, nil
}
