package hxstore

import "errors"

// Sentinel errors for store operations.
var (
	ErrInvalidModel     = errors.New("hxstore: invalid model")
	ErrUnknownDomain    = errors.New("hxstore: unknown domain")
	ErrUnknownAction    = errors.New("hxstore: unknown action")
	ErrMalformedType    = errors.New("hxstore: malformed action type")
	ErrSliceType        = errors.New("hxstore: unexpected slice type")
	ErrPayloadType      = errors.New("hxstore: unexpected payload type")
	ErrDecryptFailed    = errors.New("hxstore: payload decryption failed")
	ErrSignatureInvalid = errors.New("hxstore: signature verification failed")
	ErrInvalidFormat    = errors.New("hxstore: invalid payload format")
)

// IsNotFound checks if err reports an action that is not in the registry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownDomain) || errors.Is(err, ErrUnknownAction)
}

// IsDecodeError checks if err is a payload decoding, decryption or
// signature error.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrMalformedType)
}

// IsTypeError checks if err is a slice or payload type mismatch raised by a
// typed reducer.
func IsTypeError(err error) bool {
	return errors.Is(err, ErrSliceType) || errors.Is(err, ErrPayloadType)
}
