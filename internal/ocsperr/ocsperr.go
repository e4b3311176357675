// Package ocsperr defines the internal error taxonomy for the responder
// core and maps it to RFC 6960 OCSPResponseStatus codes.
package ocsperr

import "fmt"

// Kind is an internal error classification, distinct from the wire-level
// OCSPResponseStatus it maps to.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedASN1
	KindUnsupportedVersion
	KindUnsupportedCriticalExtension
	KindRequestListEmpty
	KindRequestListMultiple
	KindUnknownIssuer
	KindStoreUnavailable
	KindSignerFailure
	KindConfigError
	KindNotFound
	KindTryLater
	KindSigRequired
)

func (k Kind) String() string {
	switch k {
	case KindMalformedASN1:
		return "MalformedASN1"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindUnsupportedCriticalExtension:
		return "UnsupportedCriticalExtension"
	case KindRequestListEmpty:
		return "RequestListEmpty"
	case KindRequestListMultiple:
		return "RequestListMultiple"
	case KindUnknownIssuer:
		return "UnknownIssuer"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindSignerFailure:
		return "SignerFailure"
	case KindConfigError:
		return "ConfigError"
	case KindNotFound:
		return "NotFound"
	case KindTryLater:
		return "TryLater"
	case KindSigRequired:
		return "SigRequired"
	default:
		return "Unknown"
	}
}

// Error is the single exported error type for this module, wrapping an
// internal Kind and an optional underlying cause.
type Error struct {
	Kind Kind
	Op   string // component/operation that raised it, e.g. "request.Parse"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, ocsperr.Kind) style comparison against a
// sentinel constructed with New(kind, "", nil).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error for the given kind, operation, and cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// OCSPResponseStatus is the RFC 6960 §4.2.1 wire-level response status.
type OCSPResponseStatus int

const (
	StatusSuccessful       OCSPResponseStatus = 0
	StatusMalformedRequest OCSPResponseStatus = 1
	StatusInternalError    OCSPResponseStatus = 2
	StatusTryLater         OCSPResponseStatus = 3
	// 4 is reserved by RFC 6960.
	StatusSigRequired  OCSPResponseStatus = 5
	StatusUnauthorized OCSPResponseStatus = 6
)

// MapStatus maps an internal Kind to the OCSPResponseStatus the mapper
// (§4.8) should place in the unsigned error response, per the table in
// spec.md §4.8.
func MapStatus(kind Kind) OCSPResponseStatus {
	switch kind {
	case KindMalformedASN1, KindRequestListEmpty, KindRequestListMultiple, KindUnsupportedVersion, KindUnsupportedCriticalExtension:
		return StatusMalformedRequest
	case KindStoreUnavailable, KindSignerFailure, KindConfigError:
		return StatusInternalError
	case KindTryLater:
		return StatusTryLater
	case KindSigRequired:
		return StatusSigRequired
	case KindUnknownIssuer:
		return StatusUnauthorized
	default:
		return StatusInternalError
	}
}

// EncodeErrorResponse returns the unsigned DER encoding of an OCSPResponse
// carrying only responseStatus, i.e. the 5-byte sequence
// 30 03 0A 01 <status> from spec.md §4.8 and §8.
func EncodeErrorResponse(status OCSPResponseStatus) []byte {
	return []byte{0x30, 0x03, 0x0a, 0x01, byte(status)}
}
