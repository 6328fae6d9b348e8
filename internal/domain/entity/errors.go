package entity

import "errors"

// Error kinds surfaced to callers. MalformedModelOutput never reaches the
// caller on its own: the validation step recovers from it via fallback
// construction.
var (
	ErrInvalidRequest           = errors.New("topic is required")
	ErrModelUnavailable         = errors.New("model unavailable")
	ErrModelAuth                = errors.New("model authentication failed")
	ErrMalformedModelOutput     = errors.New("malformed model output")
	ErrDocumentPermissionDenied = errors.New("document not shared with service account")
	ErrDocumentWriteConflict    = errors.New("document changed between offset read and write")
	ErrResultNotFound           = errors.New("result not found")
)

const (
	KindInvalidRequest           = "InvalidRequest"
	KindModelUnavailable         = "ModelUnavailable"
	KindModelAuth                = "ModelAuthentication"
	KindMalformedModelOutput     = "MalformedModelOutput"
	KindDocumentPermissionDenied = "DocumentPermissionDenied"
	KindDocumentWriteConflict    = "DocumentWriteConflict"
	KindInternal                 = "Internal"
)

// KindOf collapses a wrapped error chain to its caller-visible kind name.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrModelAuth):
		return KindModelAuth
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrMalformedModelOutput):
		return KindMalformedModelOutput
	case errors.Is(err, ErrDocumentPermissionDenied):
		return KindDocumentPermissionDenied
	case errors.Is(err, ErrDocumentWriteConflict):
		return KindDocumentWriteConflict
	default:
		return KindInternal
	}
}
