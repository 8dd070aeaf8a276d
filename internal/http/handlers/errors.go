package handlers

// Stable error codes returned in the ErrorResponse envelope. Handlers pass
// the most specific code to fail() together with the HTTP status; clients
// branch on the code, not the message text. Codes are lowercase snake_case.
// The first group mirrors plain HTTP semantics, the second covers failures
// specific to reactions, listings, and device registration.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeToggleFailed     = "toggle_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeRegisterFailed   = "register_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
