// HTTP-layer error codes shared by all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status
// semantics; domain-specific codes cover business failures that status alone
// cannot convey. Clients branch on these codes programmatically, so they are
// part of the API contract and must stay stable.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeRegisterFailed   = "register_failed"
	ErrCodeLoginFailed      = "login_failed"
	ErrCodeSendFailed       = "send_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeAssistantFailed  = "assistant_unavailable"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
