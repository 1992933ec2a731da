// Package api defines the JSON wire types shared by the HTTP server
// and the Go client.
package api

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeDuplicateAccount   = "duplicate_account"
	CodeInvalidRole        = "invalid_role"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInvalidState       = "invalid_state"
	CodeValidation         = "validation_error"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
