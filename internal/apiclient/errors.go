package apiclient

import (
	"fmt"
	"strings"
)

const (
	// ErrorCodeEmailNotFound is returned by the login endpoint for unknown emails.
	ErrorCodeEmailNotFound = "AUTH_EMAIL_NOTFOUND"
	// ErrorCodeInvalidPassword is returned by the login endpoint for bad passwords.
	ErrorCodeInvalidPassword = "AUTH_INVALID_PASSWORD"

	humanMessageDelimiter = "::"
)

// APIError is an application-level failure decoded from an upstream error body.
type APIError struct {
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (apiError *APIError) Error() string {
	return fmt.Sprintf("apiclient: upstream status %d code %q: %s", apiError.Status, apiError.Code, apiError.Message)
}

// HumanMessage returns the human-facing segment of the upstream message.
// Upstream messages may embed it after a "::" delimiter.
func (apiError *APIError) HumanMessage() string {
	if !strings.Contains(apiError.Message, humanMessageDelimiter) {
		return strings.TrimSpace(apiError.Message)
	}
	segments := strings.SplitN(apiError.Message, humanMessageDelimiter, 2)
	return strings.TrimSpace(segments[1])
}

// IsUnauthorized reports whether the upstream rejected the session credentials.
func (apiError *APIError) IsUnauthorized() bool {
	return apiError.Status == 401
}
