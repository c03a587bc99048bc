package api

import (
	"encoding/json"
	"io"
	"net/http"
)

const (
	DefaultMessage = "Operation failed"
	DefaultDetails = "An unexpected error occurred"

	maxErrorBody = 1 << 20
)

// Error is the {message, details} pair the API answers with on failure.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// DecodeError builds an *Error from a failed response. Missing fields fall
// back to the given texts. The body is consumed but not closed.
func DecodeError(resp *http.Response, message, details string) *Error {
	e := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, e)
	}

	if e.Message == "" {
		e.Message = message
	}
	if e.Details == "" {
		e.Details = details
	}
	return e
}
