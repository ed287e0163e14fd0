// Package dto defines the HTTP response envelopes.
package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/pkg/constants"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// ErrorBody is the machine-readable error payload.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ProcessResponse is returned by the processing endpoint.
type ProcessResponse struct {
	RequestID string            `json:"request_id"`
	Status    string            `json:"status"`
	Artifacts map[string]string `json:"artifacts"`
	Warnings  []string          `json:"warnings,omitempty"`
	// SpeakerNotes carries the narration text when voiceover synthesis
	// degraded and no audio artifact exists.
	SpeakerNotes string `json:"speaker_notes,omitempty"`
	PageCount    int    `json:"page_count"`
	Truncated    bool   `json:"truncated,omitempty"`
}

// StatusResponse is returned by the status endpoint.
type StatusResponse struct {
	RequestID string            `json:"request_id"`
	Artifacts map[string]string `json:"artifacts"`
	Missing   []string          `json:"missing,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status             string            `json:"status"`
	Version            string            `json:"version"`
	RateLimitPerMinute int               `json:"rate_limit_per_minute"`
	ConcurrencyLimit   int               `json:"concurrency_limit"`
	WorkspaceRoot      string            `json:"workspace_root"`
	Features           map[string]bool   `json:"features"`
	Collaborators      map[string]string `json:"collaborators,omitempty"`
}

// SendError writes the error response for err, translating unknown errors to
// a generic 500 so internals never leak to clients.
func SendError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.ErrInternal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), ErrorResponse{
		Error: ErrorBody{
			Code:      string(appErr.Code()),
			Message:   appErr.Message(),
			RequestID: RequestID(c),
		},
	})
}

// RequestID returns the correlation id stored by the request-id middleware.
func RequestID(c *gin.Context) string {
	if v, ok := c.Get(string(constants.ContextKeyRequestID)); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
