// Package response writes the JSON envelopes used by the HTTP API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageBody is the success envelope for writes: {"mensaje", "usuario"}.
type MessageBody[T any] struct {
	Message string `json:"mensaje"`
	User    T      `json:"usuario"`
}

// ErrorBody is the failure envelope. Details is keyed by form field.
type ErrorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"detalles,omitempty"`
}

func Message[T any](c *gin.Context, status int, message string, user T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, MessageBody[T]{Message: message, User: user})
}

// JSON writes data as-is, for reads.
func JSON(c *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}

// Error writes the failure envelope and aborts the chain.
func Error(c *gin.Context, status int, message string, details map[string]string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: message, Details: details})
}
