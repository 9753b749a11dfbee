// Package httperr is the single JSON error shape of the HTTP surface.
// Handlers and middleware go through AbortWithError so every failure,
// whatever layer raised it, renders the same envelope.
package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the error envelope written to the client. Status is kept for
// the error-handling middleware and never serialized.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError writes the envelope and records the underlying error on the
// gin context so the error middleware can log it. msg is what the client
// sees; err is what the logs see.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
