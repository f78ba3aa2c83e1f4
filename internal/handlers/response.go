package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cookclip/cookclip-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps a service error onto the wire envelope. Errors outside
// the taxonomy become a generic 500 so internals never leak.
func RespondError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	msg := "internal server error"
	if code != "" && err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
