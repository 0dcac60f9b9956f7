package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/platform/apierr"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders an *apierr.Error with its details. Anything else is
// reported as a 500 under fallbackCode without leaking the message.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		msg := ae.Code
		if ae.Err != nil {
			msg = ae.Err.Error()
		}
		if ae.Status >= http.StatusInternalServerError {
			msg = "internal error"
		}
		c.JSON(ae.Status, ErrorEnvelope{
			Error: APIError{
				Message: msg,
				Code:    ae.Code,
				Details: ae.Details,
			},
		})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: APIError{Message: "internal error", Code: fallbackCode},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
