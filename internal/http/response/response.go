package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
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

// RespondAPIError maps err through apierr and writes the envelope. Server
// side failures are logged at error level and their detail is not echoed.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	status, code := apierr.StatusCode(err)
	if log != nil {
		fields := []interface{}{"path", c.FullPath(), "status", status, "code", code, "error", err}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request failed", fields...)
		}
	}
	if _, ok := apierr.As(err); !ok {
		RespondError(c, status, code, errInternal)
		return
	}
	RespondError(c, status, code, err)
}

// AbortAPIError is RespondAPIError for middleware.
func AbortAPIError(c *gin.Context, log *logger.Logger, err error) {
	RespondAPIError(c, log, err)
	c.Abort()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

type internalError struct{}

func (internalError) Error() string { return "internal server error" }

var errInternal error = internalError{}
