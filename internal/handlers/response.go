package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/moodjournal-backend/internal/services"
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

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondGenerationError distinguishes "the model is unavailable" (bad
// gateway, caller may retry) from everything else.
func RespondGenerationError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrGenerationUnavailable) {
		RespondError(c, http.StatusBadGateway, "generation_unavailable", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}
