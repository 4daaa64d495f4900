package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/platform/apierr"
)

const (
	CodeInvalidRequest     = "invalid_request"
	CodeEmptyAudio         = "empty_audio"
	CodeAudioTooLarge      = "audio_too_large"
	CodeSpeechUnavailable  = "speech_unavailable"
	CodeTranscriptionError = "transcription_failed"
	CodeInternal           = "internal_error"
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
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err using the status and code of the *apierr.Error
// in its chain, or 500 internal_error.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err, CodeInternal)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
