package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/clients/gcp"
	"github.com/yungbote/neurathon-mate/internal/http/response"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/apierr"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type SpeechHandler struct {
	log      *logger.Logger
	speech   gcp.Speech
	metrics  *observability.Metrics
	maxBytes int64
}

// NewSpeechHandler accepts a nil speech client; the route then answers 503.
func NewSpeechHandler(log *logger.Logger, speech gcp.Speech, metrics *observability.Metrics, maxBytes int64) *SpeechHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &SpeechHandler{
		log:      log.With("handler", "SpeechHandler"),
		speech:   speech,
		metrics:  metrics,
		maxBytes: maxBytes,
	}
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
}

// POST /speech-to-text (multipart field "file")
func (h *SpeechHandler) SpeechToText(c *gin.Context) {
	if h.speech == nil {
		response.RespondAPIError(c, apierr.New(http.StatusServiceUnavailable, response.CodeSpeechUnavailable, errSpeechDisabled))
		return
	}
	start := time.Now()
	text, status, err := h.transcribe(c)
	h.metrics.ObserveSpeech(status, time.Since(start))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, transcriptResponse{Transcript: text})
}

// transcribe returns the transcript and the metrics status label.
func (h *SpeechHandler) transcribe(c *gin.Context) (string, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "too_large", apierr.New(http.StatusRequestEntityTooLarge, response.CodeAudioTooLarge, errAudioTooLarge)
		}
		return "", "bad_request", apierr.New(http.StatusBadRequest, response.CodeInvalidRequest, errMissingFile)
	}
	if fh.Size > h.maxBytes {
		return "", "too_large", apierr.New(http.StatusRequestEntityTooLarge, response.CodeAudioTooLarge, errAudioTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return "", "bad_request", apierr.New(http.StatusBadRequest, response.CodeInvalidRequest, err)
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		return "", "bad_request", apierr.New(http.StatusBadRequest, response.CodeInvalidRequest, err)
	}

	text, err := h.speech.Transcribe(c.Request.Context(), audio, fh.Header.Get("Content-Type"), fh.Filename)
	switch {
	case errors.Is(err, gcp.ErrEmptyAudio):
		return "", "empty", apierr.New(http.StatusBadRequest, response.CodeEmptyAudio, err)
	case err != nil:
		h.log.Error("transcription failed", "error", err, "bytes", len(audio))
		return "", "error", apierr.New(http.StatusBadGateway, response.CodeTranscriptionError, errTranscription)
	}
	return text, "ok", nil
}
