package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/modules/voice"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

type SpeechHandler struct {
	log    *logger.Logger
	speech services.SpeechService
}

func NewSpeechHandler(log *logger.Logger, speech services.SpeechService) *SpeechHandler {
	return &SpeechHandler{log: log.With("handler", "SpeechHandler"), speech: speech}
}

// POST /text-to-speech {"text", "voice"}
func (h *SpeechHandler) TextToSpeech(c *gin.Context) {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	audio, err := h.speech.TextToSpeech(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"audioContent": audio})
}

// POST /process-voice-command {"command", "context", "voice"}
func (h *SpeechHandler) ProcessVoiceCommand(c *gin.Context) {
	var cmd voice.Command
	if err := bindJSON(c, &cmd); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if strings.TrimSpace(cmd.Text) == "" {
		response.RespondAPIError(c, h.log, apierr.Validation("command_required", errors.New("command is required")))
		return
	}
	reply, err := h.speech.ProcessVoiceCommand(c.Request.Context(), cmd)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, reply)
}
