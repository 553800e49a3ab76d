package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/adaptedu-backend/internal/modules/narration"
	"github.com/yungbote/adaptedu-backend/internal/modules/voice"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/gcp"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/platform/openai"
)

// AssistantMaxTokens keeps spoken replies short.
const AssistantMaxTokens = 150

// AssistantReply is the stateless process-voice-command response.
type AssistantReply struct {
	Response     string `json:"response"`
	AudioContent string `json:"audioContent,omitempty"`
}

// SpeechService covers text-to-speech, the Ada assistant and clip
// transcription.
type SpeechService interface {
	narration.Synthesizer
	voice.Assistant
	voice.Recognizer
	TextToSpeech(ctx context.Context, text, voiceName string) (string, error)
	ProcessVoiceCommand(ctx context.Context, cmd voice.Command) (AssistantReply, error)
}

type speechService struct {
	log   *logger.Logger
	ai    openai.Client
	stt   gcp.Speech
	model string
	voice string
}

// NewSpeechService builds the service. stt may be nil, in which case clip
// transcription reports speech_unavailable.
func NewSpeechService(log *logger.Logger, ai openai.Client, stt gcp.Speech, model, defaultVoice string) SpeechService {
	if strings.TrimSpace(model) == "" {
		model = openai.DefaultModel
	}
	if strings.TrimSpace(defaultVoice) == "" {
		defaultVoice = openai.DefaultVoice
	}
	return &speechService{log: log.With("service", "SpeechService"), ai: ai, stt: stt, model: model, voice: defaultVoice}
}

func (s *speechService) voiceOr(v string) string {
	if strings.TrimSpace(v) == "" {
		return s.voice
	}
	return v
}

func (s *speechService) Synthesize(ctx context.Context, text, voiceName string) ([]byte, error) {
	return s.ai.Speech(ctx, openai.SpeechRequest{
		Model:  openai.TTSModel,
		Input:  text,
		Voice:  s.voiceOr(voiceName),
		Format: "mp3",
	})
}

// TextToSpeech returns base64 mp3 for text.
func (s *speechService) TextToSpeech(ctx context.Context, text, voiceName string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apierr.Validation("text_required", errors.New("text is required"))
	}
	audio, err := s.Synthesize(ctx, narration.Cap(text), voiceName)
	if err != nil {
		observability.Current().IncMedia("tts", "error")
		return "", apierr.Upstream("tts_failed", fmt.Errorf("failed to generate speech: %w", err))
	}
	observability.Current().IncMedia("tts", "ok")
	return base64.StdEncoding.EncodeToString(audio), nil
}

func assistantSystemPrompt(courseContext string) string {
	var b strings.Builder
	b.WriteString("You are a helpful and friendly AI voice assistant for an educational platform called AdaptEdU.\n")
	b.WriteString("Your name is Ada. You help users navigate through courses, explain concepts, and provide assistance.\n")
	b.WriteString("Respond in a conversational, friendly manner. Keep responses concise and natural, as if speaking to a friend.\n")
	b.WriteString("Avoid robotic language and phrases like \"As an AI assistant\" or \"I'm here to help.\"\n")
	if courseContext != "" {
		b.WriteString("Here's information about the current course:\n")
		b.WriteString(courseContext)
		b.WriteString("\n")
	}
	b.WriteString("You're speaking directly to the user, so be warm, natural, and human-like.")
	return b.String()
}

// Reply asks Ada for a text answer and voices it with the HD model.
func (s *speechService) Reply(ctx context.Context, cmd voice.Command) (voice.Reply, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return voice.Reply{}, apierr.Validation("command_required", errors.New("command is required"))
	}
	text, err := s.ai.Chat(ctx, openai.ChatRequest{
		Model: s.model,
		Messages: []openai.Message{
			{Role: "system", Content: assistantSystemPrompt(cmd.Context)},
			{Role: "user", Content: cmd.Text},
		},
		Temperature: openai.DefaultTemperature,
		MaxTokens:   AssistantMaxTokens,
	})
	if err != nil {
		return voice.Reply{}, apierr.Upstream("assistant_failed", fmt.Errorf("assistant: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return voice.Reply{}, nil
	}
	audio, err := s.ai.Speech(ctx, openai.SpeechRequest{
		Model:  openai.TTSModelHD,
		Input:  text,
		Voice:  s.voiceOr(cmd.Voice),
		Format: "mp3",
	})
	if err != nil {
		observability.Current().IncMedia("assistant_tts", "error")
		return voice.Reply{}, apierr.Upstream("tts_failed", fmt.Errorf("failed to generate speech: %w", err))
	}
	observability.Current().IncMedia("assistant_tts", "ok")
	return voice.Reply{Text: text, Audio: audio}, nil
}

func (s *speechService) ProcessVoiceCommand(ctx context.Context, cmd voice.Command) (AssistantReply, error) {
	reply, err := s.Reply(ctx, cmd)
	if err != nil {
		return AssistantReply{}, err
	}
	out := AssistantReply{Response: reply.Text}
	if len(reply.Audio) > 0 {
		out.AudioContent = base64.StdEncoding.EncodeToString(reply.Audio)
	}
	return out, nil
}

// Recognize transcribes a push-to-talk clip. An empty transcript is the
// no-speech case.
func (s *speechService) Recognize(ctx context.Context, audio []byte, mime string) (string, error) {
	if s.stt == nil {
		return "", apierr.Precondition(http.StatusServiceUnavailable, "speech_unavailable", errors.New("speech recognition is not configured"))
	}
	if len(audio) == 0 {
		return "", voice.ErrNoSpeech
	}
	text, err := s.stt.Recognize(ctx, audio, mime)
	if errors.Is(err, gcp.ErrUnsupportedAudio) {
		return "", apierr.Validation("unsupported_audio", err)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", voice.ErrNoSpeech
	}
	return text, nil
}
