package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

// ErrUnsupportedAudio is returned when the recognizer rejects the clip.
var ErrUnsupportedAudio = errors.New("unsupported audio")

type SpeechConfig struct {
	Credentials  string
	LanguageCode string
}

// Speech transcribes short push-to-talk clips. An empty transcript means
// nothing was said.
type Speech interface {
	Recognize(ctx context.Context, audio []byte, mimeType string) (string, error)
	Close() error
}

type speechService struct {
	log          *logger.Logger
	client       *speech.Client
	languageCode string
}

func NewSpeech(log *logger.Logger, cfg SpeechConfig) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(context.Background(), ClientOptions(cfg.Credentials)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	lang := strings.TrimSpace(cfg.LanguageCode)
	if lang == "" {
		lang = "en-US"
	}
	return &speechService{log: log.With("service", "gcp.Speech"), client: c, languageCode: lang}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// noRetry overrides the generated client's default retry policy.
var noRetry = gax.WithRetry(func() gax.Retryer { return nil })

// Recognize makes one synchronous call; failures are not retried.
func (s *speechService) Recognize(ctx context.Context, audio []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), time.Minute)
	defer cancel()

	if len(audio) == 0 {
		return "", nil
	}
	resp, err := s.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(mimeType, s.languageCode),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}, noRetry)
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return "", fmt.Errorf("speech recognize: %w: %s", ErrUnsupportedAudio, status.Convert(err).Message())
		}
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	return transcript(resp.GetResults()), nil
}

func recognitionConfig(mimeType, languageCode string) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		LanguageCode:               languageCode,
		EnableAutomaticPunctuation: true,
		Encoding:                   inferSpeechEncoding(mimeType),
	}
}

func inferSpeechEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func transcript(results []*speechpb.SpeechRecognitionResult) string {
	var full strings.Builder
	for _, r := range results {
		if r == nil || len(r.GetAlternatives()) == 0 || r.GetAlternatives()[0] == nil {
			continue
		}
		t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript())
		if t == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(t)
	}
	return full.String()
}
