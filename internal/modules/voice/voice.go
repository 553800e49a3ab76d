package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

const (
	// MinCommandChars is exclusive: a final segment is dispatched only when
	// its trimmed text is longer.
	MinCommandChars = 3
	ReplyTTL        = 10 * time.Second
	NoSpeechNotice  = "No speech detected. Please try again."
)

// ErrNoSpeech is the benign recognition outcome.
var ErrNoSpeech = errors.New("no-speech")

var ErrCommandInFlight = apierr.Precondition(http.StatusConflict, "command_in_flight", errors.New("a voice command is already being processed"))

// Recognizer transcribes one push-to-talk clip.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, mime string) (string, error)
}

type Command struct {
	Text    string `json:"command"`
	Context string `json:"context"`
	Voice   string `json:"voice"`
}

type Reply struct {
	Text  string
	Audio []byte
}

// Assistant answers a command with text and optional audio.
type Assistant interface {
	Reply(ctx context.Context, cmd Command) (Reply, error)
}

// BuildContext formats the course context sent with a command. Without
// content there is no context.
func BuildContext(title, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if strings.TrimSpace(title) == "" {
		title = "Course"
	}
	return "Course Title: " + title + "\nCourse Content: " + content + "\n\n"
}

type EventKind string

const (
	EventReply   EventKind = "reply"
	EventExpired EventKind = "expired"
)

type Event struct {
	Kind  EventKind `json:"kind"`
	Text  string    `json:"response,omitempty"`
	Audio string    `json:"audioContent,omitempty"`
}

// Outcome is the result of one listen or segment.
type Outcome struct {
	Transcript string `json:"transcript"`
	Dispatched bool   `json:"dispatched"`
	Response   string `json:"response,omitempty"`
	Audio      string `json:"audioContent,omitempty"`
	Notice     string `json:"notice,omitempty"`
}

type Config struct {
	Voice    string
	ReplyTTL time.Duration
	// ContextFn returns the course context at dispatch time.
	ContextFn func() string
	Notify    func(Event)
}

// Session is one user's push-to-talk loop. At most one command is in flight;
// recognition is not restarted until its round trip resolves.
type Session struct {
	mu         sync.Mutex
	recognizer Recognizer
	assistant  Assistant
	cfg        Config

	listening bool
	inFlight  bool
	muted     bool
	closed    bool
	reply     string
	replyGen  uint64
	timer     *time.Timer
}

func NewSession(rec Recognizer, asst Assistant, cfg Config) *Session {
	if cfg.ReplyTTL <= 0 {
		cfg.ReplyTTL = ReplyTTL
	}
	if cfg.ContextFn == nil {
		cfg.ContextFn = func() string { return "" }
	}
	if cfg.Notify == nil {
		cfg.Notify = func(Event) {}
	}
	return &Session{recognizer: rec, assistant: asst, cfg: cfg}
}

// Listen recognizes a clip and dispatches it as a final segment.
func (s *Session) Listen(ctx context.Context, audio []byte, mime string) (Outcome, error) {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	if s.recognizer == nil {
		s.mu.Unlock()
		return Outcome{}, apierr.Precondition(http.StatusServiceUnavailable, "speech_unavailable", errors.New("speech recognition is not configured"))
	}
	s.listening = true
	s.mu.Unlock()

	transcript, err := s.recognizer.Recognize(ctx, audio, mime)

	s.mu.Lock()
	s.listening = false
	if errors.Is(err, ErrNoSpeech) || (err == nil && strings.TrimSpace(transcript) == "") {
		s.mu.Unlock()
		return Outcome{Notice: NoSpeechNotice}, nil
	}
	if err != nil {
		s.mu.Unlock()
		if _, ok := apierr.As(err); ok {
			return Outcome{}, err
		}
		return Outcome{}, apierr.Media("recognition_error", fmt.Errorf("speech recognition: %w", err))
	}
	if !dispatchable(transcript, true) || s.closed {
		s.mu.Unlock()
		return Outcome{Transcript: transcript}, nil
	}
	cmd := s.beginLocked(transcript)
	s.mu.Unlock()
	return s.roundTrip(ctx, cmd)
}

func dispatchable(text string, final bool) bool {
	return final && len([]rune(strings.TrimSpace(text))) > MinCommandChars
}

func (s *Session) beginLocked(text string) Command {
	s.inFlight = true
	return Command{Text: text, Context: s.cfg.ContextFn(), Voice: s.cfg.Voice}
}

// HandleSegment dispatches a final segment longer than MinCommandChars.
// Interim and short segments only report the transcript.
func (s *Session) HandleSegment(ctx context.Context, text string, final bool) (Outcome, error) {
	if !dispatchable(text, final) {
		return Outcome{Transcript: text}, nil
	}
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	cmd := s.beginLocked(text)
	s.mu.Unlock()
	return s.roundTrip(ctx, cmd)
}

func (s *Session) roundTrip(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Transcript: cmd.Text}
	reply, err := s.assistant.Reply(ctx, cmd)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.closed {
		return out, nil
	}
	if err != nil {
		return Outcome{}, apierr.Upstream("assistant_failed", fmt.Errorf("failed to process your request: %w", err))
	}
	out.Dispatched = true
	out.Response = reply.Text
	if !s.muted && len(reply.Audio) > 0 {
		out.Audio = base64.StdEncoding.EncodeToString(reply.Audio)
	}
	if reply.Text != "" {
		s.setReplyLocked(reply.Text)
		s.cfg.Notify(Event{Kind: EventReply, Text: reply.Text, Audio: out.Audio})
	}
	return out, nil
}

func (s *Session) readyLocked() error {
	if s.closed {
		return apierr.Precondition(http.StatusGone, "session_closed", errors.New("voice session closed"))
	}
	if s.inFlight || s.listening {
		return ErrCommandInFlight
	}
	return nil
}

// setReplyLocked shows a reply until ReplyTTL passes or a newer reply
// replaces it.
func (s *Session) setReplyLocked(text string) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.replyGen++
	gen := s.replyGen
	s.reply = text
	s.timer = time.AfterFunc(s.cfg.ReplyTTL, func() { s.expire(gen) })
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.replyGen || s.closed {
		return
	}
	s.reply = ""
	s.timer = nil
	s.cfg.Notify(Event{Kind: EventExpired})
}

// CurrentReply is the reply text still on display.
func (s *Session) CurrentReply() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, s.reply != ""
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	return s.muted
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight || s.listening
}

// Close stops the reply timer and drops any result still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.reply = ""
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
