package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/modules/coursegen"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/openai"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	mu          sync.Mutex
	analyzeErr  error
	generateErr error
	course      *course.Course
	analyzed    []string
	generated   []types.FormOptions
}

func (f *fakeGenerator) Analyze(ctx context.Context, req coursegen.AnalyzeRequest) (coursegen.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed = append(f.analyzed, req.PDFContent)
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return coursegen.Analysis(`{"mainTopics":["cells"]}`), nil
}

func (f *fakeGenerator) Generate(ctx context.Context, text string, analysis coursegen.Analysis, opts types.FormOptions) (*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated = append(f.generated, opts)
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.course.Clone()
}

// sampleCourse has n sections cycling through every kind, with a quiz
// answer of 1 at every fifth position.
func sampleCourse(n int) *course.Course {
	c := &course.Course{
		Title:              "Cells",
		Description:        "Intro to cells",
		EstimatedDuration:  "45 minutes",
		LearningObjectives: []string{"Name organelles"},
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("s%d", i+1)
		switch i % 5 {
		case 0:
			c.Sections = append(c.Sections, &course.Header{ID: id, Text: "Header " + id})
		case 1:
			c.Sections = append(c.Sections, &course.Paragraph{ID: id, Text: "Body " + id})
		case 2:
			c.Sections = append(c.Sections, &course.Image{ID: id, URL: coursegen.PlaceholderImageURL})
		case 3:
			c.Sections = append(c.Sections, &course.Subheader{ID: id, Text: "Sub " + id})
		default:
			c.Sections = append(c.Sections, &course.Quiz{ID: id, Question: "Q " + id, Options: []string{"a", "b", "c"}, CorrectIndex: 1})
		}
	}
	return c
}

type fakeAI struct {
	mu        sync.Mutex
	reply     string
	chatErr   error
	audio     []byte
	speechErr error
	chats     []openai.ChatRequest
	speeches  []openai.SpeechRequest
	onSpeech  func()
}

func (f *fakeAI) Chat(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	return f.reply, f.chatErr
}

func (f *fakeAI) Speech(ctx context.Context, req openai.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speeches = append(f.speeches, req)
	if f.onSpeech != nil {
		f.onSpeech()
	}
	if f.speechErr != nil {
		return nil, f.speechErr
	}
	return f.audio, nil
}

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Recognize(ctx context.Context, audio []byte, mime string) (string, error) {
	return f.text, f.err
}

func (f *fakeSTT) Close() error { return nil }

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(msg realtime.SSEMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingEmitter) count(event realtime.SSEEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Event == event {
			n++
		}
	}
	return n
}

func userCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

var errBoom = errors.New("boom")

func mustNoErr(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
