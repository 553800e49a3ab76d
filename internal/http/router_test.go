package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adaptedu-backend/internal/data/repos/auth"
	courserepo "github.com/yungbote/adaptedu-backend/internal/data/repos/course"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/testutil"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/user"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	httpH "github.com/yungbote/adaptedu-backend/internal/http/handlers"
	httpMW "github.com/yungbote/adaptedu-backend/internal/http/middleware"
	"github.com/yungbote/adaptedu-backend/internal/modules/coursegen"
	"github.com/yungbote/adaptedu-backend/internal/modules/ingestion"
	"github.com/yungbote/adaptedu-backend/internal/platform/openai"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return "Photosynthesis turns light into sugar.", nil
}

type stubGenerator struct{}

func (stubGenerator) Analyze(ctx context.Context, req coursegen.AnalyzeRequest) (coursegen.Analysis, error) {
	return coursegen.Analysis(`{"mainTopics":["photosynthesis"]}`), nil
}

func (stubGenerator) Generate(ctx context.Context, text string, analysis coursegen.Analysis, opts types.FormOptions) (*types.Course, error) {
	c := &course.Course{Title: "Plants", Description: "Light to sugar"}
	for i := 1; i <= 7; i++ {
		c.Sections = append(c.Sections, &course.Paragraph{ID: fmt.Sprintf("s%d", i), Text: "Body"})
	}
	c.Sections = append(c.Sections, &course.Quiz{ID: "s8", Question: "Gas?", Options: []string{"O2", "CO2"}, CorrectIndex: 1})
	return c, nil
}

type stubAI struct{}

func (stubAI) Chat(ctx context.Context, req openai.ChatRequest) (string, error) { return "Sure.", nil }
func (stubAI) Speech(ctx context.Context, req openai.SpeechRequest) ([]byte, error) {
	return []byte("mp3"), nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := user.NewUserRepo(db, log)
	authSvc := services.NewAuthService(db, log, userRepo, auth.NewUserTokenRepo(db, log), "secret", time.Hour, 24*time.Hour)
	hub := realtime.NewSSEHub(log)
	courses := services.NewCourseService(log, courserepo.NewCourseRepo(db, log), hub)
	creations := services.NewCreationService(log, services.CreationConfig{
		Progress: ingestion.ProgressConfig{Step: 50, Tick: time.Millisecond, Settle: time.Millisecond},
	}, stubExtractor{}, stubGenerator{}, courses, nil, hub)
	speech := services.NewSpeechService(log, stubAI{}, nil, "", "")
	viewers := services.NewViewerService(log, creations, courses, speech, hub, "", 0)

	return NewRouter(RouterConfig{
		Log:             log,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, authSvc),
		HealthHandler:   httpH.NewHealthHandler(nil),
		AuthHandler:     httpH.NewAuthHandler(log, authSvc),
		UserHandler:     httpH.NewUserHandler(log, services.NewUserService(log, userRepo)),
		CreationHandler: httpH.NewCreationHandler(log, creations, viewers),
		ViewerHandler:   httpH.NewViewerHandler(log, viewers),
		SpeechHandler:   httpH.NewSpeechHandler(log, speech),
		PipelineHandler: httpH.NewPipelineHandler(log, stubGenerator{}),
		CourseHandler:   httpH.NewCourseHandler(log, courses),
	})
}

type client struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) send(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.r.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (c *client) expect(rec *httptest.ResponseRecorder, status int) {
	c.t.Helper()
	if rec.Code != status {
		c.t.Fatalf("status: want=%d got=%d body=%s", status, rec.Code, rec.Body.String())
	}
}

func (c *client) upload(path, field, name, contentType string, data []byte) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		c.t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func login(t *testing.T, r *gin.Engine) *client {
	t.Helper()
	c := &client{t: t, r: r}
	rec, _ := c.do(http.MethodPost, "/api/register", map[string]string{
		"email": "ada@example.com", "password": "pw-123456", "first_name": "Ada", "last_name": "Learner",
	})
	c.expect(rec, http.StatusCreated)
	rec, body := c.do(http.MethodPost, "/api/login", map[string]string{"email": "ada@example.com", "password": "pw-123456"})
	c.expect(rec, http.StatusOK)
	c.token, _ = body["access_token"].(string)
	if c.token == "" {
		t.Fatalf("no access token in %v", body)
	}
	return c
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)
	c := &client{t: t, r: r}
	for _, path := range []string{"/api/me", "/api/courses"} {
		rec, body := c.do(http.MethodGet, path, nil)
		c.expect(rec, http.StatusUnauthorized)
		env, _ := body["error"].(map[string]any)
		if env["code"] != "unauthorized" {
			t.Fatalf("%s: error envelope: %v", path, body)
		}
	}
	rec, _ := c.do(http.MethodGet, "/healthcheck", nil)
	c.expect(rec, http.StatusOK)
}

func TestCreationFlowOverHTTP(t *testing.T) {
	c := login(t, newTestRouter(t))

	rec, body := c.do(http.MethodPost, "/api/creations", nil)
	c.expect(rec, http.StatusCreated)
	id, _ := body["id"].(string)

	rec, _ = c.upload("/api/creations/"+id+"/upload", "file", "notes.txt", "text/plain", []byte("hi"))
	c.expect(rec, http.StatusUnsupportedMediaType)

	rec, body = c.upload("/api/creations/"+id+"/upload", "file", "plants.pdf", ingestion.PDFMimeType, []byte("%PDF-1.4"))
	c.expect(rec, http.StatusOK)
	if body["state"] != string(coursegen.StateFormReady) {
		t.Fatalf("after upload: %v", body["state"])
	}

	rec, _ = c.do(http.MethodPost, "/api/creations/"+id+"/publish", nil)
	c.expect(rec, http.StatusConflict)

	rec, body = c.do(http.MethodPost, "/api/creations/"+id+"/generate", types.FormOptions{IncludeQuizzes: true, EnableNarration: true})
	c.expect(rec, http.StatusOK)
	if body["state"] != string(coursegen.StatePreview) {
		t.Fatalf("after generate: %v", body["state"])
	}

	rec, body = c.do(http.MethodPost, "/api/creations/"+id+"/viewer", nil)
	c.expect(rec, http.StatusCreated)
	viewerID, _ := body["id"].(string)
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/goto", map[string]int{"page": 3})
	c.expect(rec, http.StatusOK)
	if body["page"] != float64(3) || body["totalPages"] != float64(4) {
		t.Fatalf("goto: %v", body)
	}
	rec, _ = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/quiz/s8/select", map[string]int{"optionIndex": 1})
	c.expect(rec, http.StatusOK)
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/quiz/s8/reveal", nil)
	c.expect(rec, http.StatusOK)
	if body["correct"] != true {
		t.Fatalf("reveal: %v", body)
	}
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/narration", nil)
	c.expect(rec, http.StatusOK)
	if body["playing"] != true {
		t.Fatalf("narration: %v", body)
	}
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/narration/ended", nil)
	c.expect(rec, http.StatusOK)
	if body["playing"] != false {
		t.Fatalf("narration ended: %v", body)
	}
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/narration", nil)
	c.expect(rec, http.StatusOK)
	if body["playing"] != true {
		t.Fatalf("narration after end: %v", body)
	}
	rec, body = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/narration/ended", map[string]bool{"error": true})
	c.expect(rec, http.StatusOK)
	if body["playing"] != false {
		t.Fatalf("narration failed: %v", body)
	}
	rec, _ = c.do(http.MethodPost, "/api/viewers/"+viewerID+"/narration/ended", "not an object")
	c.expect(rec, http.StatusBadRequest)

	rec, _ = c.do(http.MethodPost, "/api/creations/"+id+"/publish", nil)
	c.expect(rec, http.StatusCreated)
	rec, body = c.do(http.MethodGet, "/api/courses", nil)
	c.expect(rec, http.StatusOK)
	list, _ := body["courses"].([]any)
	if len(list) != 1 {
		t.Fatalf("courses: want=1 got=%d", len(list))
	}
	first, _ := list[0].(map[string]any)
	if first["sections"] != float64(8) {
		t.Fatalf("stored sections: %v", first["sections"])
	}
}

func TestStatelessSpeechEndpoints(t *testing.T) {
	c := login(t, newTestRouter(t))

	rec, body := c.do(http.MethodPost, "/api/text-to-speech", map[string]string{"text": "Hello", "voice": "alloy"})
	c.expect(rec, http.StatusOK)
	if body["audioContent"] == "" {
		t.Fatalf("tts: %v", body)
	}
	rec, body = c.do(http.MethodPost, "/api/process-voice-command", map[string]string{"command": "help me"})
	c.expect(rec, http.StatusOK)
	if body["response"] != "Sure." {
		t.Fatalf("assistant: %v", body)
	}
	rec, _ = c.do(http.MethodPost, "/api/process-voice-command", map[string]string{"command": " "})
	c.expect(rec, http.StatusBadRequest)
	rec, body = c.do(http.MethodPost, "/api/analyze-pdf", map[string]any{"pdfContent": "text", "prompt": "p"})
	c.expect(rec, http.StatusOK)
	if _, ok := body["mainTopics"]; !ok {
		t.Fatalf("analyze: %v", body)
	}
}
