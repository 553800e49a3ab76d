package coursegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/platform/openai"
)

const (
	// MaxSourceChars bounds the raw text sent with the generate call.
	MaxSourceChars = 10000

	PlaceholderImageURL = "https://images.unsplash.com/photo-1591453089816-0fbb971b454c?q=80&w=2070&auto=format&fit=crop"

	DefaultAnalyzePrompt = "Analyze this PDF content and extract key information"
)

// Analysis is the summary returned by the analyze call. Its shape is up to
// the model; it is only required to be a JSON object.
type Analysis = json.RawMessage

type AnalyzeRequest struct {
	PDFContent string         `json:"pdfContent"`
	Prompt     string         `json:"prompt"`
	Options    IncludeOptions `json:"options"`
}

// DefaultAnalyzeRequest is the fixed request the creation flow sends.
func DefaultAnalyzeRequest(text string) AnalyzeRequest {
	return AnalyzeRequest{
		PDFContent: text,
		Prompt:     DefaultAnalyzePrompt,
		Options:    IncludeOptions{IncludeQuizzes: true, IncludeAssignments: false, IncludeImages: true},
	}
}

// Generator runs the two model calls of the creation pipeline.
type Generator interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error)
	Generate(ctx context.Context, text string, analysis Analysis, opts course.FormOptions) (*course.Course, error)
}

type generator struct {
	log   *logger.Logger
	ai    openai.Client
	model string
}

func NewGenerator(log *logger.Logger, ai openai.Client, model string) Generator {
	if strings.TrimSpace(model) == "" {
		model = openai.DefaultModel
	}
	return &generator{log: log.With("service", "CourseGenerator"), ai: ai, model: model}
}

func (g *generator) Analyze(ctx context.Context, req AnalyzeRequest) (out Analysis, err error) {
	if strings.TrimSpace(req.PDFContent) == "" {
		return nil, apierr.Validation("pdf_content_required", errors.New("PDF content is required"))
	}
	ctx, span := observability.StartSpan(ctx, "coursegen.analyze", attribute.Int("pdf.chars", len(req.PDFContent)))
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObservePipelineStage("analyze", observability.StatusLabel(err), time.Since(start))
	}()

	g.log.Info("analyzing pdf", "chars", len(req.PDFContent), "quizzes", req.Options.IncludeQuizzes,
		"assignments", req.Options.IncludeAssignments, "images", req.Options.IncludeImages)

	content, err := g.chat(ctx, analyzeSystemPrompt(req.Options), analyzeUserPrompt(req.PDFContent, req.Prompt))
	if err != nil {
		return nil, apierr.Upstream("analyze_failed", fmt.Errorf("analyze: %w", err))
	}
	raw := json.RawMessage(strings.TrimSpace(StripCodeFence(content)))
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apierr.Upstream("analyze_failed", fmt.Errorf("failed to parse analysis: %w", err))
	}
	return raw, nil
}

func (g *generator) Generate(ctx context.Context, text string, analysis Analysis, opts course.FormOptions) (out *course.Course, err error) {
	if len(analysis) == 0 {
		return nil, apierr.Validation("analysis_required", errors.New("analysis is required before generation"))
	}
	ctx, span := observability.StartSpan(ctx, "coursegen.generate",
		attribute.Int("pdf.chars", len(text)),
		attribute.Bool("include.images", opts.IncludeImages),
	)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObservePipelineStage("generate", observability.StatusLabel(err), time.Since(start))
	}()

	include := IncludeOptions{
		IncludeQuizzes:     opts.IncludeQuizzes,
		IncludeAssignments: opts.IncludeAssignments,
		IncludeImages:      opts.IncludeImages,
	}
	user, err := generateUserPrompt(text, analysis, opts.Prompt)
	if err != nil {
		return nil, apierr.Validation("invalid_analysis", err)
	}
	content, err := g.chat(ctx, generateSystemPrompt(include), user)
	if err != nil {
		return nil, apierr.Upstream("generate_failed", fmt.Errorf("generate: %w", err))
	}

	c, warnings, err := ParseCourse(content)
	if err != nil {
		return nil, apierr.Upstream("generate_failed", err)
	}
	for _, w := range warnings {
		g.log.Warn("generated course adjusted", "detail", w)
	}
	if opts.IncludeImages {
		NormalizeImages(c)
	}
	g.log.Info("course generated", "sections", len(c.Sections), "quizzes", c.QuizCount(), "assignments", c.AssignmentCount())
	return c, nil
}

func (g *generator) chat(ctx context.Context, system, user string) (string, error) {
	return g.ai.Chat(ctx, openai.ChatRequest{
		Model: g.model,
		Messages: []openai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: openai.DefaultTemperature,
		MaxTokens:   openai.DefaultMaxTokens,
	})
}

// ParseCourse decodes model output into a course. Sections of unknown type
// are dropped, section ids are made unique and unanswerable quizzes are
// repaired before the result is validated. Every adjustment is reported in
// warnings.
func ParseCourse(content string) (*course.Course, []string, error) {
	var c course.Course
	if err := json.Unmarshal([]byte(strings.TrimSpace(StripCodeFence(content))), &c); err != nil {
		return nil, nil, fmt.Errorf("failed to parse course data: %w", err)
	}
	var warnings []string
	for _, t := range c.Skipped {
		warnings = append(warnings, fmt.Sprintf("section of unknown type %q dropped", t))
	}
	c.NormalizeIDs()
	warnings = append(warnings, c.RepairQuizzes()...)
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid course: %w", err)
	}
	return &c, warnings, nil
}

type imageVisitor struct{ url string }

func (v imageVisitor) VisitHeader(*course.Header)         {}
func (v imageVisitor) VisitSubheader(*course.Subheader)   {}
func (v imageVisitor) VisitParagraph(*course.Paragraph)   {}
func (v imageVisitor) VisitImage(s *course.Image)         { s.URL = v.url }
func (v imageVisitor) VisitQuiz(*course.Quiz)             {}
func (v imageVisitor) VisitAssignment(*course.Assignment) {}

// NormalizeImages points every image section at a renderable URL.
func NormalizeImages(c *course.Course) {
	if c == nil {
		return
	}
	v := imageVisitor{url: PlaceholderImageURL}
	for _, s := range c.Sections {
		if s != nil {
			s.Accept(v)
		}
	}
}
