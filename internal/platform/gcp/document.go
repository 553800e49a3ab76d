package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type DocumentConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
	Credentials string
}

// Document OCRs raw PDF bytes with a Document AI processor.
type Document interface {
	// ProcessBytes returns one text entry per page in page order.
	ProcessBytes(ctx context.Context, data []byte, mimeType string) ([]string, error)
	Close() error
}

type documentService struct {
	log       *logger.Logger
	docClient *documentai.DocumentProcessorClient
	processor string
}

func NewDocument(log *logger.Logger, cfg DocumentConfig) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "us"
	}
	name := processorName(cfg.ProjectID, location, cfg.ProcessorID)
	if name == "" {
		return nil, fmt.Errorf("documentai: project and processor id required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptions(cfg.Credentials)...)
	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	slog := log.With("service", "gcp.Document")
	slog.Info("Document AI initialized", "endpoint", endpoint)
	return &documentService{log: slog, docClient: c, processor: name}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) ProcessBytes(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 3*time.Minute)
	defer cancel()

	if len(data) == 0 {
		return nil, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	resp, err := s.docClient.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return pageTexts(resp.GetDocument()), nil
}

// pageTexts splits the document text by page layout anchors. Documents
// without page anchors come back as a single page.
func pageTexts(doc *documentaipb.Document) []string {
	if doc == nil {
		return nil
	}
	full := doc.GetText()
	out := make([]string, 0, len(doc.GetPages()))
	for _, p := range doc.GetPages() {
		if p == nil || p.GetLayout() == nil {
			continue
		}
		out = append(out, collapseWhitespace(textFromAnchor(full, p.GetLayout().GetTextAnchor())))
	}
	if len(out) == 0 && strings.TrimSpace(full) != "" {
		out = append(out, collapseWhitespace(full))
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		if seg == nil {
			continue
		}
		start := int(seg.GetStartIndex())
		end := int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(project, location, processorID string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	if project == "" || location == "" || processorID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
}
