package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/yungbote/adaptedu-backend/internal/platform/gcp"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

var ErrNoText = errors.New("no extractable text in document")

// Extractor turns PDF bytes into the course source text: page order kept,
// fragments in a page joined by single spaces, pages joined by "\n".
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// JoinPages applies the page/fragment joining rules and drops empty pages.
func JoinPages(pages []string) string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := strings.Join(strings.Fields(p), " "); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, strings.Join(pageFragments(p), " "))
	}
	text = JoinPages(pages)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// pageFragments walks the page content stream and returns one decoded
// string per text-showing operator, in stream order. A TJ array counts as a
// single fragment.
func pageFragments(p pdf.Page) []string {
	fonts := map[string]pdf.TextEncoding{}
	for _, name := range p.Fonts() {
		fonts[name] = p.Font(name).Encoder()
	}
	var enc pdf.TextEncoding = rawEncoding{}
	var out []string
	show := func(raw string) {
		if t := enc.Decode(raw); strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	pdf.Interpret(p.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "Tf":
			enc = rawEncoding{}
			if len(args) == 2 {
				if e, ok := fonts[args[0].Name()]; ok && e != nil {
					enc = e
				}
			}
		case "Tj", "'", "\"":
			if len(args) > 0 {
				show(args[len(args)-1].RawString())
			}
		case "TJ":
			if len(args) == 0 {
				return
			}
			var b strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				if x := arr.Index(i); x.Kind() == pdf.String {
					b.WriteString(x.RawString())
				}
			}
			show(b.String())
		}
	})
	return out
}

// rawEncoding passes bytes through when no font encoding is known.
type rawEncoding struct{}

func (rawEncoding) Decode(raw string) string { return raw }

// OCRExtractor reads scanned PDFs through Document AI.
type OCRExtractor struct {
	doc gcp.Document
}

func NewOCRExtractor(doc gcp.Document) *OCRExtractor { return &OCRExtractor{doc: doc} }

func (o *OCRExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	pages, err := o.doc.ProcessBytes(ctx, data, PDFMimeType)
	if err != nil {
		return "", err
	}
	text := JoinPages(pages)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// ChainExtractor tries each extractor in order and returns the first
// non-empty text.
type ChainExtractor struct {
	log   *logger.Logger
	steps []Extractor
}

func NewChainExtractor(log *logger.Logger, steps ...Extractor) *ChainExtractor {
	kept := make([]Extractor, 0, len(steps))
	for _, s := range steps {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &ChainExtractor{log: log.With("component", "ChainExtractor"), steps: kept}
}

func (c *ChainExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	var errs []error
	for i, step := range c.steps {
		text, err := step.Extract(ctx, data)
		if err == nil && strings.TrimSpace(text) != "" {
			if i > 0 {
				c.log.Info("extraction fell back", "step", i, "chars", len(text))
			}
			return text, nil
		}
		if err == nil {
			err = ErrNoText
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn("extraction step failed", "step", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoText
	}
	return "", errors.Join(errs...)
}
