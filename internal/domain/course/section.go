package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type SectionKind string

const (
	KindHeader     SectionKind = "header"
	KindSubheader  SectionKind = "subheader"
	KindParagraph  SectionKind = "paragraph"
	KindImage      SectionKind = "image"
	KindQuiz       SectionKind = "quiz"
	KindAssignment SectionKind = "assignment"
)

// Section is one content unit of a course. The set of implementations is
// closed: every variant is handled through Visitor, so adding one breaks the
// build until each visitor grows the matching method.
type Section interface {
	SectionID() string
	Kind() SectionKind
	Accept(v Visitor)
	withID(id string) Section
}

type Visitor interface {
	VisitHeader(s *Header)
	VisitSubheader(s *Subheader)
	VisitParagraph(s *Paragraph)
	VisitImage(s *Image)
	VisitQuiz(s *Quiz)
	VisitAssignment(s *Assignment)
}

type Header struct {
	ID   string
	Text string
}

type Subheader struct {
	ID   string
	Text string
}

type Paragraph struct {
	ID   string
	Text string
}

type Image struct {
	ID  string
	URL string
}

type Quiz struct {
	ID           string
	Question     string
	Options      []string
	CorrectIndex int
}

type Assignment struct {
	ID   string
	Text string
}

func (s *Header) SectionID() string     { return s.ID }
func (s *Subheader) SectionID() string  { return s.ID }
func (s *Paragraph) SectionID() string  { return s.ID }
func (s *Image) SectionID() string      { return s.ID }
func (s *Quiz) SectionID() string       { return s.ID }
func (s *Assignment) SectionID() string { return s.ID }

func (s *Header) Kind() SectionKind     { return KindHeader }
func (s *Subheader) Kind() SectionKind  { return KindSubheader }
func (s *Paragraph) Kind() SectionKind  { return KindParagraph }
func (s *Image) Kind() SectionKind      { return KindImage }
func (s *Quiz) Kind() SectionKind       { return KindQuiz }
func (s *Assignment) Kind() SectionKind { return KindAssignment }

func (s *Header) Accept(v Visitor)     { v.VisitHeader(s) }
func (s *Subheader) Accept(v Visitor)  { v.VisitSubheader(s) }
func (s *Paragraph) Accept(v Visitor)  { v.VisitParagraph(s) }
func (s *Image) Accept(v Visitor)      { v.VisitImage(s) }
func (s *Quiz) Accept(v Visitor)       { v.VisitQuiz(s) }
func (s *Assignment) Accept(v Visitor) { v.VisitAssignment(s) }

func (s *Header) withID(id string) Section     { c := *s; c.ID = id; return &c }
func (s *Subheader) withID(id string) Section  { c := *s; c.ID = id; return &c }
func (s *Paragraph) withID(id string) Section  { c := *s; c.ID = id; return &c }
func (s *Image) withID(id string) Section      { c := *s; c.ID = id; return &c }
func (s *Assignment) withID(id string) Section { c := *s; c.ID = id; return &c }
func (s *Quiz) withID(id string) Section {
	c := *s
	c.ID = id
	c.Options = append([]string(nil), s.Options...)
	return &c
}

// sectionWire is the JSON shape shared with the generator and the browser:
// content carries the text, the image URL or the quiz question.
type sectionWire struct {
	ID      string      `json:"id"`
	Type    SectionKind `json:"type"`
	Content string      `json:"content"`
	Options []string    `json:"options,omitempty"`
	Answer  *flexIndex  `json:"answer,omitempty"`
}

// wireVisitor flattens a section into its wire form.
type wireVisitor struct{ out sectionWire }

func (w *wireVisitor) VisitHeader(s *Header) {
	w.out = sectionWire{ID: s.ID, Type: KindHeader, Content: s.Text}
}
func (w *wireVisitor) VisitSubheader(s *Subheader) {
	w.out = sectionWire{ID: s.ID, Type: KindSubheader, Content: s.Text}
}
func (w *wireVisitor) VisitParagraph(s *Paragraph) {
	w.out = sectionWire{ID: s.ID, Type: KindParagraph, Content: s.Text}
}
func (w *wireVisitor) VisitImage(s *Image) {
	w.out = sectionWire{ID: s.ID, Type: KindImage, Content: s.URL}
}
func (w *wireVisitor) VisitQuiz(s *Quiz) {
	idx := flexIndex(s.CorrectIndex)
	w.out = sectionWire{ID: s.ID, Type: KindQuiz, Content: s.Question, Options: s.Options, Answer: &idx}
}
func (w *wireVisitor) VisitAssignment(s *Assignment) {
	w.out = sectionWire{ID: s.ID, Type: KindAssignment, Content: s.Text}
}

func toWire(s Section) sectionWire {
	w := &wireVisitor{}
	s.Accept(w)
	return w.out
}

// sectionWireIn is the decode side. The generator sometimes nests a quiz's
// question, options and answer inside content as an object.
type sectionWireIn struct {
	ID           string          `json:"id"`
	Type         SectionKind     `json:"type"`
	Content      json.RawMessage `json:"content"`
	Options      []string        `json:"options"`
	Answer       *flexIndex      `json:"answer"`
	AnswerIndex  *flexIndex      `json:"answerIndex"`
	CorrectIndex *flexIndex      `json:"correctIndex"`
}

type quizContent struct {
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	Answer       *flexIndex `json:"answer"`
	AnswerIndex  *flexIndex `json:"answerIndex"`
	CorrectIndex *flexIndex `json:"correctIndex"`
}

func (q quizContent) index() *flexIndex {
	switch {
	case q.Answer != nil:
		return q.Answer
	case q.AnswerIndex != nil:
		return q.AnswerIndex
	default:
		return q.CorrectIndex
	}
}

var errUnknownType = errors.New("unknown section type")

func fromWire(w sectionWireIn) (Section, error) {
	kind := SectionKind(strings.ToLower(strings.TrimSpace(string(w.Type))))
	text, nested, err := splitContent(w.Content)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", w.ID, err)
	}
	if nested != nil && kind != KindQuiz {
		return nil, fmt.Errorf("section %q: object content on %s section", w.ID, kind)
	}
	switch kind {
	case KindHeader:
		return &Header{ID: w.ID, Text: text}, nil
	case KindSubheader:
		return &Subheader{ID: w.ID, Text: text}, nil
	case KindParagraph:
		return &Paragraph{ID: w.ID, Text: text}, nil
	case KindImage:
		return &Image{ID: w.ID, URL: text}, nil
	case KindAssignment:
		return &Assignment{ID: w.ID, Text: text}, nil
	case KindQuiz:
		top := quizContent{Question: text, Options: w.Options, Answer: w.Answer, AnswerIndex: w.AnswerIndex, CorrectIndex: w.CorrectIndex}
		if nested != nil {
			if top.Question == "" {
				top.Question = nested.Question
			}
			if len(top.Options) == 0 {
				top.Options = nested.Options
			}
			if top.index() == nil {
				top.Answer = nested.index()
			}
		}
		idx := top.index()
		if idx == nil {
			return nil, fmt.Errorf("quiz section %q has no answer index", w.ID)
		}
		return &Quiz{ID: w.ID, Question: top.Question, Options: top.Options, CorrectIndex: int(*idx)}, nil
	default:
		return nil, fmt.Errorf("unknown section type %q (id=%q)", w.Type, w.ID)
	}
}

// splitContent returns string content as text and object content as a
// nested quiz body.
func splitContent(raw json.RawMessage) (string, *quizContent, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", nil, err
		}
		return s, nil, nil
	case '{':
		var q quizContent
		if err := json.Unmarshal(raw, &q); err != nil {
			return "", nil, fmt.Errorf("content: %w", err)
		}
		return "", &q, nil
	default:
		return "", nil, fmt.Errorf("content must be a string or object")
	}
}

// Sections is the ordered section list with its wire encoding.
type Sections []Section

func (ss Sections) MarshalJSON() ([]byte, error) {
	out := make([]sectionWire, 0, len(ss))
	for _, s := range ss {
		if s == nil {
			continue
		}
		out = append(out, toWire(s))
	}
	return json.Marshal(out)
}

// UnmarshalJSON drops sections of an unknown type; see DecodeSections.
func (ss *Sections) UnmarshalJSON(data []byte) error {
	out, _, err := DecodeSections(data)
	if err != nil {
		return err
	}
	*ss = out
	return nil
}

// DecodeSections decodes a section array, skipping entries whose type is not
// one of the known kinds. The skipped type names are returned in order.
func DecodeSections(data []byte) (Sections, []string, error) {
	var raw []sectionWireIn
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	out := make(Sections, 0, len(raw))
	var skipped []string
	for i, w := range raw {
		s, err := fromWire(w)
		if errors.Is(err, errUnknownType) {
			skipped = append(skipped, string(w.Type))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("section %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, skipped, nil
}

// flexIndex accepts 2, 2.0 or "2".
type flexIndex int

func (f *flexIndex) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("empty index")
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexIndex(n)
		return nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || fl != float64(int(fl)) {
		return fmt.Errorf("invalid index %s", string(data))
	}
	*f = flexIndex(int(fl))
	return nil
}
