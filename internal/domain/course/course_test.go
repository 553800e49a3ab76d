package course

import (
	"encoding/json"
	"errors"
	"testing"
)

const generatedCourse = `{
  "title": "Cells",
  "description": "Intro to cells",
  "estimatedDuration": "45 minutes",
  "learningObjectives": ["Name organelles", "Explain mitosis"],
  "sections": [
    {"id": "s1", "type": "header", "content": "Cells"},
    {"id": "s2", "type": "paragraph", "content": "Cells are small."},
    {"id": "s3", "type": "image", "content": "a microscope"},
    {"id": "s4", "type": "quiz", "content": "Powerhouse?", "options": ["Nucleus", "Mitochondria"], "answerIndex": 1},
    {"id": "s5", "type": "assignment", "content": "Draw a cell."},
    {"id": "s6", "type": "Subheader", "content": "Parts"}
  ]
}`

func TestDecodeGeneratedCourse(t *testing.T) {
	var c Course
	if err := json.Unmarshal([]byte(generatedCourse), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c.Sections) != 6 {
		t.Fatalf("sections: want=6 got=%d", len(c.Sections))
	}
	q, ok := c.Sections[3].(*Quiz)
	if !ok {
		t.Fatalf("section 3: want quiz got=%T", c.Sections[3])
	}
	if q.CorrectIndex != 1 || q.Question != "Powerhouse?" {
		t.Fatalf("quiz decoded wrong: %+v", q)
	}
	if _, ok := c.Sections[5].(*Subheader); !ok {
		t.Fatalf("type match should be case-insensitive, got=%T", c.Sections[5])
	}
	if c.QuizCount() != 1 || c.AssignmentCount() != 1 {
		t.Fatalf("counts: quizzes=%d assignments=%d", c.QuizCount(), c.AssignmentCount())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEncodeUsesAnswerField(t *testing.T) {
	c := Course{Title: "T", Sections: Sections{&Quiz{ID: "q", Question: "?", Options: []string{"a", "b"}, CorrectIndex: 1}}}
	raw, err := json.Marshal(&c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire struct {
		Sections []map[string]any `json:"sections"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := wire.Sections[0]["answer"]; got != float64(1) {
		t.Fatalf("answer: want=1 got=%v", got)
	}
	if got := wire.Sections[0]["type"]; got != "quiz" {
		t.Fatalf("type: want=quiz got=%v", got)
	}
}

func TestDecodeSkipsUnknownType(t *testing.T) {
	var c Course
	raw := `{"title":"T","sections":[{"id":"x","type":"video","content":"v"},{"id":"p","type":"paragraph","content":"kept"},{"id":"l","type":"list","content":"a"}]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c.Sections) != 1 || c.Sections[0].SectionID() != "p" {
		t.Fatalf("want only the paragraph, got=%d sections", len(c.Sections))
	}
	if len(c.Skipped) != 2 || c.Skipped[0] != "video" || c.Skipped[1] != "list" {
		t.Fatalf("skipped: got=%v", c.Skipped)
	}
}

func TestDecodeQuizWithoutAnswerDefaultsToFirstOption(t *testing.T) {
	var c Course
	raw := `{"title":"T","sections":[{"id":"q","type":"quiz","content":"?","options":["a","b"]}]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q := c.Sections[0].(*Quiz); q.CorrectIndex != 0 {
		t.Fatalf("index: want=0 got=%d", q.CorrectIndex)
	}
}

func TestRepairQuizzes(t *testing.T) {
	c := Course{Title: "T", Sections: Sections{
		&Header{ID: "h", Text: "A"},
		&Quiz{ID: "q1", Options: []string{"a", "b"}, CorrectIndex: 4},
		&Quiz{ID: "q2"},
		&Quiz{ID: "q3", Options: []string{"a", "b"}, CorrectIndex: 1},
	}}
	fixes := c.RepairQuizzes()
	if len(fixes) != 2 {
		t.Fatalf("fixes: want=2 got=%v", fixes)
	}
	if len(c.Sections) != 3 {
		t.Fatalf("sections: want=3 got=%d", len(c.Sections))
	}
	if q := c.Sections[1].(*Quiz); q.ID != "q1" || q.CorrectIndex != 0 {
		t.Fatalf("q1 not reset: %+v", q)
	}
	if q := c.Sections[2].(*Quiz); q.ID != "q3" || q.CorrectIndex != 1 {
		t.Fatalf("q3 changed: %+v", q)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate after repair: %v", err)
	}
}

func TestDecodeNumericDurationAndStringIndex(t *testing.T) {
	var c Course
	raw := `{"title":"T","estimatedDuration":30,"sections":[{"id":"q","type":"quiz","content":"?","options":["a","b","c"],"answer":"2"}]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.EstimatedDuration != "30 minutes" {
		t.Fatalf("duration: want=%q got=%q", "30 minutes", c.EstimatedDuration)
	}
	if q := c.Sections[0].(*Quiz); q.CorrectIndex != 2 {
		t.Fatalf("index: want=2 got=%d", q.CorrectIndex)
	}
}

func TestValidateQuizIndex(t *testing.T) {
	c := Course{Title: "T", Sections: Sections{&Quiz{ID: "q", Options: []string{"a"}, CorrectIndex: 3}}}
	if err := c.Validate(); !errors.Is(err, ErrQuizBadAnswer) {
		t.Fatalf("want ErrQuizBadAnswer got=%v", err)
	}
	c.Sections = Sections{&Quiz{ID: "q"}}
	if err := c.Validate(); !errors.Is(err, ErrQuizNoOptions) {
		t.Fatalf("want ErrQuizNoOptions got=%v", err)
	}
}

func TestNormalizeIDs(t *testing.T) {
	c := Course{Title: "T", Sections: Sections{
		&Header{ID: "s2", Text: "a"},
		&Paragraph{ID: "", Text: "b"},
		&Paragraph{ID: "s2", Text: "c"},
	}}
	if err := c.Validate(); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID got=%v", err)
	}
	c.NormalizeIDs()
	if err := c.Validate(); err != nil {
		t.Fatalf("after normalize: %v", err)
	}
	want := []string{"s2", "s3", "s4"}
	for i, s := range c.Sections {
		if s.SectionID() != want[i] {
			t.Fatalf("section %d: want=%s got=%s", i, want[i], s.SectionID())
		}
	}
}

func TestQuizAnswerState(t *testing.T) {
	q := &Quiz{ID: "q1", Options: []string{"a", "b"}, CorrectIndex: 0}
	c := &Course{Title: "T", Sections: Sections{&Header{ID: "h"}, q}}
	st := NewQuizAnswerState(c)
	if len(st) != 1 || st["q1"] == nil || st["q1"].Revealed {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	sel := 0
	st["q1"].Selected = &sel
	if st["q1"].IsCorrect(q) {
		t.Fatalf("correctness must not be evaluated before reveal")
	}
	st["q1"].Revealed = true
	if !st["q1"].IsCorrect(q) {
		t.Fatalf("want correct after reveal")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := &Course{Title: "T", Sections: Sections{&Quiz{ID: "q", Options: []string{"a", "b"}}}}
	cp, err := c.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	cp.Sections[0].(*Quiz).Options[0] = "changed"
	if c.Sections[0].(*Quiz).Options[0] != "a" {
		t.Fatalf("clone shares option slice")
	}
}

func TestDecodeNestedQuizContent(t *testing.T) {
	var c Course
	raw := `{"title":"T","sections":[{"id":"q","type":"quiz","content":{"question":"Capital of France?","options":["Rome","Paris"],"answerIndex":1}}]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	q, ok := c.Sections[0].(*Quiz)
	if !ok {
		t.Fatalf("want quiz got=%T", c.Sections[0])
	}
	if q.Question != "Capital of France?" || len(q.Options) != 2 || q.CorrectIndex != 1 {
		t.Fatalf("nested quiz decoded wrong: %+v", q)
	}

	bad := `{"title":"T","sections":[{"id":"p","type":"paragraph","content":{"question":"?"}}]}`
	if err := json.Unmarshal([]byte(bad), &c); err == nil {
		t.Fatalf("expected error for object content on paragraph")
	}
}
