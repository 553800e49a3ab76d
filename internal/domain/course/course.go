package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Course is the generated course: metadata plus ordered sections.
type Course struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	EstimatedDuration  string   `json:"estimatedDuration"`
	LearningObjectives []string `json:"learningObjectives"`
	Sections           Sections `json:"sections"`
	CoverImage         string   `json:"coverImage,omitempty"`

	// Skipped lists section types dropped while decoding.
	Skipped []string `json:"-"`
}

func (c *Course) UnmarshalJSON(data []byte) error {
	type plain Course
	var aux struct {
		plain
		EstimatedDuration json.RawMessage `json:"estimatedDuration"`
		Sections          json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Course(aux.plain)
	c.EstimatedDuration = durationLabel(aux.EstimatedDuration)
	c.Sections, c.Skipped = nil, nil
	if s := strings.TrimSpace(string(aux.Sections)); s != "" && s != "null" {
		sections, skipped, err := DecodeSections(aux.Sections)
		if err != nil {
			return err
		}
		c.Sections, c.Skipped = sections, skipped
	}
	return nil
}

// durationLabel keeps string labels as-is and renders numbers as minutes.
func durationLabel(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64) + " minutes"
	}
	return s
}

var (
	ErrEmptyTitle    = errors.New("course title is empty")
	ErrDuplicateID   = errors.New("duplicate section id")
	ErrQuizNoOptions = errors.New("quiz has no options")
	ErrQuizBadAnswer = errors.New("quiz answer index out of range")
	ErrNilSection    = errors.New("nil section")
)

// Validate checks the invariants the viewer relies on: unique ids and quiz
// answer indexes that point into their options.
func (c *Course) Validate() error {
	if c == nil {
		return errors.New("nil course")
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	seen := make(map[string]bool, len(c.Sections))
	for i, s := range c.Sections {
		if s == nil {
			return fmt.Errorf("section %d: %w", i, ErrNilSection)
		}
		id := s.SectionID()
		if id == "" || seen[id] {
			return fmt.Errorf("section %d (%q): %w", i, id, ErrDuplicateID)
		}
		seen[id] = true
		if q, ok := s.(*Quiz); ok {
			if len(q.Options) == 0 {
				return fmt.Errorf("section %q: %w", id, ErrQuizNoOptions)
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("section %q: %w", id, ErrQuizBadAnswer)
			}
		}
	}
	return nil
}

// NormalizeIDs gives every section with an empty or repeated id the
// positional id "s{n}" (1-based), keeping the first occurrence of a repeat.
func (c *Course) NormalizeIDs() {
	if c == nil {
		return
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s != nil && s.SectionID() != "" {
			seen[s.SectionID()] = false
		}
	}
	for i, s := range c.Sections {
		if s == nil {
			continue
		}
		id := strings.TrimSpace(s.SectionID())
		if id != "" && !seen[id] {
			seen[id] = true
			if id != s.SectionID() {
				c.Sections[i] = s.withID(id)
			}
			continue
		}
		n := i + 1
		candidate := "s" + strconv.Itoa(n)
		for seen[candidate] {
			n++
			candidate = "s" + strconv.Itoa(n)
		}
		seen[candidate] = true
		c.Sections[i] = s.withID(candidate)
	}
}

// RepairQuizzes makes generated quizzes answerable: a quiz with no options
// is removed and an answer index outside the options is reset to 0. It
// returns one description per change.
func (c *Course) RepairQuizzes() []string {
	if c == nil {
		return nil
	}
	var fixes []string
	kept := c.Sections[:0]
	for _, s := range c.Sections {
		q, ok := s.(*Quiz)
		if !ok {
			kept = append(kept, s)
			continue
		}
		if len(q.Options) == 0 {
			fixes = append(fixes, fmt.Sprintf("quiz %q dropped: no options", q.ID))
			continue
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			fixes = append(fixes, fmt.Sprintf("quiz %q answer %d reset to 0", q.ID, q.CorrectIndex))
			q.CorrectIndex = 0
		}
		kept = append(kept, q)
	}
	for i := len(kept); i < len(c.Sections); i++ {
		c.Sections[i] = nil
	}
	c.Sections = kept
	return fixes
}

// FindSection returns the section with the given id.
func (c *Course) FindSection(id string) (Section, bool) {
	for _, s := range c.Sections {
		if s != nil && s.SectionID() == id {
			return s, true
		}
	}
	return nil, false
}

type countVisitor struct {
	quizzes     int
	assignments int
}

func (v *countVisitor) VisitHeader(*Header)         {}
func (v *countVisitor) VisitSubheader(*Subheader)   {}
func (v *countVisitor) VisitParagraph(*Paragraph)   {}
func (v *countVisitor) VisitImage(*Image)           {}
func (v *countVisitor) VisitQuiz(*Quiz)             { v.quizzes++ }
func (v *countVisitor) VisitAssignment(*Assignment) { v.assignments++ }

func (c *Course) counts() countVisitor {
	v := countVisitor{}
	for _, s := range c.Sections {
		if s != nil {
			s.Accept(&v)
		}
	}
	return v
}

func (c *Course) QuizCount() int       { return c.counts().quizzes }
func (c *Course) AssignmentCount() int { return c.counts().assignments }

// Clone deep-copies the course through its JSON form.
func (c *Course) Clone() (*Course, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out Course
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
