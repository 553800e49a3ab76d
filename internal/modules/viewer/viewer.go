package viewer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

// SectionsPerPage is the number of sections on each content page.
const SectionsPerPage = 3

// Cover is page 0.
type Cover struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"estimatedDuration"`
	Objectives  []string `json:"learningObjectives"`
	CoverImage  string   `json:"coverImage,omitempty"`
	Quizzes     int      `json:"quizzes"`
	Assignments int      `json:"assignments"`
}

// QuizView is what the browser may know about a quiz: correctness is only
// present once the answer is revealed.
type QuizView struct {
	Selected *int  `json:"selectedOptionIndex,omitempty"`
	Revealed bool  `json:"revealed"`
	Correct  *bool `json:"correct,omitempty"`
}

type Page struct {
	Number   int                 `json:"page"`
	Total    int                 `json:"totalPages"`
	Cover    *Cover              `json:"cover,omitempty"`
	Sections course.Sections     `json:"sections,omitempty"`
	Quizzes  map[string]QuizView `json:"quizzes,omitempty"`
}

// TotalPages is the cover plus ceil(n/3) content pages.
func TotalPages(sectionCount int) int {
	if sectionCount <= 0 {
		return 1
	}
	return 1 + (sectionCount+SectionsPerPage-1)/SectionsPerPage
}

// PageSections returns the sections shown on content page k (1-based).
func PageSections(c *course.Course, k int) course.Sections {
	if c == nil || k < 1 {
		return nil
	}
	start := (k - 1) * SectionsPerPage
	if start >= len(c.Sections) {
		return nil
	}
	end := start + SectionsPerPage
	if end > len(c.Sections) {
		end = len(c.Sections)
	}
	return c.Sections[start:end]
}

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrNotQuiz        = errors.New("section is not a quiz")
	ErrOptionRange    = errors.New("option index out of range")
)

// Viewer is the paginated cursor over one course plus its quiz answers.
type Viewer struct {
	mu     sync.Mutex
	course *course.Course
	page   int
	total  int
	quiz   course.QuizAnswerState
	moves  atomic.Uint64
	// onLeave runs before every actual page change.
	onLeave func(from, to int)
}

// New opens a viewer on page 0. onLeave runs with the viewer locked before
// each page change; it is where narration is stopped.
func New(c *course.Course, onLeave func(from, to int)) (*Viewer, error) {
	if err := c.Validate(); err != nil {
		return nil, apierr.Validation("invalid_course", err)
	}
	if onLeave == nil {
		onLeave = func(int, int) {}
	}
	return &Viewer{
		course:  c,
		total:   TotalPages(len(c.Sections)),
		quiz:    course.NewQuizAnswerState(c),
		onLeave: onLeave,
	}, nil
}

func (v *Viewer) Course() *course.Course { return v.course }

func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Cursor returns the current page with the number of page changes so far.
func (v *Viewer) Cursor() (page int, moves uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.moves.Load()
}

// Moves counts page changes. It does not take the viewer lock, so it is safe
// to call from code that runs inside onLeave.
func (v *Viewer) Moves() uint64 { return v.moves.Load() }

func (v *Viewer) TotalPages() int { return v.total }

func (v *Viewer) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageLocked()
}

func (v *Viewer) Next() Page { return v.move(func(p int) int { return p + 1 }) }
func (v *Viewer) Prev() Page { return v.move(func(p int) int { return p - 1 }) }

// GoTo jumps to page n; out-of-range targets leave the cursor alone.
func (v *Viewer) GoTo(n int) Page { return v.move(func(int) int { return n }) }

func (v *Viewer) move(target func(int) int) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	to := target(v.page)
	if to >= 0 && to < v.total && to != v.page {
		v.moves.Add(1)
		v.onLeave(v.page, to)
		v.page = to
	}
	return v.pageLocked()
}

func (v *Viewer) pageLocked() Page {
	p := Page{Number: v.page, Total: v.total}
	if v.page == 0 {
		p.Cover = &Cover{
			Title:       v.course.Title,
			Description: v.course.Description,
			Duration:    v.course.EstimatedDuration,
			Objectives:  v.course.LearningObjectives,
			CoverImage:  v.course.CoverImage,
			Quizzes:     v.course.QuizCount(),
			Assignments: v.course.AssignmentCount(),
		}
		return p
	}
	p.Sections = PageSections(v.course, v.page)
	for _, s := range p.Sections {
		if q, ok := s.(*course.Quiz); ok {
			if p.Quizzes == nil {
				p.Quizzes = map[string]QuizView{}
			}
			p.Quizzes[q.ID] = v.quizViewLocked(q)
		}
	}
	return p
}

func (v *Viewer) quizViewLocked(q *course.Quiz) QuizView {
	a := v.quiz[q.ID]
	view := QuizView{}
	if a == nil {
		return view
	}
	if a.Selected != nil {
		sel := *a.Selected
		view.Selected = &sel
	}
	view.Revealed = a.Revealed
	if a.Revealed {
		ok := a.IsCorrect(q)
		view.Correct = &ok
	}
	return view
}

func (v *Viewer) quizLocked(sectionID string) (*course.Quiz, error) {
	s, ok := v.course.FindSection(sectionID)
	if !ok {
		return nil, apierr.Validation("unknown_section", fmt.Errorf("%w: %q", ErrUnknownSection, sectionID))
	}
	q, ok := s.(*course.Quiz)
	if !ok {
		return nil, apierr.Validation("not_a_quiz", fmt.Errorf("%w: %q", ErrNotQuiz, sectionID))
	}
	return q, nil
}

// SelectOption records an option for a quiz. Selecting again, even after
// the answer was revealed, replaces the choice.
func (v *Viewer) SelectOption(sectionID string, option int) (QuizView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	q, err := v.quizLocked(sectionID)
	if err != nil {
		return QuizView{}, err
	}
	if option < 0 || option >= len(q.Options) {
		return QuizView{}, apierr.Validation("option_out_of_range", fmt.Errorf("%w: %d of %d", ErrOptionRange, option, len(q.Options)))
	}
	a := v.quiz[q.ID]
	if a == nil {
		a = &course.QuizAnswer{}
		v.quiz[q.ID] = a
	}
	sel := option
	a.Selected = &sel
	return v.quizViewLocked(q), nil
}

// RevealAnswer is idempotent.
func (v *Viewer) RevealAnswer(sectionID string) (QuizView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	q, err := v.quizLocked(sectionID)
	if err != nil {
		return QuizView{}, err
	}
	a := v.quiz[q.ID]
	if a == nil {
		a = &course.QuizAnswer{}
		v.quiz[q.ID] = a
	}
	a.Revealed = true
	return v.quizViewLocked(q), nil
}
