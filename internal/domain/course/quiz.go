package course

// QuizAnswer is the viewer-side state of one quiz section.
type QuizAnswer struct {
	Selected *int `json:"selectedOptionIndex,omitempty"`
	Revealed bool `json:"revealed"`
}

// QuizAnswerState maps quiz section ids to their answer state. It is owned
// by a single viewer session and never persisted.
type QuizAnswerState map[string]*QuizAnswer

// NewQuizAnswerState pre-populates an unrevealed entry for every quiz.
func NewQuizAnswerState(c *Course) QuizAnswerState {
	st := QuizAnswerState{}
	if c == nil {
		return st
	}
	for _, s := range c.Sections {
		if q, ok := s.(*Quiz); ok {
			st[q.ID] = &QuizAnswer{}
		}
	}
	return st
}

// IsCorrect is only meaningful once the answer is revealed.
func (a *QuizAnswer) IsCorrect(q *Quiz) bool {
	if a == nil || q == nil || !a.Revealed || a.Selected == nil {
		return false
	}
	return *a.Selected == q.CorrectIndex
}
