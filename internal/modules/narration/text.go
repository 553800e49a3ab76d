package narration

import (
	"strings"

	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/modules/viewer"
)

// MaxChars caps the text sent to speech synthesis.
const MaxChars = 4000

// CoverText is the narration for page 0.
func CoverText(c *course.Course) string {
	if c == nil {
		return ""
	}
	return c.Title + ". " + c.Description + ". Learning objectives: " + strings.Join(c.LearningObjectives, ". ")
}

// readable collects the texts of headers, subheaders and paragraphs.
type readable struct{ parts []string }

func (r *readable) VisitHeader(s *course.Header)       { r.parts = append(r.parts, s.Text) }
func (r *readable) VisitSubheader(s *course.Subheader) { r.parts = append(r.parts, s.Text) }
func (r *readable) VisitParagraph(s *course.Paragraph) { r.parts = append(r.parts, s.Text) }
func (r *readable) VisitImage(*course.Image)           {}
func (r *readable) VisitQuiz(*course.Quiz)             {}
func (r *readable) VisitAssignment(*course.Assignment) {}

// PageText builds the narration for a page. Quizzes, images and
// assignments are not read.
func PageText(c *course.Course, page int) string {
	if page == 0 {
		return CoverText(c)
	}
	r := &readable{}
	for _, s := range viewer.PageSections(c, page) {
		s.Accept(r)
	}
	return strings.Join(r.parts, ". ")
}

// Cap truncates text to MaxChars runes and marks the cut with "...".
func Cap(text string) string {
	count := 0
	for i := range text {
		if count == MaxChars {
			return text[:i] + "..."
		}
		count++
	}
	return text
}
