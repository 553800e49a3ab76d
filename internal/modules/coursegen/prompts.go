package coursegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IncludeOptions are the include flags both prompts honour.
type IncludeOptions struct {
	IncludeQuizzes     bool `json:"includeQuizzes"`
	IncludeAssignments bool `json:"includeAssignments"`
	IncludeImages      bool `json:"includeImages"`
}

const courseShape = `{
  "title": "Course Title",
  "description": "%DESCRIPTION%",
  "estimatedDuration": "Estimated duration (e.g., '1.5 hours')",
  "learningObjectives": ["objective1", "objective2", ...],
  "sections": [
    {
      "id": "unique_id",
      "type": "header|subheader|paragraph|image|quiz|assignment",
      "content": "Content of the section"
    },
    ...
  ]
}`

const quizShape = `{
  "question": "Question text",
  "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
  "answerIndex": 0 // Index of the correct answer (0-based)
}`

func guideline(b *strings.Builder, on bool, line string) {
	if on {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func analyzeSystemPrompt(o IncludeOptions) string {
	var b strings.Builder
	b.WriteString("You are an expert course creator that analyzes educational material and creates structured courses.\n")
	b.WriteString("You will analyze the content from a PDF and the user's requirements to create a well-structured course.\n\n")
	b.WriteString("Follow these guidelines:\n")
	b.WriteString("- Create a comprehensive course structure based on the PDF content and user's prompt\n")
	b.WriteString("- Include learning objectives that clearly define what students will learn\n")
	b.WriteString("- Generate an estimated duration for the course based on content complexity\n")
	b.WriteString("- Organize content into logical sections with clear headings\n")
	guideline(&b, o.IncludeQuizzes, "Include knowledge check quizzes at appropriate points")
	guideline(&b, o.IncludeAssignments, "Add practical assignments that help apply the knowledge")
	guideline(&b, o.IncludeImages, "Suggest points where images would enhance understanding (these will be added later)")
	return b.String()
}

func analyzeUserPrompt(pdfContent, requirements string) string {
	var b strings.Builder
	b.WriteString("Here is the content extracted from a PDF:\n\n```\n")
	b.WriteString(pdfContent)
	b.WriteString("\n```\n\n")
	b.WriteString("User's requirements: ")
	b.WriteString(requirements)
	b.WriteString("\n\nGenerate a complete course based on this content and the user's requirements.\n")
	b.WriteString("Your response should be in JSON format with the following structure:\n")
	b.WriteString(strings.Replace(courseShape, "%DESCRIPTION%", "Course description", 1))
	b.WriteString("\n\nFor quiz sections, use this format for content:\n")
	b.WriteString(quizShape)
	b.WriteString("\n")
	return b.String()
}

func generateSystemPrompt(o IncludeOptions) string {
	var b strings.Builder
	b.WriteString("You are an expert course creation AI that takes PDF content and user requirements to create engaging learning experiences.\n")
	b.WriteString("You will use the provided PDF analysis and generate a final, refined course structure.\n\n")
	b.WriteString("Follow these guidelines:\n")
	b.WriteString("- Use the analysis to create a polished, well-structured course\n")
	b.WriteString("- Ensure all sections flow logically and build on previous knowledge\n")
	b.WriteString("- Include clear learning objectives\n")
	b.WriteString("- Generate realistic content for each section\n")
	guideline(&b, o.IncludeQuizzes, "Include engaging quizzes that test knowledge at key points")
	guideline(&b, o.IncludeAssignments, "Add practical assignments that apply the learned concepts")
	guideline(&b, o.IncludeImages, "Include image suggestions where visual aids would enhance learning")
	return b.String()
}

func generateUserPrompt(pdfText string, analysis Analysis, requirements string) (string, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, analysis, "", "  "); err != nil {
		return "", fmt.Errorf("analysis: %w", err)
	}
	var b strings.Builder
	b.WriteString("Here's the PDF content I've extracted:\n\n```\n")
	b.WriteString(Truncate(pdfText, MaxSourceChars))
	b.WriteString("\n```\n\n")
	b.WriteString("Here's the initial analysis:\n\n```\n")
	b.Write(pretty.Bytes())
	b.WriteString("\n```\n\n")
	b.WriteString("User's requirements: ")
	b.WriteString(requirements)
	b.WriteString("\n\nGenerate a final, polished course based on this analysis. Make it engaging and educational.\n")
	b.WriteString("Return a JSON object with the following structure:\n")
	b.WriteString(strings.Replace(courseShape, "%DESCRIPTION%", "Course description (2-3 sentences)", 1))
	b.WriteString("\n\nFor quiz sections, use this structure for content:\n")
	b.WriteString(quizShape)
	b.WriteString("\n\nFor image sections, provide a descriptive prompt that could be used to generate an image.\n")
	return b.String(), nil
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
