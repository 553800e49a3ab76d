package course

// FormOptions is what the creation form submits for generation. The viewer
// only reads EnableNarration afterwards.
type FormOptions struct {
	Prompt             string `json:"prompt"`
	IncludeQuizzes     bool   `json:"includeQuizzes"`
	IncludeAssignments bool   `json:"includeAssignments"`
	IncludeImages      bool   `json:"includeImages"`
	EnableNarration    bool   `json:"enableNarration"`
}
