package coursegen

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateAnalyzing  State = "analyzing"
	StateFormReady  State = "form-ready"
	StateGenerating State = "generating"
	StatePreview    State = "preview"
	StatePublishing State = "publishing"
	StatePublished  State = "published"
)

// ErrSuperseded marks a response whose token is no longer current. Callers
// drop the result.
var ErrSuperseded = errors.New("response superseded by a newer request")

// Token identifies one in-flight remote call.
type Token uint64

type Snapshot struct {
	State       State               `json:"state"`
	Error       string              `json:"error,omitempty"`
	FileName    string              `json:"fileName,omitempty"`
	Course      *course.Course      `json:"course,omitempty"`
	Options     *course.FormOptions `json:"options,omitempty"`
	PublishedID *uuid.UUID          `json:"publishedId,omitempty"`
}

// Session is the creation state machine for one upload:
//
//	idle -> uploading -> analyzing -> form-ready -> generating -> preview -> publishing -> published
//
// A failed upload or analysis returns to idle, a failed generation to
// form-ready and a failed publish to preview. Every Begin call issues a new
// Token; Complete calls holding an older one are rejected with
// ErrSuperseded and leave the state alone.
type Session struct {
	mu       sync.Mutex
	onChange func(Snapshot)

	state    State
	lastErr  string
	guard    Token
	fileName string
	text     string
	analysis Analysis
	options  *course.FormOptions
	course   *course.Course
	pubID    *uuid.UUID
}

// onChange runs with the session locked and must not call back into it.
func NewSession(onChange func(Snapshot)) *Session {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Session{state: StateIdle, onChange: onChange}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Error: s.lastErr, FileName: s.fileName, Course: s.course, PublishedID: s.pubID}
	if s.options != nil {
		o := *s.options
		snap.Options = &o
	}
	return snap
}

func (s *Session) transitionLocked(to State, err error) {
	s.state = to
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.onChange(s.snapshotLocked())
}

func (s *Session) expect(action string, allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return apierr.Precondition(http.StatusConflict, "invalid_state",
		fmt.Errorf("cannot %s while %s", action, s.state))
}

// BeginUpload claims the session for a new file. A new file may replace
// an analyzed one.
func (s *Session) BeginUpload(fileName string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect("upload", StateIdle, StateFormReady); err != nil {
		return 0, err
	}
	s.guard++
	s.fileName = fileName
	s.text, s.analysis, s.options, s.course = "", nil, nil, nil
	s.transitionLocked(StateUploading, nil)
	return s.guard, nil
}

// FailUpload returns an uploading session to idle.
func (s *Session) FailUpload(tok Token, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.guard || s.state != StateUploading {
		return ErrSuperseded
	}
	s.transitionLocked(StateIdle, cause)
	return nil
}

// BeginAnalyze records the extracted text and moves to analyzing.
func (s *Session) BeginAnalyze(tok Token, text string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.guard {
		return 0, ErrSuperseded
	}
	if err := s.expect("analyze", StateUploading); err != nil {
		return 0, err
	}
	s.guard++
	s.text = text
	s.transitionLocked(StateAnalyzing, nil)
	return s.guard, nil
}

// CompleteAnalyze commits an analyze result. On failure the session goes
// back to idle so the upload can be retried.
func (s *Session) CompleteAnalyze(tok Token, analysis Analysis, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.guard || s.state != StateAnalyzing {
		return ErrSuperseded
	}
	if cause != nil {
		s.text = ""
		s.transitionLocked(StateIdle, cause)
		return nil
	}
	s.analysis = analysis
	s.transitionLocked(StateFormReady, nil)
	return nil
}

// BeginGenerate hands out the inputs of the generate call. It only
// succeeds after a successful analysis.
func (s *Session) BeginGenerate(opts course.FormOptions) (Token, string, Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect("generate", StateFormReady); err != nil {
		return 0, "", nil, err
	}
	if len(s.analysis) == 0 {
		return 0, "", nil, apierr.Precondition(http.StatusConflict, "analysis_missing", errors.New("no analysis to generate from"))
	}
	s.guard++
	o := opts
	s.options = &o
	s.transitionLocked(StateGenerating, nil)
	return s.guard, s.text, s.analysis, nil
}

func (s *Session) CompleteGenerate(tok Token, c *course.Course, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.guard || s.state != StateGenerating {
		return ErrSuperseded
	}
	if cause == nil && c == nil {
		cause = errors.New("empty course")
	}
	if cause != nil {
		s.transitionLocked(StateFormReady, cause)
		return nil
	}
	s.course = c
	s.transitionLocked(StatePreview, nil)
	return nil
}

// BeginPublish returns the previewed course for persistence.
func (s *Session) BeginPublish() (Token, *course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect("publish", StatePreview); err != nil {
		return 0, nil, err
	}
	s.guard++
	s.transitionLocked(StatePublishing, nil)
	return s.guard, s.course, nil
}

// CompletePublish commits the stored record id, or returns to preview.
func (s *Session) CompletePublish(tok Token, id uuid.UUID, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.guard || s.state != StatePublishing {
		return ErrSuperseded
	}
	if cause != nil {
		s.transitionLocked(StatePreview, cause)
		return nil
	}
	s.pubID = &id
	s.transitionLocked(StatePublished, nil)
	return nil
}

// Reset abandons whatever is in flight and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard++
	s.fileName, s.text, s.analysis, s.options, s.course, s.pubID = "", "", nil, nil, nil, nil
	s.transitionLocked(StateIdle, nil)
}

// Preview returns the generated course and the options it was built with.
func (s *Session) Preview() (*course.Course, course.FormOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.course == nil {
		return nil, course.FormOptions{}, false
	}
	var o course.FormOptions
	if s.options != nil {
		o = *s.options
	}
	return s.course, o, true
}
