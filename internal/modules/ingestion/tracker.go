package ingestion

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

type Stage string

const (
	StageIdle       Stage = "idle"
	StageSelected   Stage = "selected"
	StageUploading  Stage = "uploading"
	StageExtracting Stage = "extracting"
	StageReady      Stage = "ready"
	StageFailed     Stage = "failed"
)

type Progress struct {
	Stage    Stage  `json:"stage"`
	Percent  int    `json:"progress"`
	FileName string `json:"fileName,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ProgressConfig struct {
	Step   int
	Tick   time.Duration
	Settle time.Duration
}

var DefaultProgressConfig = ProgressConfig{Step: 5, Tick: 100 * time.Millisecond, Settle: 500 * time.Millisecond}

var ErrBusy = apierr.Precondition(http.StatusConflict, "upload_in_progress", errors.New("an upload is already in progress"))

// Tracker owns one upload slot: selected -> uploading -> extracting -> ready,
// or failed, after which a new file may be selected.
type Tracker struct {
	mu       sync.Mutex
	cfg      ProgressConfig
	onChange func(Progress)
	state    Progress
	text     string
}

// onChange runs with the tracker locked and must not call back into it.
func NewTracker(cfg ProgressConfig, onChange func(Progress)) *Tracker {
	if cfg.Step <= 0 {
		cfg.Step = DefaultProgressConfig.Step
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultProgressConfig.Tick
	}
	if onChange == nil {
		onChange = func(Progress) {}
	}
	return &Tracker{cfg: cfg, onChange: onChange, state: Progress{Stage: StageIdle}}
}

func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Text is the extracted text once the tracker is ready.
func (t *Tracker) Text() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text, t.state.Stage == StageReady
}

// Select validates f and claims the slot. A rejected file leaves the
// tracker untouched.
func (t *Tracker) Select(f File) error {
	if err := Validate(f); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state.Stage {
	case StageSelected, StageUploading, StageExtracting:
		return ErrBusy
	}
	t.text = ""
	t.setLocked(Progress{Stage: StageSelected, FileName: f.Name})
	return nil
}

// Run drives progress to 100, waits the settle delay and then extracts.
func (t *Tracker) Run(ctx context.Context, ex Extractor, data []byte) (string, error) {
	t.mu.Lock()
	if t.state.Stage != StageSelected {
		t.mu.Unlock()
		return "", apierr.Precondition(http.StatusConflict, "no_file_selected", errors.New("select a file first"))
	}
	name := t.state.FileName
	t.setLocked(Progress{Stage: StageUploading, FileName: name})
	t.mu.Unlock()

	if err := t.advance(ctx, name); err != nil {
		t.fail(name, err)
		return "", err
	}

	t.set(Progress{Stage: StageExtracting, Percent: 100, FileName: name})
	text, err := ex.Extract(ctx, data)
	if err == nil && text == "" {
		err = ErrNoText
	}
	if err != nil {
		t.fail(name, err)
		return "", apierr.Validation("extraction_failed", err)
	}

	t.mu.Lock()
	t.text = text
	t.setLocked(Progress{Stage: StageReady, Percent: 100, FileName: name})
	t.mu.Unlock()
	return text, nil
}

func (t *Tracker) advance(ctx context.Context, name string) error {
	ticker := time.NewTicker(t.cfg.Tick)
	defer ticker.Stop()
	pct := 0
	for pct < 100 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		pct += t.cfg.Step
		if pct > 100 {
			pct = 100
		}
		t.set(Progress{Stage: StageUploading, Percent: pct, FileName: name})
	}
	if t.cfg.Settle > 0 {
		timer := time.NewTimer(t.cfg.Settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (t *Tracker) fail(name string, err error) {
	t.set(Progress{Stage: StageFailed, FileName: name, Error: err.Error()})
}

func (t *Tracker) set(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(p)
}

func (t *Tracker) setLocked(p Progress) {
	t.state = p
	t.onChange(p)
}
