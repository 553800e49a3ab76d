package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

const (
	AudioMIME   = "audio/mpeg"
	EmptyNotice = "No text content to read on this page"
)

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type SynthesizerFunc func(ctx context.Context, text, voice string) ([]byte, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return f(ctx, text, voice)
}

// Clip is the audio held by a playing player.
type Clip struct {
	Audio []byte
	MIME  string
}

func (c *Clip) Base64() string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(c.Audio)
}

// Sink is the audio output. Start fails when the clip cannot be played;
// Stop is called whenever a started clip is released.
type Sink interface {
	Start(clip *Clip) error
	Stop(reason string)
}

type nopSink struct{}

func (nopSink) Start(*Clip) error { return nil }
func (nopSink) Stop(string)       {}

// Result describes what a toggle did.
type Result struct {
	Playing bool   `json:"playing"`
	Audio   string `json:"audioContent,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

type playerState int

const (
	stateIdle playerState = iota
	stateLoading
	statePlaying
)

// Player is an exclusive toggle: starting while loading or playing stops
// instead.
type Player struct {
	mu     sync.Mutex
	synth  Synthesizer
	sink   Sink
	voice  string
	state  playerState
	clip   *Clip
	cancel context.CancelFunc
	gen    uint64
}

func NewPlayer(synth Synthesizer, sink Sink, voice string) *Player {
	if sink == nil {
		sink = nopSink{}
	}
	return &Player{synth: synth, sink: sink, voice: voice}
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == statePlaying
}

// Toggle stops an active narration, or synthesizes text and starts it.
func (p *Player) Toggle(ctx context.Context, text string) (Result, error) {
	return p.ToggleWhile(ctx, text, nil)
}

// ToggleWhile is Toggle for text that can go stale during synthesis. current
// is checked under the player lock before the clip starts; when it reports
// false the clip is dropped and the player stays idle. current must not block
// on anything that calls back into the player.
func (p *Player) ToggleWhile(ctx context.Context, text string, current func() bool) (Result, error) {
	p.mu.Lock()
	if p.state != stateIdle {
		p.stopLocked("toggled")
		p.mu.Unlock()
		return Result{}, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.mu.Unlock()
		return Result{Notice: EmptyNotice}, nil
	}
	loadCtx, cancel := context.WithCancel(ctx)
	p.gen++
	gen := p.gen
	p.state = stateLoading
	p.cancel = cancel
	p.mu.Unlock()

	audio, err := p.synth.Synthesize(loadCtx, Cap(text), p.voice)

	p.mu.Lock()
	defer p.mu.Unlock()
	cancel()
	if gen != p.gen {
		// Stopped while loading.
		return Result{}, nil
	}
	p.cancel = nil
	if current != nil && !current() {
		p.state = stateIdle
		observability.Current().IncMedia("narration", "stale")
		return Result{}, nil
	}
	if err != nil {
		p.state = stateIdle
		observability.Current().IncMedia("narration", "tts_error")
		return Result{}, apierr.Upstream("tts_failed", fmt.Errorf("failed to generate speech: %w", err))
	}
	if len(audio) == 0 {
		p.state = stateIdle
		observability.Current().IncMedia("narration", "empty_audio")
		return Result{}, apierr.Media("media_error", errors.New("no audio content returned"))
	}
	clip := &Clip{Audio: audio, MIME: AudioMIME}
	if err := p.sink.Start(clip); err != nil {
		p.state = stateIdle
		observability.Current().IncMedia("narration", "playback_error")
		return Result{}, apierr.Media("media_error", fmt.Errorf("failed to play audio: %w", err))
	}
	p.clip = clip
	p.state = statePlaying
	observability.Current().IncMedia("narration", "ok")
	return Result{Playing: true, Audio: clip.Base64()}, nil
}

// Stop ends playback or an in-flight load. Safe to call at any time.
func (p *Player) Stop(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(reason)
}

// Finished records that the client stopped playing the clip, either because
// it reached the end or because the browser could not play it. It reports
// whether a clip was playing. A load in progress is left alone, since the
// report belongs to an earlier clip.
func (p *Player) Finished(failed bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != statePlaying {
		return false
	}
	reason := "ended"
	if failed {
		reason = "playback_error"
		observability.Current().IncMedia("narration", "playback_error")
	}
	p.stopLocked(reason)
	return true
}

// Close releases everything the player holds.
func (p *Player) Close() { p.Stop("closed") }

func (p *Player) stopLocked(reason string) {
	switch p.state {
	case stateLoading:
		p.gen++
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	case statePlaying:
		p.sink.Stop(reason)
	}
	p.clip = nil
	p.state = stateIdle
}
