package narration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

type recordingSink struct {
	started  int
	stopped  []string
	startErr error
}

func (s *recordingSink) Start(*Clip) error  { s.started++; return s.startErr }
func (s *recordingSink) Stop(reason string) { s.stopped = append(s.stopped, reason) }

func fixedSynth(audio []byte, err error) SynthesizerFunc {
	return func(ctx context.Context, text, voice string) ([]byte, error) { return audio, err }
}

func TestPageText(t *testing.T) {
	c := &course.Course{
		Title:              "Cells",
		Description:        "Intro",
		LearningObjectives: []string{"One", "Two"},
		Sections: course.Sections{
			&course.Header{ID: "s1", Text: "H"},
			&course.Image{ID: "s2", URL: "u"},
			&course.Paragraph{ID: "s3", Text: "P"},
			&course.Quiz{ID: "s4", Question: "?", Options: []string{"a"}},
			&course.Subheader{ID: "s5", Text: "S"},
		},
	}
	if got := PageText(c, 0); got != "Cells. Intro. Learning objectives: One. Two" {
		t.Fatalf("cover: got=%q", got)
	}
	if got := PageText(c, 1); got != "H. P" {
		t.Fatalf("page 1: got=%q", got)
	}
	if got := PageText(c, 2); got != "S" {
		t.Fatalf("page 2: got=%q", got)
	}
}

func TestCap(t *testing.T) {
	long := strings.Repeat("x", MaxChars+10)
	got := Cap(long)
	if len(got) != MaxChars+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("cap: len=%d", len(got))
	}
	exact := strings.Repeat("y", MaxChars)
	if Cap(exact) != exact {
		t.Fatalf("text at the limit must not be marked")
	}
}

func TestToggleIsExclusive(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(fixedSynth([]byte("mp3"), nil), sink, "alloy")

	res, err := p.Toggle(context.Background(), "hello")
	if err != nil || !res.Playing || res.Audio != "bXAz" {
		t.Fatalf("start: res=%+v err=%v", res, err)
	}
	res, err = p.Toggle(context.Background(), "hello")
	if err != nil || res.Playing || p.Playing() {
		t.Fatalf("second toggle must stop: res=%+v err=%v", res, err)
	}
	if sink.started != 1 || len(sink.stopped) != 1 {
		t.Fatalf("sink: started=%d stopped=%v", sink.started, sink.stopped)
	}
}

func TestToggleEmptyTextIsNotice(t *testing.T) {
	called := false
	p := NewPlayer(SynthesizerFunc(func(context.Context, string, string) ([]byte, error) {
		called = true
		return nil, nil
	}), nil, "")
	res, err := p.Toggle(context.Background(), "   ")
	if err != nil || res.Notice != EmptyNotice || called {
		t.Fatalf("res=%+v err=%v called=%v", res, err, called)
	}
}

func TestPlaybackFailureResets(t *testing.T) {
	sink := &recordingSink{startErr: errors.New("decode failed")}
	p := NewPlayer(fixedSynth([]byte("mp3"), nil), sink, "")
	_, err := p.Toggle(context.Background(), "hi")
	if !apierr.IsKind(err, apierr.KindMedia) {
		t.Fatalf("want media error got=%v", err)
	}
	if p.Playing() {
		t.Fatalf("player must reset after playback failure")
	}

	p = NewPlayer(fixedSynth(nil, errors.New("openai down")), nil, "")
	if _, err := p.Toggle(context.Background(), "hi"); !apierr.IsKind(err, apierr.KindUpstream) {
		t.Fatalf("want upstream got=%v", err)
	}
	sink.startErr = nil
	p = NewPlayer(fixedSynth([]byte("ok"), nil), sink, "")
	if res, _ := p.Toggle(context.Background(), "hi"); !res.Playing {
		t.Fatalf("player must be usable after failures")
	}
}

func TestStopDuringLoadDiscardsAudio(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sink := &recordingSink{}
	p := NewPlayer(SynthesizerFunc(func(ctx context.Context, text, voice string) ([]byte, error) {
		close(entered)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return []byte("late"), nil
	}), sink, "")

	done := make(chan Result, 1)
	go func() {
		res, _ := p.Toggle(context.Background(), "hi")
		done <- res
	}()
	<-entered
	p.Close()
	close(release)

	select {
	case res := <-done:
		if res.Playing {
			t.Fatalf("audio arriving after stop must be dropped")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("toggle did not return")
	}
	if sink.started != 0 || p.Playing() {
		t.Fatalf("sink started=%d playing=%v", sink.started, p.Playing())
	}
}

func TestFinishedLetsToggleStartAgain(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(fixedSynth([]byte("mp3"), nil), sink, "")

	if res, _ := p.Toggle(context.Background(), "hi"); !res.Playing {
		t.Fatalf("first toggle must play")
	}
	if !p.Finished(false) {
		t.Fatalf("Finished must report the playing clip")
	}
	if p.Playing() {
		t.Fatalf("player must be idle after the clip ended")
	}
	res, err := p.Toggle(context.Background(), "hi")
	if err != nil || !res.Playing || res.Audio == "" {
		t.Fatalf("toggle after end must play again: res=%+v err=%v", res, err)
	}
	if len(sink.stopped) != 1 || sink.stopped[0] != "ended" {
		t.Fatalf("want stops=[ended] got=%v", sink.stopped)
	}
}

func TestFinishedWithError(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(fixedSynth([]byte("mp3"), nil), sink, "")
	if p.Finished(true) {
		t.Fatalf("idle player has nothing to finish")
	}
	p.Toggle(context.Background(), "hi")
	if !p.Finished(true) || p.Playing() {
		t.Fatalf("failed playback must stop the player")
	}
	if len(sink.stopped) != 1 || sink.stopped[0] != "playback_error" {
		t.Fatalf("stops=%v", sink.stopped)
	}
}

func TestFinishedLeavesLoadAlone(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	p := NewPlayer(SynthesizerFunc(func(ctx context.Context, text, voice string) ([]byte, error) {
		close(entered)
		<-release
		return []byte("mp3"), nil
	}), nil, "")

	done := make(chan Result, 1)
	go func() {
		res, _ := p.Toggle(context.Background(), "hi")
		done <- res
	}()
	<-entered
	if p.Finished(false) {
		t.Fatalf("a loading player has no clip to finish")
	}
	close(release)
	if res := <-done; !res.Playing {
		t.Fatalf("load must still complete: %+v", res)
	}
}

func TestToggleWhileDropsStaleClip(t *testing.T) {
	sink := &recordingSink{}
	fresh := true
	p := NewPlayer(SynthesizerFunc(func(ctx context.Context, text, voice string) ([]byte, error) {
		fresh = false
		return []byte("mp3"), nil
	}), sink, "")

	res, err := p.ToggleWhile(context.Background(), "old page", func() bool { return fresh })
	if err != nil || res.Playing || res.Audio != "" {
		t.Fatalf("stale clip must be dropped: res=%+v err=%v", res, err)
	}
	if p.Playing() || sink.started != 0 {
		t.Fatalf("stale clip must not reach the sink: started=%d", sink.started)
	}
}
