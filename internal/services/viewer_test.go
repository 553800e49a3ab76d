package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

func openPreview(t *testing.T, p *pipeline, ctx context.Context, opts types.FormOptions) ViewerView {
	t.Helper()
	view, err := p.creations.Open(ctx)
	mustNoErr(t, "open", err)
	_, err = p.creations.Upload(ctx, view.ID, pdfFile(100), []byte("%PDF"))
	mustNoErr(t, "upload", err)
	_, err = p.creations.Generate(ctx, view.ID, opts)
	mustNoErr(t, "generate", err)
	vv, err := p.viewers.OpenPreview(ctx, view.ID)
	mustNoErr(t, "open viewer", err)
	return vv
}

func TestViewerNavigationAndQuiz(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{IncludeQuizzes: true})

	page, err := p.viewers.Prev(ctx, vv.ID)
	mustNoErr(t, "prev", err)
	if page.Number != 0 {
		t.Fatalf("prev on cover: want=0 got=%d", page.Number)
	}
	page, err = p.viewers.GoTo(ctx, vv.ID, 2)
	mustNoErr(t, "goto", err)
	if len(page.Sections) != 3 || page.Sections[0].SectionID() != "s4" {
		t.Fatalf("page 2 sections wrong")
	}

	qv, err := p.viewers.SelectOption(ctx, vv.ID, "s5", 2)
	mustNoErr(t, "select", err)
	if qv.Revealed || qv.Correct != nil {
		t.Fatalf("correctness shown before reveal: %+v", qv)
	}
	qv, err = p.viewers.RevealAnswer(ctx, vv.ID, "s5")
	mustNoErr(t, "reveal", err)
	if !qv.Revealed || qv.Correct == nil || *qv.Correct {
		t.Fatalf("want revealed incorrect, got %+v", qv)
	}
	if _, err := p.viewers.SelectOption(ctx, vv.ID, "s5", 9); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("out of range option: want validation got=%v", err)
	}
}

func TestViewerNarrationStopsOnPageChange(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{EnableNarration: true})

	res, err := p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle", err)
	if !res.Playing || res.Audio == "" {
		t.Fatalf("want playing with audio, got %+v", res)
	}
	if got := p.ai.speeches[0].Input; !strings.Contains(got, "Cells") {
		t.Fatalf("cover narration should read the title, got %q", got)
	}
	_, err = p.viewers.Next(ctx, vv.ID)
	mustNoErr(t, "next", err)
	if p.events.count(realtime.SSEEventNarrationStopped) != 1 {
		t.Fatalf("page change must stop narration")
	}
	res, err = p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle again", err)
	if !res.Playing {
		t.Fatalf("toggle after stop should start playing again")
	}
}

func TestViewerNarrationEndedAllowsReplay(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{EnableNarration: true})

	res, err := p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle", err)
	if !res.Playing {
		t.Fatalf("want playing, got %+v", res)
	}
	res, err = p.viewers.NarrationEnded(ctx, vv.ID, false)
	mustNoErr(t, "ended", err)
	if res.Playing {
		t.Fatalf("ended clip must leave the player idle")
	}
	res, err = p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle after end", err)
	if !res.Playing || res.Audio == "" {
		t.Fatalf("toggle after the clip ended must play again, got %+v", res)
	}

	res, err = p.viewers.NarrationEnded(ctx, vv.ID, true)
	mustNoErr(t, "failed", err)
	if res.Playing {
		t.Fatalf("failed clip must leave the player idle")
	}
	if got := p.events.count(realtime.SSEEventNarrationStopped); got != 2 {
		t.Fatalf("want 2 stop events, got %d", got)
	}
	if _, err := p.viewers.NarrationEnded(ctx, uuid.New(), false); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown viewer: want not found got=%v", err)
	}
}

func TestViewerNarrationDroppedWhenPageChangesDuringSynthesis(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{EnableNarration: true})

	p.ai.onSpeech = func() {
		p.ai.onSpeech = nil
		if _, err := p.viewers.Next(ctx, vv.ID); err != nil {
			t.Errorf("next: %v", err)
		}
	}
	res, err := p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle", err)
	if res.Playing || res.Audio != "" {
		t.Fatalf("cover narration must not start on page 1, got %+v", res)
	}
	page, err := p.viewers.Page(ctx, vv.ID)
	mustNoErr(t, "page", err)
	if page.Number != 1 {
		t.Fatalf("want page 1 got %d", page.Number)
	}
	res, err = p.viewers.ToggleNarration(ctx, vv.ID)
	mustNoErr(t, "toggle on new page", err)
	if !res.Playing {
		t.Fatalf("narration on the new page must start, got %+v", res)
	}
}

func TestViewerNarrationDisabled(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{})

	_, err := p.viewers.ToggleNarration(ctx, vv.ID)
	if status, code := apierr.StatusCode(err); status != http.StatusConflict || code != "narration_disabled" {
		t.Fatalf("want=409/narration_disabled got=%d/%s", status, code)
	}
}

func TestViewerVoiceUsesPageContext(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	vv := openPreview(t, p, ctx, types.FormOptions{})
	_, err := p.viewers.Next(ctx, vv.ID)
	mustNoErr(t, "next", err)

	out, err := p.viewers.Voice(ctx, vv.ID, []byte("pcm"), "audio/webm")
	mustNoErr(t, "voice", err)
	if !out.Dispatched || out.Response != "Mitochondria make energy." || out.Audio == "" {
		t.Fatalf("voice outcome: %+v", out)
	}
	system := p.ai.chats[len(p.ai.chats)-1].Messages[0].Content
	if !strings.Contains(system, "Course Title: Cells") || !strings.Contains(system, "Header s1") {
		t.Fatalf("assistant context missing current page: %q", system)
	}
	if p.events.count(realtime.SSEEventAssistantReply) != 1 {
		t.Fatalf("expected AssistantReply event")
	}
}

func TestViewerOpenPublishedAndClose(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	view, _ := p.creations.Open(ctx)
	_, err := p.creations.Upload(ctx, view.ID, pdfFile(100), []byte("%PDF"))
	mustNoErr(t, "upload", err)
	_, err = p.creations.Generate(ctx, view.ID, types.FormOptions{})
	mustNoErr(t, "generate", err)
	rec, err := p.creations.Publish(ctx, view.ID)
	mustNoErr(t, "publish", err)

	vv, err := p.viewers.OpenPublished(ctx, rec.ID)
	mustNoErr(t, "open published", err)
	if vv.Page.Total != 6 || !vv.NarrationEnabled {
		t.Fatalf("published viewer: total=%d narration=%v", vv.Page.Total, vv.NarrationEnabled)
	}
	if _, err := p.viewers.OpenPublished(userCtx(uuid.New()), rec.ID); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("other user's course: want not found got=%v", err)
	}

	mustNoErr(t, "close", p.viewers.Close(ctx, vv.ID))
	if _, err := p.viewers.Page(ctx, vv.ID); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("closed viewer: want not found got=%v", err)
	}
}

func TestViewerPreviewRequiresGeneratedCourse(t *testing.T) {
	p := newPipeline(t, &fakeExtractor{text: "text"})
	ctx := userCtx(uuid.New())
	view, _ := p.creations.Open(ctx)
	_, err := p.viewers.OpenPreview(ctx, view.ID)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "no_preview" {
		t.Fatalf("want no_preview got=%v", err)
	}
}
