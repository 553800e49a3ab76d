package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/modules/narration"
	"github.com/yungbote/adaptedu-backend/internal/modules/viewer"
	"github.com/yungbote/adaptedu-backend/internal/modules/voice"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

type ViewerView struct {
	ID               uuid.UUID   `json:"id"`
	NarrationEnabled bool        `json:"narrationEnabled"`
	Page             viewer.Page `json:"page"`
}

// ViewerService owns per-user viewer sessions: the page cursor, quiz
// answers, narration player and voice loop for one course.
type ViewerService interface {
	OpenPreview(ctx context.Context, creationID uuid.UUID) (ViewerView, error)
	OpenPublished(ctx context.Context, courseID uuid.UUID) (ViewerView, error)
	Page(ctx context.Context, id uuid.UUID) (viewer.Page, error)
	Next(ctx context.Context, id uuid.UUID) (viewer.Page, error)
	Prev(ctx context.Context, id uuid.UUID) (viewer.Page, error)
	GoTo(ctx context.Context, id uuid.UUID, page int) (viewer.Page, error)
	SelectOption(ctx context.Context, id uuid.UUID, sectionID string, option int) (viewer.QuizView, error)
	RevealAnswer(ctx context.Context, id uuid.UUID, sectionID string) (viewer.QuizView, error)
	ToggleNarration(ctx context.Context, id uuid.UUID) (narration.Result, error)
	NarrationEnded(ctx context.Context, id uuid.UUID, failed bool) (narration.Result, error)
	Voice(ctx context.Context, id uuid.UUID, audio []byte, mime string) (voice.Outcome, error)
	ToggleMute(ctx context.Context, id uuid.UUID) (bool, error)
	Close(ctx context.Context, id uuid.UUID) error
	Run(ctx context.Context, sweepEvery time.Duration)
}

type viewerSession struct {
	viewer           *viewer.Viewer
	player           *narration.Player
	voice            *voice.Session
	narrationEnabled bool
}

func (vs *viewerSession) Close() {
	vs.player.Close()
	vs.voice.Close()
}

// sseSink reports narration stops to the browser; the audio itself goes
// back in the toggle response.
type sseSink struct {
	emitter  realtime.Emitter
	channel  string
	viewerID func() uuid.UUID
}

func (s sseSink) Start(clip *narration.Clip) error {
	if clip == nil || len(clip.Audio) == 0 {
		return errors.New("empty clip")
	}
	return nil
}

func (s sseSink) Stop(reason string) {
	s.emitter.Emit(realtime.SSEMessage{
		Channel: s.channel,
		Event:   realtime.SSEEventNarrationStopped,
		Data:    map[string]any{"viewerId": s.viewerID(), "reason": reason},
	})
}

type viewerService struct {
	log       *logger.Logger
	creations CreationService
	courses   CourseService
	speech    SpeechService
	emitter   realtime.Emitter
	voiceName string
	sessions  *registry[*viewerSession]
}

func NewViewerService(
	log *logger.Logger,
	creations CreationService,
	courses CourseService,
	speech SpeechService,
	emitter realtime.Emitter,
	voiceName string,
	sessionTTL time.Duration,
) ViewerService {
	if emitter == nil {
		emitter = realtime.NopEmitter
	}
	serviceLog := log.With("service", "ViewerService")
	return &viewerService{
		log:       serviceLog,
		creations: creations,
		courses:   courses,
		speech:    speech,
		emitter:   emitter,
		voiceName: voiceName,
		sessions:  newRegistry[*viewerSession](serviceLog, "viewer", sessionTTL),
	}
}

func (s *viewerService) OpenPreview(ctx context.Context, creationID uuid.UUID) (ViewerView, error) {
	c, opts, err := s.creations.Preview(ctx, creationID)
	if err != nil {
		return ViewerView{}, err
	}
	return s.open(ctx, c, opts.EnableNarration)
}

// OpenPublished views a stored course. Narration is always available there.
func (s *viewerService) OpenPublished(ctx context.Context, courseID uuid.UUID) (ViewerView, error) {
	rec, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return ViewerView{}, err
	}
	var c types.Course
	if err := json.Unmarshal(rec.Content, &c); err != nil {
		return ViewerView{}, fmt.Errorf("decode stored course %s: %w", courseID, err)
	}
	return s.open(ctx, &c, true)
}

func (s *viewerService) open(ctx context.Context, c *types.Course, narrationEnabled bool) (ViewerView, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return ViewerView{}, err
	}
	channel := realtime.UserChannel(userID)
	vs := &viewerSession{narrationEnabled: narrationEnabled}
	var id uuid.UUID

	vs.player = narration.NewPlayer(s.speech, sseSink{
		emitter:  s.emitter,
		channel:  channel,
		viewerID: func() uuid.UUID { return id },
	}, s.voiceName)

	v, err := viewer.New(c, func(from, to int) { vs.player.Stop("page_changed") })
	if err != nil {
		return ViewerView{}, err
	}
	vs.viewer = v

	vs.voice = voice.NewSession(s.speech, s.speech, voice.Config{
		Voice: s.voiceName,
		ContextFn: func() string {
			return voice.BuildContext(c.Title, narration.Cap(narration.PageText(c, v.CurrentPage())))
		},
		Notify: func(e voice.Event) {
			event := realtime.SSEEventAssistantReply
			if e.Kind == voice.EventExpired {
				event = realtime.SSEEventAssistantReplyExpired
			}
			s.emitter.Emit(realtime.SSEMessage{
				Channel: channel,
				Event:   event,
				Data:    map[string]any{"viewerId": id, "response": e.Text, "audioContent": e.Audio},
			})
		},
	})

	id = s.sessions.put(userID, vs)
	s.log.Info("viewer opened", "user_id", userID, "viewer_id", id, "pages", v.TotalPages())
	return ViewerView{ID: id, NarrationEnabled: narrationEnabled, Page: v.Page()}, nil
}

func (s *viewerService) lookup(ctx context.Context, id uuid.UUID) (*viewerSession, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.sessions.get(userID, id)
}

func (s *viewerService) Page(ctx context.Context, id uuid.UUID) (viewer.Page, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.Page{}, err
	}
	return vs.viewer.Page(), nil
}

func (s *viewerService) Next(ctx context.Context, id uuid.UUID) (viewer.Page, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.Page{}, err
	}
	return vs.viewer.Next(), nil
}

func (s *viewerService) Prev(ctx context.Context, id uuid.UUID) (viewer.Page, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.Page{}, err
	}
	return vs.viewer.Prev(), nil
}

func (s *viewerService) GoTo(ctx context.Context, id uuid.UUID, page int) (viewer.Page, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.Page{}, err
	}
	return vs.viewer.GoTo(page), nil
}

func (s *viewerService) SelectOption(ctx context.Context, id uuid.UUID, sectionID string, option int) (viewer.QuizView, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.QuizView{}, err
	}
	return vs.viewer.SelectOption(sectionID, option)
}

func (s *viewerService) RevealAnswer(ctx context.Context, id uuid.UUID, sectionID string) (viewer.QuizView, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return viewer.QuizView{}, err
	}
	return vs.viewer.RevealAnswer(sectionID)
}

func (s *viewerService) ToggleNarration(ctx context.Context, id uuid.UUID) (narration.Result, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return narration.Result{}, err
	}
	if !vs.narrationEnabled {
		return narration.Result{}, apierr.Precondition(http.StatusConflict, "narration_disabled", errors.New("narration was not enabled for this course"))
	}
	page, moves := vs.viewer.Cursor()
	text := narration.PageText(vs.viewer.Course(), page)
	return vs.player.ToggleWhile(ctx, text, func() bool { return vs.viewer.Moves() == moves })
}

// NarrationEnded is the client's report that the narration clip finished
// playing or could not be played.
func (s *viewerService) NarrationEnded(ctx context.Context, id uuid.UUID, failed bool) (narration.Result, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return narration.Result{}, err
	}
	if vs.player.Finished(failed) && failed {
		s.log.Warn("narration playback failed in client", "viewer_id", id)
	}
	return narration.Result{Playing: vs.player.Playing()}, nil
}

func (s *viewerService) Voice(ctx context.Context, id uuid.UUID, audio []byte, mime string) (voice.Outcome, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return voice.Outcome{}, err
	}
	return vs.voice.Listen(ctx, audio, mime)
}

func (s *viewerService) ToggleMute(ctx context.Context, id uuid.UUID) (bool, error) {
	vs, err := s.lookup(ctx, id)
	if err != nil {
		return false, err
	}
	return vs.voice.ToggleMute(), nil
}

func (s *viewerService) Close(ctx context.Context, id uuid.UUID) error {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.sessions.get(userID, id); err != nil {
		return err
	}
	s.sessions.remove(userID, id)
	return nil
}

func (s *viewerService) Run(ctx context.Context, sweepEvery time.Duration) {
	s.sessions.run(ctx, sweepEvery)
}
