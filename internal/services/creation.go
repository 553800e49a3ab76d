package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/modules/coursegen"
	"github.com/yungbote/adaptedu-backend/internal/modules/ingestion"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/gcp"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

var errSuperseded = apierr.Precondition(http.StatusConflict, "superseded", coursegen.ErrSuperseded)

// CreationView is the state of one creation session as the browser sees it.
type CreationView struct {
	ID uuid.UUID `json:"id"`
	coursegen.Snapshot
	Upload ingestion.Progress `json:"upload"`
}

// CreationService drives upload, analysis, generation and publish for
// per-user creation sessions.
type CreationService interface {
	Open(ctx context.Context) (CreationView, error)
	Get(ctx context.Context, id uuid.UUID) (CreationView, error)
	Upload(ctx context.Context, id uuid.UUID, file ingestion.File, data []byte) (CreationView, error)
	Generate(ctx context.Context, id uuid.UUID, opts types.FormOptions) (CreationView, error)
	Publish(ctx context.Context, id uuid.UUID) (*types.PublishedCourse, error)
	Preview(ctx context.Context, id uuid.UUID) (*types.Course, types.FormOptions, error)
	Run(ctx context.Context, sweepEvery time.Duration)
}

type creationSession struct {
	id      uuid.UUID
	owner   uuid.UUID
	session *coursegen.Session
	tracker *ingestion.Tracker
}

// Close abandons in-flight work; late responses are discarded by the guard.
func (cs *creationSession) Close() { cs.session.Reset() }

func (cs *creationSession) view() CreationView {
	return CreationView{ID: cs.id, Snapshot: cs.session.Snapshot(), Upload: cs.tracker.Snapshot()}
}

type CreationConfig struct {
	Progress   ingestion.ProgressConfig
	SessionTTL time.Duration
}

type creationService struct {
	log       *logger.Logger
	cfg       CreationConfig
	extractor ingestion.Extractor
	generator coursegen.Generator
	courses   CourseService
	bucket    gcp.BucketService
	emitter   realtime.Emitter
	sessions  *registry[*creationSession]
}

// NewCreationService wires the pipeline. bucket may be nil to skip source
// archival.
func NewCreationService(
	log *logger.Logger,
	cfg CreationConfig,
	extractor ingestion.Extractor,
	generator coursegen.Generator,
	courses CourseService,
	bucket gcp.BucketService,
	emitter realtime.Emitter,
) CreationService {
	if emitter == nil {
		emitter = realtime.NopEmitter
	}
	if cfg.Progress.Step == 0 {
		cfg.Progress = ingestion.DefaultProgressConfig
	}
	serviceLog := log.With("service", "CreationService")
	return &creationService{
		log:       serviceLog,
		cfg:       cfg,
		extractor: extractor,
		generator: generator,
		courses:   courses,
		bucket:    bucket,
		emitter:   emitter,
		sessions:  newRegistry[*creationSession](serviceLog, "creation", cfg.SessionTTL),
	}
}

func (s *creationService) Open(ctx context.Context) (CreationView, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return CreationView{}, err
	}
	cs := &creationSession{owner: userID}
	channel := realtime.UserChannel(userID)
	cs.session = coursegen.NewSession(func(snap coursegen.Snapshot) {
		s.emitter.Emit(realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventPipelineStateChanged,
			Data:    map[string]any{"creationId": cs.id, "state": snap.State, "error": snap.Error},
		})
	})
	cs.tracker = ingestion.NewTracker(s.cfg.Progress, func(p ingestion.Progress) {
		s.emitter.Emit(realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventUploadProgress,
			Data:    map[string]any{"creationId": cs.id, "stage": p.Stage, "progress": p.Percent, "error": p.Error},
		})
	})
	cs.id = s.sessions.put(userID, cs)
	s.log.Info("creation session opened", "user_id", userID, "session_id", cs.id)
	return cs.view(), nil
}

func (s *creationService) lookup(ctx context.Context, id uuid.UUID) (*creationSession, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.sessions.get(userID, id)
}

func (s *creationService) Get(ctx context.Context, id uuid.UUID) (CreationView, error) {
	cs, err := s.lookup(ctx, id)
	if err != nil {
		return CreationView{}, err
	}
	return cs.view(), nil
}

// Upload validates the file, runs progress and extraction (archiving the
// source alongside), then analyzes the text. A rejected file leaves the
// session untouched.
func (s *creationService) Upload(ctx context.Context, id uuid.UUID, file ingestion.File, data []byte) (CreationView, error) {
	cs, err := s.lookup(ctx, id)
	if err != nil {
		return CreationView{}, err
	}
	if err := ingestion.Validate(file); err != nil {
		return CreationView{}, err
	}
	tok, err := cs.session.BeginUpload(file.Name)
	if err != nil {
		return CreationView{}, err
	}
	if err := cs.tracker.Select(file); err != nil {
		_ = cs.session.FailUpload(tok, err)
		return cs.view(), err
	}

	var text string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var runErr error
		text, runErr = cs.tracker.Run(gctx, s.extractor, data)
		return runErr
	})
	if s.bucket != nil {
		g.Go(func() error {
			s.archive(gctx, cs, file, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = cs.session.FailUpload(tok, err)
		return cs.view(), err
	}

	atok, err := cs.session.BeginAnalyze(tok, text)
	if err != nil {
		return cs.view(), s.superseded(cs, "analyze", err)
	}
	analysis, err := s.generator.Analyze(ctx, coursegen.DefaultAnalyzeRequest(text))
	if cerr := cs.session.CompleteAnalyze(atok, analysis, err); cerr != nil {
		return cs.view(), s.superseded(cs, "analyze", cerr)
	}
	if err != nil {
		s.log.Warn("analysis failed", "session_id", cs.id, "error", err)
		return cs.view(), err
	}
	return cs.view(), nil
}

func (s *creationService) archive(ctx context.Context, cs *creationSession, file ingestion.File, data []byte) {
	key := gcp.SourceKey(cs.owner.String(), cs.id.String())
	if err := s.bucket.UploadFile(ctx, key, ingestion.PDFMimeType, bytes.NewReader(data)); err != nil {
		observability.Current().IncMedia("archive", "error")
		s.log.Warn("source archival failed", "session_id", cs.id, "key", key, "error", err)
		return
	}
	observability.Current().IncMedia("archive", "ok")
	s.log.Debug("source archived", "session_id", cs.id, "key", key, "bytes", len(data))
}

func (s *creationService) superseded(cs *creationSession, stage string, err error) error {
	if errors.Is(err, coursegen.ErrSuperseded) {
		s.log.Info("discarding superseded response", "session_id", cs.id, "stage", stage)
		return errSuperseded
	}
	return err
}

func (s *creationService) Generate(ctx context.Context, id uuid.UUID, opts types.FormOptions) (CreationView, error) {
	cs, err := s.lookup(ctx, id)
	if err != nil {
		return CreationView{}, err
	}
	tok, text, analysis, err := cs.session.BeginGenerate(opts)
	if err != nil {
		return cs.view(), err
	}
	c, err := s.generator.Generate(ctx, text, analysis, opts)
	if cerr := cs.session.CompleteGenerate(tok, c, err); cerr != nil {
		return cs.view(), s.superseded(cs, "generate", cerr)
	}
	if err != nil {
		s.log.Warn("generation failed", "session_id", cs.id, "error", err)
		return cs.view(), err
	}
	return cs.view(), nil
}

func (s *creationService) Publish(ctx context.Context, id uuid.UUID) (*types.PublishedCourse, error) {
	cs, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	tok, c, err := cs.session.BeginPublish()
	if err != nil {
		return nil, err
	}
	rec, err := s.courses.Publish(ctx, c)
	recID := uuid.Nil
	if rec != nil {
		recID = rec.ID
	}
	if cerr := cs.session.CompletePublish(tok, recID, err); cerr != nil {
		return nil, s.superseded(cs, "publish", cerr)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *creationService) Preview(ctx context.Context, id uuid.UUID) (*types.Course, types.FormOptions, error) {
	cs, err := s.lookup(ctx, id)
	if err != nil {
		return nil, types.FormOptions{}, err
	}
	c, opts, ok := cs.session.Preview()
	if !ok {
		return nil, types.FormOptions{}, apierr.Precondition(http.StatusConflict, "no_preview", errors.New("no generated course yet"))
	}
	return c, opts, nil
}

func (s *creationService) Run(ctx context.Context, sweepEvery time.Duration) {
	s.sessions.run(ctx, sweepEvery)
}
