package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// ScoringEngine превращает точки позы в оценку осанки и публикует её.
type ScoringEngine struct {
	store         port.EngineStateStore
	sink          port.PresentationSink
	renderer      port.FrameRenderer
	log           *logrus.Logger
	side          entity.Side
	minVisibility float64
	now           func() time.Time
}

// EngineOption настраивает ScoringEngine
type EngineOption func(*ScoringEngine)

// WithSide задаёт сторону тела для оценки
func WithSide(side entity.Side) EngineOption {
	return func(e *ScoringEngine) { e.side = side }
}

// WithMinVisibility отбрасывает точки с видимостью ниже порога; 0 отключает проверку
func WithMinVisibility(v float64) EngineOption {
	return func(e *ScoringEngine) { e.minVisibility = v }
}

// WithRenderer подключает отрисовку кадров
func WithRenderer(r port.FrameRenderer) EngineOption {
	return func(e *ScoringEngine) { e.renderer = r }
}

// NewScoringEngine создаёт движок оценки
func NewScoringEngine(store port.EngineStateStore, sink port.PresentationSink, log *logrus.Logger, opts ...EngineOption) *ScoringEngine {
	e := &ScoringEngine{
		store: store,
		sink:  sink,
		log:   log,
		side:  entity.SideLeft,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score считает оценку и подсказку для одного кадра. Ничего не публикует.
func (e *ScoringEngine) Score(frame *entity.LandmarkFrame) (entity.Posture, error) {
	if frame == nil || len(frame.Landmarks) == 0 {
		return entity.Posture{}, entity.ErrNoPose
	}
	if len(frame.Landmarks) != entity.PoseLandmarkCount {
		return entity.Posture{}, fmt.Errorf("%w: got %d landmarks, want %d",
			entity.ErrMalformedFrame, len(frame.Landmarks), entity.PoseLandmarkCount)
	}

	earIdx, shoulderIdx := e.side.Indices()
	ear := frame.Landmarks[earIdx]
	shoulder := frame.Landmarks[shoulderIdx]

	if err := e.validate("ear", ear); err != nil {
		return entity.Posture{}, err
	}
	if err := e.validate("shoulder", shoulder); err != nil {
		return entity.Posture{}, err
	}

	return entity.NewPosture(frame.Seq, ear, shoulder, e.now()), nil
}

func (e *ScoringEngine) validate(name string, l entity.Landmark) error {
	if !l.InFrame() {
		return fmt.Errorf("%w: %s out of frame (%.3f, %.3f)", entity.ErrMalformedFrame, name, l.X, l.Y)
	}
	if e.minVisibility > 0 && l.Visibility < e.minVisibility {
		return fmt.Errorf("%w: %s visibility %.2f below %.2f", entity.ErrMalformedFrame, name, l.Visibility, e.minVisibility)
	}
	return nil
}

// Handle оценивает кадр сессии и публикует результат.
// Ошибки наружу не отдаёт: плохой кадр просто пропускается, состояние не меняется.
// Возвращает true, если оценка попала в состояние.
func (e *ScoringEngine) Handle(ctx context.Context, sessionID string, frame *entity.LandmarkFrame) bool {
	posture, err := e.Score(frame)
	if err != nil {
		if e.store.Snapshot().SessionID == sessionID {
			e.render(frame, nil)
		}
		fields := logrus.Fields{"session_id": sessionID, "error": err.Error()}
		if frame != nil {
			fields["seq"] = frame.Seq
		}
		e.log.WithFields(fields).Debug("[ScoringEngine.Handle] frame skipped")
		return false
	}

	if !e.store.Publish(sessionID, posture) {
		e.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"seq":        posture.FrameSeq,
		}).Debug("[ScoringEngine.Handle] stale session, result discarded")
		return false
	}

	e.render(frame, &posture)

	// Disable мог пройти после Publish: в выключенную сессию оценку не показываем.
	if e.sink != nil && e.store.Snapshot().SessionID == sessionID {
		e.sink.ShowPosture(ctx, posture)
	}
	return true
}

func (e *ScoringEngine) render(frame *entity.LandmarkFrame, posture *entity.Posture) {
	if e.renderer == nil || frame == nil || frame.Image.Empty() {
		return
	}
	e.renderer.Render(frame, posture)
}
