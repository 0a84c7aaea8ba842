package container

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	app "posture-coach/internal/application"
	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
	"posture-coach/internal/infrastructure/notify"
	"posture-coach/internal/infrastructure/storage"
)

// Settings параметры сборки конвейера
type Settings struct {
	Width         int
	Height        int
	Side          entity.Side
	MinVisibility float64
}

// Container собранный конвейер оценки осанки
type Container struct {
	States      *storage.MemoryStateStore
	Sinks       *SinkSwitch
	Delivery    *notify.Async
	Engine      *app.ScoringEngine
	FrameSource *app.FrameSource
}

// New собирает хранилище, движок и источник кадров.
// Получатели оценок подключаются позже через Sinks, когда готов бот.
func New(camera port.Camera, detector port.LandmarkDetector, renderer port.FrameRenderer, log *logrus.Logger, settings Settings) *Container {
	states := storage.NewMemoryStateStore()
	sinks := &SinkSwitch{}
	// Получатели работают в своей горутине, чтобы медленный чат не держал детектор.
	delivery := notify.NewAsync(sinks, log)

	opts := []app.EngineOption{
		app.WithSide(settings.Side),
		app.WithMinVisibility(settings.MinVisibility),
	}
	if renderer != nil {
		opts = append(opts, app.WithRenderer(renderer))
	}
	engine := app.NewScoringEngine(states, delivery, log, opts...)
	frameSource := app.NewFrameSource(camera, detector, engine, states, delivery, log, settings.Width, settings.Height)

	return &Container{
		States:      states,
		Sinks:       sinks,
		Delivery:    delivery,
		Engine:      engine,
		FrameSource: frameSource,
	}
}

// Close останавливает захват и доставку оценок
func (c *Container) Close() {
	c.FrameSource.Disable()
	c.Delivery.Close()
}

// SinkSwitch получатель, которого можно заменить после сборки.
// Нужен, потому что бот сам зависит от FrameSource.
type SinkSwitch struct {
	sink atomic.Pointer[notify.Fanout]
}

// Set задаёт получателей
func (s *SinkSwitch) Set(sinks ...port.PresentationSink) {
	fanout := notify.NewFanout(sinks...)
	s.sink.Store(&fanout)
}

func (s *SinkSwitch) ShowPosture(ctx context.Context, posture entity.Posture) {
	if f := s.sink.Load(); f != nil {
		f.ShowPosture(ctx, posture)
	}
}

func (s *SinkSwitch) ShowError(ctx context.Context, err error) {
	if f := s.sink.Load(); f != nil {
		f.ShowError(ctx, err)
	}
}

var _ port.PresentationSink = (*SinkSwitch)(nil)
