package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// Разрешение захвата по умолчанию
const (
	DefaultFrameWidth  = 320
	DefaultFrameHeight = 240
)

// CaptureStats счётчики работы источника кадров
type CaptureStats struct {
	Active            bool
	SessionID         string
	Captured          uint64 // кадров прочитано с камеры
	Dropped           uint64 // кадров вытеснено, пока детектор был занят
	Detected          uint64 // успешных вызовов детектора
	DetectionFailures uint64 // неудачных вызовов детектора
	Scored            uint64 // оценок опубликовано
}

type capturedFrame struct {
	seq   uint64
	at    time.Time
	image entity.Image
}

type captureSession struct {
	id         string
	ctx        context.Context
	cancel     context.CancelFunc
	mailbox    chan capturedFrame
	readerDone chan struct{}
}

// FrameSource владеет камерой и гонит кадры через детектор в ScoringEngine.
//
// Чтение идёт в темпе камеры в почтовый ящик на один кадр: новый кадр
// вытесняет необработанный. Детектор вызывается из одной горутины, поэтому
// одновременно в работе не больше одного кадра и оценки публикуются в порядке захвата.
type FrameSource struct {
	camera   port.Camera
	detector port.LandmarkDetector
	engine   *ScoringEngine
	store    port.EngineStateStore
	sink     port.PresentationSink
	log      *logrus.Logger
	width    int
	height   int

	mu      sync.Mutex // сериализует Enable/Disable
	current atomic.Pointer[captureSession]
	last    *captureSession

	captured atomic.Uint64
	dropped  atomic.Uint64
	detected atomic.Uint64
	failed   atomic.Uint64
	scored   atomic.Uint64
}

// NewFrameSource создаёт источник кадров; нулевые размеры заменяются на 320x240
func NewFrameSource(camera port.Camera, detector port.LandmarkDetector, engine *ScoringEngine, store port.EngineStateStore, sink port.PresentationSink, log *logrus.Logger, width, height int) *FrameSource {
	if width <= 0 {
		width = DefaultFrameWidth
	}
	if height <= 0 {
		height = DefaultFrameHeight
	}
	return &FrameSource{
		camera:   camera,
		detector: detector,
		engine:   engine,
		store:    store,
		sink:     sink,
		log:      log,
		width:    width,
		height:   height,
	}
}

// Enable открывает камеру и запускает цикл захвата. Повторный вызов ничего не делает.
func (s *FrameSource) Enable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Load() != nil {
		return nil
	}

	// Предыдущая сессия могла завершиться сама; ждём, пока она отпустит камеру.
	if s.last != nil {
		<-s.last.readerDone
	}

	if err := s.camera.Open(ctx, s.width, s.height); err != nil {
		err = classifyCameraError(err)
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("[FrameSource.Enable] failed to open camera")
		return err
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &captureSession{
		id:         uuid.NewString(),
		ctx:        sessCtx,
		cancel:     cancel,
		mailbox:    make(chan capturedFrame, 1),
		readerDone: make(chan struct{}),
	}
	s.last = sess
	s.current.Store(sess)
	s.store.Activate(sess.id)

	go s.readLoop(sess)
	go s.detectLoop(sess)

	s.log.WithFields(logrus.Fields{
		"session_id": sess.id,
		"width":      s.width,
		"height":     s.height,
	}).Info("[FrameSource.Enable] capture started")

	return nil
}

// Disable останавливает захват и освобождает камеру. Идемпотентен.
// Вызов детектора, который уже в работе, может завершиться, но его результат отбрасывается.
func (s *FrameSource) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current.Swap(nil)
	if sess == nil {
		return
	}
	s.stop(sess)
	<-sess.readerDone

	s.log.WithFields(logrus.Fields{
		"session_id": sess.id,
	}).Info("[FrameSource.Disable] capture stopped")
}

// Active сообщает, идёт ли захват
func (s *FrameSource) Active() bool {
	return s.current.Load() != nil
}

// Stats возвращает счётчики
func (s *FrameSource) Stats() CaptureStats {
	stats := CaptureStats{
		Captured:          s.captured.Load(),
		Dropped:           s.dropped.Load(),
		Detected:          s.detected.Load(),
		DetectionFailures: s.failed.Load(),
		Scored:            s.scored.Load(),
	}
	if sess := s.current.Load(); sess != nil {
		stats.Active = true
		stats.SessionID = sess.id
	}
	return stats
}

func (s *FrameSource) stop(sess *captureSession) {
	// Сначала закрываем сессию в хранилище, чтобы запоздавшие результаты не прошли.
	s.store.Deactivate(sess.id)
	sess.cancel()
}

func (s *FrameSource) readLoop(sess *captureSession) {
	defer close(sess.readerDone)
	defer func() {
		if err := s.camera.Close(); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": sess.id,
				"error":      err.Error(),
			}).Warn("[FrameSource.readLoop] failed to release camera")
		}
	}()

	var seq uint64
	for sess.ctx.Err() == nil {
		img, err := s.camera.Read(sess.ctx)
		if err != nil {
			if sess.ctx.Err() != nil {
				return
			}
			if errors.Is(err, entity.ErrDeviceUnavailable) {
				s.log.WithFields(logrus.Fields{
					"session_id": sess.id,
					"error":      err.Error(),
				}).Error("[FrameSource.readLoop] camera lost")
				if s.current.CompareAndSwap(sess, nil) {
					s.stop(sess)
				}
				if s.sink != nil {
					s.sink.ShowError(context.Background(), err)
				}
				return
			}
			s.log.WithFields(logrus.Fields{
				"session_id": sess.id,
				"error":      err.Error(),
			}).Debug("[FrameSource.readLoop] frame read failed")
			continue
		}

		seq++
		s.captured.Add(1)
		s.offer(sess, capturedFrame{seq: seq, at: time.Now(), image: img})
	}
}

// offer кладёт кадр в почтовый ящик, вытесняя необработанный.
// Писатель один, поэтому последняя отправка не блокируется.
func (s *FrameSource) offer(sess *captureSession, f capturedFrame) {
	select {
	case sess.mailbox <- f:
		return
	default:
	}

	select {
	case <-sess.mailbox:
		s.dropped.Add(1)
	default:
	}
	sess.mailbox <- f
}

func (s *FrameSource) detectLoop(sess *captureSession) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case f := <-sess.mailbox:
			s.process(sess, f)
		}
	}
}

func (s *FrameSource) process(sess *captureSession, f capturedFrame) {
	landmarks, err := s.detector.Detect(sess.ctx, f.image)
	if err != nil {
		if sess.ctx.Err() != nil {
			return
		}
		s.failed.Add(1)
		s.log.WithFields(logrus.Fields{
			"session_id": sess.id,
			"seq":        f.seq,
			"error":      fmt.Errorf("%w: %v", entity.ErrDetectionFailure, err).Error(),
		}).Debug("[FrameSource.process] frame skipped")
		return
	}
	s.detected.Add(1)

	frame := &entity.LandmarkFrame{
		Seq:        f.seq,
		CapturedAt: f.at,
		Image:      f.image,
		Landmarks:  landmarks,
	}
	if s.engine.Handle(sess.ctx, sess.id, frame) {
		s.scored.Add(1)
	}
}

func classifyCameraError(err error) error {
	if errors.Is(err, entity.ErrPermissionDenied) || errors.Is(err, entity.ErrDeviceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
}
