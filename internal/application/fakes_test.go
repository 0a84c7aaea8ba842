package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/infrastructure/storage"
)

func nullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// pose возвращает полный набор точек с заданными ухом и плечом слева
func pose(ear, shoulder entity.Landmark) []entity.Landmark {
	points := make([]entity.Landmark, entity.PoseLandmarkCount)
	for i := range points {
		points[i] = entity.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	points[entity.LeftEar] = ear
	points[entity.LeftShoulder] = shoulder
	return points
}

func alignedPose() []entity.Landmark {
	return pose(entity.Landmark{X: 0.50, Y: 0.30, Visibility: 1}, entity.Landmark{X: 0.50, Y: 0.55, Visibility: 1})
}

type fakeCamera struct {
	frames  chan entity.Image
	openErr error
	opened  atomic.Int32
	closed  atomic.Int32
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{frames: make(chan entity.Image)}
}

func (c *fakeCamera) Open(ctx context.Context, width, height int) error {
	if c.openErr != nil {
		return c.openErr
	}
	c.opened.Add(1)
	return nil
}

func (c *fakeCamera) Read(ctx context.Context) (entity.Image, error) {
	select {
	case <-ctx.Done():
		return entity.Image{}, ctx.Err()
	case img, ok := <-c.frames:
		if !ok {
			return entity.Image{}, entity.ErrDeviceUnavailable
		}
		return img, nil
	}
}

func (c *fakeCamera) Close() error {
	c.closed.Add(1)
	return nil
}

type detectFunc func(ctx context.Context, img entity.Image) ([]entity.Landmark, error)

func (f detectFunc) Detect(ctx context.Context, img entity.Image) ([]entity.Landmark, error) {
	return f(ctx, img)
}

type recordingSink struct {
	mu       sync.Mutex
	postures []entity.Posture
	errs     []error
}

func (s *recordingSink) ShowPosture(ctx context.Context, p entity.Posture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postures = append(s.postures, p)
}

func (s *recordingSink) ShowError(ctx context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) Postures() []entity.Posture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Posture(nil), s.postures...)
}

func (s *recordingSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// publishSpy сообщает результат каждой публикации в хранилище
type publishSpy struct {
	*storage.MemoryStateStore
	results chan bool
}

func newPublishSpy() *publishSpy {
	return &publishSpy{
		MemoryStateStore: storage.NewMemoryStateStore(),
		results:          make(chan bool, 16),
	}
}

func (s *publishSpy) Publish(sessionID string, p entity.Posture) bool {
	ok := s.MemoryStateStore.Publish(sessionID, p)
	s.results <- ok
	return ok
}

type renderCall struct {
	seq    uint64
	scored bool
}

// recordingRenderer запоминает, какие кадры рисовались и с оценкой ли
type recordingRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *recordingRenderer) Render(frame *entity.LandmarkFrame, posture *entity.Posture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{seq: frame.Seq, scored: posture != nil})
}

func (r *recordingRenderer) Calls() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderCall(nil), r.calls...)
}

// disableAfterPublish закрывает сессию сразу после удачной публикации,
// как Disable, пришедший между Publish и показом оценки.
type disableAfterPublish struct {
	*storage.MemoryStateStore
}

func (s disableAfterPublish) Publish(sessionID string, p entity.Posture) bool {
	ok := s.MemoryStateStore.Publish(sessionID, p)
	if ok {
		s.MemoryStateStore.Deactivate(sessionID)
	}
	return ok
}
