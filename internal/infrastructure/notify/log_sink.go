package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// LogSink пишет в лог смену уровня осанки, каждую оценку - на debug.
type LogSink struct {
	log *logrus.Logger

	mu   sync.Mutex
	last entity.Tier
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) ShowPosture(ctx context.Context, posture entity.Posture) {
	fields := logrus.Fields{
		"seq":        posture.FrameSeq,
		"score":      posture.Score,
		"tier":       posture.Tier,
		"neck_delta": posture.NeckDelta,
	}

	s.mu.Lock()
	changed := s.last != posture.Tier
	s.last = posture.Tier
	s.mu.Unlock()

	if changed {
		s.log.WithFields(fields).Info(posture.Tip)
		return
	}
	s.log.WithFields(fields).Debug("[LogSink.ShowPosture] posture scored")
}

func (s *LogSink) ShowError(ctx context.Context, err error) {
	s.log.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("[LogSink.ShowError] posture coach stopped")
}

var _ port.PresentationSink = (*LogSink)(nil)
