package notify

import (
	"context"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// Fanout рассылает оценки по всем получателям по очереди.
type Fanout []port.PresentationSink

// NewFanout собирает получателей, пропуская nil.
func NewFanout(sinks ...port.PresentationSink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) ShowPosture(ctx context.Context, posture entity.Posture) {
	for _, s := range f {
		s.ShowPosture(ctx, posture)
	}
}

func (f Fanout) ShowError(ctx context.Context, err error) {
	for _, s := range f {
		s.ShowError(ctx, err)
	}
}

var _ port.PresentationSink = Fanout(nil)
