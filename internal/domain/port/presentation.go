package port

import (
	"context"

	"posture-coach/internal/domain/entity"
)

// PresentationSink получатель оценок осанки. Подтверждения не ждём.
type PresentationSink interface {
	// ShowPosture показывает свежую пару (оценка, подсказка)
	ShowPosture(ctx context.Context, posture entity.Posture)

	// ShowError сообщает, что функцию не удалось запустить или продолжить
	ShowError(ctx context.Context, err error)
}

// FrameRenderer рисует кадр с отмеченными точками; posture == nil если кадр не оценён
type FrameRenderer interface {
	Render(frame *entity.LandmarkFrame, posture *entity.Posture)
}
