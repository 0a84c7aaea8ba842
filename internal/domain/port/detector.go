package port

import (
	"context"

	"posture-coach/internal/domain/entity"
)

// LandmarkDetector интерфейс внешнего детектора позы
type LandmarkDetector interface {
	// Detect возвращает точки позы для кадра; (nil, nil) если человека в кадре нет
	Detect(ctx context.Context, img entity.Image) ([]entity.Landmark, error)
}
