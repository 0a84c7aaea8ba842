package port

import (
	"context"

	"posture-coach/internal/domain/entity"
)

// Camera интерфейс источника видеокадров
type Camera interface {
	// Open запрашивает доступ к устройству и задаёт разрешение захвата.
	// Возвращает entity.ErrPermissionDenied или entity.ErrDeviceUnavailable.
	Open(ctx context.Context, width, height int) error

	// Read блокируется до следующего кадра в темпе устройства
	Read(ctx context.Context) (entity.Image, error)

	// Close освобождает устройство
	Close() error
}
