//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

type Camera struct {
	DeviceID      int
	MaxEmptyReads int
	JPEGQuality   int
}

// NewCamera создаёт камеру-заглушку (без OpenCV).
func NewCamera(deviceID int) *Camera {
	return &Camera{
		DeviceID:      deviceID,
		MaxEmptyReads: 30,
		JPEGQuality:   85,
	}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (c *Camera) Open(ctx context.Context, width, height int) error {
	_ = ctx
	_ = width
	_ = height
	return fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrDeviceUnavailable)
}

// Read возвращает ошибку, если сборка без тега gocv.
func (c *Camera) Read(ctx context.Context) (entity.Image, error) {
	_ = ctx
	return entity.Image{}, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrDeviceUnavailable)
}

// Close ничего не делает.
func (c *Camera) Close() error {
	return nil
}

var _ port.Camera = (*Camera)(nil)
