//go:build !gocv
// +build !gocv

package vision

import (
	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

type PreviewWindow struct {
	MarkerSize int
}

// NewPreviewWindow создаёт окно-заглушку (без OpenCV), которое ничего не рисует.
func NewPreviewWindow(title string) *PreviewWindow {
	_ = title
	return &PreviewWindow{MarkerSize: 4}
}

// Render ничего не делает без тега gocv.
func (p *PreviewWindow) Render(frame *entity.LandmarkFrame, posture *entity.Posture) {
	_ = frame
	_ = posture
}

// Close ничего не делает.
func (p *PreviewWindow) Close() error {
	return nil
}

var _ port.FrameRenderer = (*PreviewWindow)(nil)
