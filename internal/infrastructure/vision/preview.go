//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// PreviewWindow показывает кадр с отмеченными ухом и плечом и текущей оценкой.
type PreviewWindow struct {
	MarkerSize int

	window *gocv.Window
}

// NewPreviewWindow создаёт окно предпросмотра.
func NewPreviewWindow(title string) *PreviewWindow {
	return &PreviewWindow{
		MarkerSize: 4,
		window:     gocv.NewWindow(title),
	}
}

// Render рисует кадр; posture == nil значит кадр без оценки.
func (p *PreviewWindow) Render(frame *entity.LandmarkFrame, posture *entity.Posture) {
	mat, err := decodeToMat(frame.Image.Data)
	if err != nil {
		return
	}
	defer mat.Close()

	if posture != nil {
		p.drawPosture(&mat, posture)
	}

	p.window.IMShow(mat)
	p.window.WaitKey(1)
}

// drawPosture рисует маркеры точек и подпись с оценкой.
func (p *PreviewWindow) drawPosture(mat *gocv.Mat, posture *entity.Posture) {
	red := color.RGBA{R: 255, A: 255}
	for _, l := range []entity.Landmark{posture.Ear, posture.Shoulder} {
		x, y := l.Pixel(mat.Cols(), mat.Rows())
		rect := image.Rect(x, y, x+p.MarkerSize, y+p.MarkerSize)
		gocv.Rectangle(mat, rect, red, -1)
	}

	label := fmt.Sprintf("Posture Score: %d%%", posture.Score)
	gocv.PutText(mat, label, image.Pt(8, 20), gocv.FontHersheyPlain, 1.2, tierColor(posture.Tier), 2)
}

// Close закрывает окно.
func (p *PreviewWindow) Close() error {
	return p.window.Close()
}

func tierColor(t entity.Tier) color.RGBA {
	switch t {
	case entity.TierGood:
		return color.RGBA{G: 255, A: 255}
	case entity.TierMinorAdjustment:
		return color.RGBA{R: 255, G: 200, A: 255}
	default:
		return color.RGBA{R: 255, A: 255}
	}
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var _ port.FrameRenderer = (*PreviewWindow)(nil)
