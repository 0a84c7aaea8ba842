//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gocv.io/x/gocv"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// Camera захват кадров с веб-камеры через OpenCV.
type Camera struct {
	DeviceID      int
	MaxEmptyReads int // подряд пустых кадров до признания камеры потерянной
	JPEGQuality   int

	capture *gocv.VideoCapture
	frame   gocv.Mat
	empty   int
}

// NewCamera создаёт камеру для устройства с номером deviceID.
func NewCamera(deviceID int) *Camera {
	return &Camera{
		DeviceID:      deviceID,
		MaxEmptyReads: 30,
		JPEGQuality:   85,
	}
}

// Open открывает устройство и выставляет разрешение захвата.
func (c *Camera) Open(ctx context.Context, width, height int) error {
	_ = ctx
	if err := c.checkDevice(); err != nil {
		return err
	}

	capture, err := gocv.OpenVideoCaptureWithAPI(c.DeviceID, gocv.VideoCaptureAny)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d is not opened", entity.ErrDeviceUnavailable, c.DeviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

	c.capture = capture
	c.frame = gocv.NewMat()
	c.empty = 0
	return nil
}

// Read блокируется до следующего кадра и возвращает его в JPEG.
func (c *Camera) Read(ctx context.Context) (entity.Image, error) {
	if err := ctx.Err(); err != nil {
		return entity.Image{}, err
	}
	if c.capture == nil {
		return entity.Image{}, fmt.Errorf("%w: camera is not opened", entity.ErrDeviceUnavailable)
	}

	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		c.empty++
		if c.empty >= c.MaxEmptyReads {
			return entity.Image{}, fmt.Errorf("%w: %d empty frames in a row", entity.ErrDeviceUnavailable, c.empty)
		}
		return entity.Image{}, errors.New("empty frame")
	}
	c.empty = 0

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.frame, []int{int(gocv.IMWriteJpegQuality), c.JPEGQuality})
	if err != nil {
		return entity.Image{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// Буфер живёт в памяти OpenCV, копируем до Close.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return entity.Image{
		Width:  c.frame.Cols(),
		Height: c.frame.Rows(),
		Data:   data,
	}, nil
}

// Close освобождает устройство.
func (c *Camera) Close() error {
	if c.capture == nil {
		return nil
	}
	c.frame.Close()
	err := c.capture.Close()
	c.capture = nil
	return err
}

// checkDevice на Linux отличает запрет доступа от отсутствия устройства.
func (c *Camera) checkDevice() error {
	if runtime.GOOS != "linux" {
		return nil
	}
	f, err := os.Open(fmt.Sprintf("/dev/video%d", c.DeviceID))
	switch {
	case err == nil:
		return f.Close()
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %v", entity.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
	}
}

// Проверка реализации интерфейса
var _ port.Camera = (*Camera)(nil)
