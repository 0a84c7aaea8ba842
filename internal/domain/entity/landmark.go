package entity

import "math"

// Индексы ключевых точек позы в нумерации MediaPipe Pose.
const (
	Nose          = 0
	LeftEyeInner  = 1
	LeftEye       = 2
	LeftEyeOuter  = 3
	RightEyeInner = 4
	RightEye      = 5
	RightEyeOuter = 6
	LeftEar       = 7
	RightEar      = 8
	MouthLeft     = 9
	MouthRight    = 10
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16

	PoseLandmarkCount = 33
)

// Landmark ключевая точка в нормализованных координатах изображения.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// InFrame сообщает, что координаты конечны и лежат в [0,1].
func (l Landmark) InFrame() bool {
	return inUnit(l.X) && inUnit(l.Y)
}

// Pixel переводит точку в пиксели кадра заданного размера.
func (l Landmark) Pixel(width, height int) (x, y int) {
	return int(l.X * float64(width)), int(l.Y * float64(height))
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Side сторона тела, по которой считается осанка
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Indices возвращает индексы уха и плеча для стороны.
// Индексы анатомические по MediaPipe: ухо 7/8, плечо 11/12 (15 - это запястье, не ухо).
func (s Side) Indices() (ear, shoulder int) {
	if s == SideRight {
		return RightEar, RightShoulder
	}
	return LeftEar, LeftShoulder
}
