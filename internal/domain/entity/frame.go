package entity

import "time"

// Image кадр с камеры, закодированный в JPEG.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// Empty сообщает, что в кадре нет данных.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// LandmarkFrame результат одного вызова детектора вместе с исходным кадром.
// Живёт ровно один цикл обработки и между кадрами не хранится.
type LandmarkFrame struct {
	Seq        uint64     // номер кадра в сессии
	CapturedAt time.Time  // время захвата
	Image      Image      // исходный кадр
	Landmarks  []Landmark // точки позы в порядке MediaPipe
}
