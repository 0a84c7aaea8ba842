package entity

import "time"

// EngineState снимок состояния: включена ли камера и последняя опубликованная оценка.
// Снимок неизменяем, обновляется целиком.
type EngineState struct {
	Enabled    bool      // камера включена
	SessionID  string    // текущая сессия захвата
	Posture    Posture   // последняя оценка
	HasPosture bool      // была ли хотя бы одна оценка
	UpdatedAt  time.Time // время последнего изменения
}
