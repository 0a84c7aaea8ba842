package port

import "posture-coach/internal/domain/entity"

// EngineStateStore хранилище состояния движка
type EngineStateStore interface {
	// Snapshot возвращает текущий снимок состояния
	Snapshot() entity.EngineState

	// Activate включает камеру для сессии
	Activate(sessionID string)

	// Deactivate выключает камеру, если сессия всё ещё текущая
	Deactivate(sessionID string)

	// Publish сохраняет оценку, только если сессия активна и текущая
	Publish(sessionID string, posture entity.Posture) bool
}
