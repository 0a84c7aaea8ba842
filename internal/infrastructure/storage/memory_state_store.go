package storage

import (
	"sync/atomic"
	"time"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// MemoryStateStore in-memory хранилище состояния движка.
// Снимок заменяется целиком через CAS, поэтому читатель никогда не видит
// оценку от одного кадра с подсказкой от другого.
type MemoryStateStore struct {
	state atomic.Pointer[entity.EngineState]
	now   func() time.Time
}

// NewMemoryStateStore создаёт пустое хранилище
func NewMemoryStateStore() *MemoryStateStore {
	s := &MemoryStateStore{now: time.Now}
	s.state.Store(&entity.EngineState{})
	return s
}

// Snapshot возвращает копию текущего состояния
func (s *MemoryStateStore) Snapshot() entity.EngineState {
	return *s.state.Load()
}

// Activate отмечает камеру включённой для новой сессии
func (s *MemoryStateStore) Activate(sessionID string) {
	s.update(func(cur entity.EngineState) (entity.EngineState, bool) {
		cur.Enabled = true
		cur.SessionID = sessionID
		return cur, true
	})
}

// Deactivate выключает камеру; устаревшую сессию игнорирует
func (s *MemoryStateStore) Deactivate(sessionID string) {
	s.update(func(cur entity.EngineState) (entity.EngineState, bool) {
		if !cur.Enabled || cur.SessionID != sessionID {
			return cur, false
		}
		cur.Enabled = false
		cur.SessionID = ""
		return cur, true
	})
}

// Publish сохраняет оценку текущей активной сессии
func (s *MemoryStateStore) Publish(sessionID string, posture entity.Posture) bool {
	return s.update(func(cur entity.EngineState) (entity.EngineState, bool) {
		if !cur.Enabled || cur.SessionID != sessionID {
			return cur, false
		}
		cur.Posture = posture
		cur.HasPosture = true
		return cur, true
	})
}

func (s *MemoryStateStore) update(fn func(entity.EngineState) (entity.EngineState, bool)) bool {
	for {
		old := s.state.Load()
		next, ok := fn(*old)
		if !ok {
			return false
		}
		next.UpdatedAt = s.now()
		if s.state.CompareAndSwap(old, &next) {
			return true
		}
	}
}

// Проверка реализации интерфейса
var _ port.EngineStateStore = (*MemoryStateStore)(nil)
