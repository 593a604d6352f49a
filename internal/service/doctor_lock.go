package service

import (
	"sync"

	"github.com/google/uuid"
)

// DoctorLocker сериализует мутации календаря по врачу: коммиты
// бронирований и изменения блокировок одного врача выполняются строго
// по одному, разные врачи — полностью параллельно.
type DoctorLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewDoctorLocker() *DoctorLocker {
	return &DoctorLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock захватывает мьютекс врача и возвращает функцию освобождения.
func (l *DoctorLocker) Lock(doctorID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[doctorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
