package service

import (
	"errors"
	"fmt"
)

// Ошибки календарного ядра. Все восстановимые: каждая попытка
// бронирования независима и может быть повторена с другим слотом.
var (
	// Интервал не лежит на сетке слотов или имеет не ту длительность.
	ErrInvalidSlot = errors.New("interval is not an aligned slot")
	// Интервал вне шаблона рабочих часов.
	ErrOutOfHours = errors.New("interval is outside business hours")
	// Интервал уже занят блокировкой или приёмом (обнаружено при валидации).
	ErrConflict = errors.New("interval conflicts with existing entry")
	// Слот недоступен в текущей поверхности бронирования.
	ErrSlotUnavailable = errors.New("slot is not available")
	// Слот заняли между валидацией и коммитом.
	ErrConcurrentConflict = errors.New("slot was taken by a concurrent booking")
	// Запрошенный блок или приём не существует.
	ErrNotFound = errors.New("not found")
	// У субъекта нет прав на ресурс.
	ErrNotPermitted = errors.New("not permitted")
)

// StorageError — транзиентный сбой хранилища. Отдаётся вызывающему как
// отдельный вид ошибки ("попробуйте ещё раз"), никогда не смешивается
// с бизнес-конфликтами.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsTransient сообщает, стоит ли вызывающему повторить запрос с backoff.
func IsTransient(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
