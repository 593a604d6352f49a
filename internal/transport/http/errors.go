package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/telehealth-platform/internal/schedule"
	"github.com/Leganyst/telehealth-platform/internal/service"
)

// writeError переводит ошибку ядра в HTTP-ответ. Три семейства для
// пользователя: "выберите другое время" (409), "попробуйте ещё раз"
// (503, транзиентный сбой хранилища), "нет прав" (403).
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_interval", "error": err.Error()})
	case errors.Is(err, service.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_slot", "error": err.Error()})
	case errors.Is(err, service.ErrNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"code": "not_permitted", "error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.Is(err, service.ErrOutOfHours):
		c.JSON(http.StatusConflict, gin.H{"code": "out_of_hours", "error": err.Error()})
	case errors.Is(err, service.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"code": "slot_unavailable", "error": err.Error()})
	case errors.Is(err, service.ErrConcurrentConflict):
		c.JSON(http.StatusConflict, gin.H{"code": "concurrent_conflict", "error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"code": "conflict", "error": err.Error()})
	case service.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "storage_unavailable", "error": "temporary storage failure, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": err.Error()})
	}
}
