package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/service"
)

// SeedHandler наполняет базу демо-данными. Маршрут монтируется
// только вне production.
type SeedHandler struct {
	seeder *service.SeedService
}

// NewSeedHandler создаёт хэндлер.
func NewSeedHandler(seeder *service.SeedService) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

// Seed обрабатывает POST /dev/seed.
func (h *SeedHandler) Seed(c *gin.Context) {
	if err := h.seeder.Seed(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "демо-данные загружены"})
}
