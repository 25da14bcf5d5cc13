package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/avkuzmin/backoffice/internal/dto"
	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/service"
	"github.com/avkuzmin/backoffice/internal/validation"
)

// StageHandler — этапы заказов: CRUD, перестановки, доступность,
// расчёт цены и опции.
type StageHandler struct {
	stages  *service.StageService
	pricing *service.PricingService
}

// NewStageHandler создаёт хэндлер.
func NewStageHandler(stages *service.StageService, pricing *service.PricingService) *StageHandler {
	return &StageHandler{stages: stages, pricing: pricing}
}

// ListByOrder обрабатывает GET /orders/:id/stages.
func (h *StageHandler) ListByOrder(c *gin.Context) {
	stages, err := h.stages.ListStages(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

// NextSequence обрабатывает GET /orders/:id/stages/next-sequence.
// Значение справочное: при вставке номер пересчитывается в транзакции,
// так что гонка двух создателей не выдаст дубликат.
func (h *StageHandler) NextSequence(c *gin.Context) {
	next, err := h.stages.NextSequence(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_sequence": next})
}

// Create обрабатывает POST /orders/:id/stages.
func (h *StageHandler) Create(c *gin.Context) {
	var req dto.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название этапа", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sequence != 0 {
		if err := validation.ValidateSequence(req.Sequence); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	stage, err := h.stages.CreateStage(c.Request.Context(), service.CreateStageInput{
		OrderID:  paramID(c, "id"),
		Name:     req.Name,
		WorkType: req.WorkType,
		Sequence: req.Sequence,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"stage": stage})
}

// Get обрабатывает GET /stages/:id.
func (h *StageHandler) Get(c *gin.Context) {
	stage, err := h.stages.GetStage(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage})
}

// Update обрабатывает PUT /stages/:id.
func (h *StageHandler) Update(c *gin.Context) {
	var req dto.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stage, err := h.stages.UpdateStage(c.Request.Context(), paramID(c, "id"), service.UpdateStageInput{
		Name:     req.Name,
		WorkType: req.WorkType,
		Status:   req.Status,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage})
}

// UpdateStatus обрабатывает PATCH /stages/:id/status.
func (h *StageHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stage, err := h.stages.UpdateStageStatus(c.Request.Context(), paramID(c, "id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if actorID, err := currentUserID(c); err == nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"stage_id": stage.ID,
			"status":   stage.Status,
			"user_id":  actorID,
		}).Info("статус этапа изменён")
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage})
}

// Reorder обрабатывает POST /stages/:id/reorder: атомарный сдвиг
// промежуточных этапов и перенос этапа на новый sequence.
func (h *StageHandler) Reorder(c *gin.Context) {
	var req dto.ReorderStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateSequence(req.Sequence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stageID := paramID(c, "id")
	if err := h.stages.Reorder(c.Request.Context(), stageID, req.Sequence); err != nil {
		_ = c.Error(err)
		return
	}

	stage, err := h.stages.GetStage(c.Request.Context(), stageID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage})
}

// Delete обрабатывает DELETE /stages/:id.
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.stages.DeleteStage(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Eligibility обрабатывает GET /stages/:id/eligibility.
func (h *StageHandler) Eligibility(c *gin.Context) {
	result, err := h.stages.Eligibility(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Price обрабатывает GET /stages/:id/price.
func (h *StageHandler) Price(c *gin.Context) {
	result, err := h.pricing.StagePrice(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListOptions обрабатывает GET /stages/:id/options.
func (h *StageHandler) ListOptions(c *gin.Context) {
	options, err := h.stages.ListOptions(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

// CreateOption обрабатывает POST /stages/:id/options.
func (h *StageHandler) CreateOption(c *gin.Context) {
	var req dto.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название опции", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.stages.AddOption(c.Request.Context(), paramID(c, "id"), service.OptionInput{
		Name:          req.Name,
		PricingTypeID: req.PricingTypeID,
		PlanUnits:     req.PlanUnits,
		UnitDivider:   req.UnitDivider,
		VolumeUnitID:  req.VolumeUnitID,
		PricePerUnit:  req.PricePerUnit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"option": option})
}

// UpdateOption обрабатывает PUT /options/:id.
func (h *StageHandler) UpdateOption(c *gin.Context) {
	var req dto.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.stages.UpdateOption(c.Request.Context(), paramID(c, "id"), service.OptionInput{
		Name:          req.Name,
		PricingTypeID: req.PricingTypeID,
		PlanUnits:     req.PlanUnits,
		UnitDivider:   req.UnitDivider,
		VolumeUnitID:  req.VolumeUnitID,
		PricePerUnit:  req.PricePerUnit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"option": option})
}

// DeleteOption обрабатывает DELETE /options/:id.
func (h *StageHandler) DeleteOption(c *gin.Context) {
	if err := h.stages.DeleteOption(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
