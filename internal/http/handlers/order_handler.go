package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/dto"
	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/service"
	"github.com/avkuzmin/backoffice/internal/validation"
)

// OrderHandler — CRUD по заказам и расчёт их цены.
type OrderHandler struct {
	orders   *repository.OrderRepository
	projects *repository.ProjectRepository
	pricing  *service.PricingService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *repository.OrderRepository, projects *repository.ProjectRepository, pricing *service.PricingService) *OrderHandler {
	return &OrderHandler{orders: orders, projects: projects, pricing: pricing}
}

// List обрабатывает GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	limit := 50
	offset := 0
	if v, ok := c.GetQuery("limit"); ok {
		if parsed, err := parsePositiveInt(v, 200); err == nil {
			limit = parsed
		}
	}
	if v, ok := c.GetQuery("offset"); ok {
		if parsed, err := parseNonNegativeInt(v); err == nil {
			offset = parsed
		}
	}

	orders, err := h.orders.List(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название заказа", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.projects.GetByID(c.Request.Context(), req.ProjectID); err != nil {
		_ = c.Error(err)
		return
	}

	order := &models.Order{
		ProjectID:  req.ProjectID,
		StatusID:   req.StatusID,
		CurrencyID: req.CurrencyID,
		Name:       req.Name,
		Comment:    req.Comment,
		Price:      req.Price,
		DeadlineAt: req.DeadlineAt,
	}
	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// Update обрабатывает PUT /orders/:id. Передача price задаёт ручную цену
// заказа; null снимает её.
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название заказа", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	order.StatusID = req.StatusID
	order.CurrencyID = req.CurrencyID
	order.Name = req.Name
	order.Comment = req.Comment
	order.Price = req.Price
	order.DeadlineAt = req.DeadlineAt
	if err := h.orders.Update(c.Request.Context(), order); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Delete обрабатывает DELETE /orders/:id. Этапы и опции удаляются каскадом.
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Price обрабатывает GET /orders/:id/price: действующая цена заказа,
// расчётная сумма и поэтапная разбивка с флагами невалидных опций.
func (h *OrderHandler) Price(c *gin.Context) {
	result, err := h.pricing.OrderPrice(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
