package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/dto"
	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/validation"
)

// TaxonomyHandler — справочники: единицы измерения, типы ценообразования,
// валюты и таксономии статусов. Типы ценообразования отдаются только на
// чтение: included/calculable заполняются миграцией.
type TaxonomyHandler struct {
	repo *repository.TaxonomyRepository
}

// NewTaxonomyHandler создаёт хэндлер.
func NewTaxonomyHandler(repo *repository.TaxonomyRepository) *TaxonomyHandler {
	return &TaxonomyHandler{repo: repo}
}

// ListUnits обрабатывает GET /units.
func (h *TaxonomyHandler) ListUnits(c *gin.Context) {
	units, err := h.repo.ListUnits(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}

// CreateUnit обрабатывает POST /units.
func (h *TaxonomyHandler) CreateUnit(c *gin.Context) {
	var req dto.UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit := &models.UnitOfMeasure{FullName: req.FullName, ShortName: req.ShortName}
	if err := h.repo.CreateUnit(c.Request.Context(), unit); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": unit})
}

// UpdateUnit обрабатывает PUT /units/:id.
func (h *TaxonomyHandler) UpdateUnit(c *gin.Context) {
	var req dto.UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit := &models.UnitOfMeasure{ID: paramID(c, "id"), FullName: req.FullName, ShortName: req.ShortName}
	if err := h.repo.UpdateUnit(c.Request.Context(), unit); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// DeleteUnit обрабатывает DELETE /units/:id.
func (h *TaxonomyHandler) DeleteUnit(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := h.repo.DeleteUnit(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPricingTypes обрабатывает GET /pricing-types.
func (h *TaxonomyHandler) ListPricingTypes(c *gin.Context) {
	types, err := h.repo.ListPricingTypes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing_types": types})
}

// ListCurrencies обрабатывает GET /currencies.
func (h *TaxonomyHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.repo.ListCurrencies(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

// CreateCurrency обрабатывает POST /currencies.
func (h *TaxonomyHandler) CreateCurrency(c *gin.Context) {
	var req dto.CurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currency := &models.Currency{Code: req.Code, Name: req.Name, Symbol: req.Symbol, Rate: req.Rate}
	if err := h.repo.CreateCurrency(c.Request.Context(), currency); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"currency": currency})
}

// UpdateCurrency обрабатывает PUT /currencies/:id.
func (h *TaxonomyHandler) UpdateCurrency(c *gin.Context) {
	var req dto.CurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currency := &models.Currency{ID: paramID(c, "id"), Code: req.Code, Name: req.Name, Symbol: req.Symbol, Rate: req.Rate}
	if err := h.repo.UpdateCurrency(c.Request.Context(), currency); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currency": currency})
}

// DeleteCurrency обрабатывает DELETE /currencies/:id.
func (h *TaxonomyHandler) DeleteCurrency(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := h.repo.DeleteCurrency(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOrderStatuses обрабатывает GET /order-statuses.
func (h *TaxonomyHandler) ListOrderStatuses(c *gin.Context) {
	h.listStatuses(c, models.StatusKindOrder)
}

// ListProjectStatuses обрабатывает GET /project-statuses.
func (h *TaxonomyHandler) ListProjectStatuses(c *gin.Context) {
	h.listStatuses(c, models.StatusKindProject)
}

func (h *TaxonomyHandler) listStatuses(c *gin.Context, kind models.StatusKind) {
	statuses, err := h.repo.ListStatuses(c.Request.Context(), kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// CreateOrderStatus обрабатывает POST /order-statuses.
func (h *TaxonomyHandler) CreateOrderStatus(c *gin.Context) {
	h.createStatus(c, models.StatusKindOrder)
}

// CreateProjectStatus обрабатывает POST /project-statuses.
func (h *TaxonomyHandler) CreateProjectStatus(c *gin.Context) {
	h.createStatus(c, models.StatusKindProject)
}

func (h *TaxonomyHandler) createStatus(c *gin.Context, kind models.StatusKind) {
	req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	status := &models.Status{
		Kind:    kind,
		Code:    req.Code,
		Label:   req.Label,
		FgColor: req.FgColor,
		BgColor: req.BgColor,
	}
	if err := h.repo.CreateStatus(c.Request.Context(), status); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": status})
}

// UpdateStatus обрабатывает PUT /order-statuses/:id и /project-statuses/:id.
// Kind строки не меняется: статус заказа не превратить в статус проекта.
func (h *TaxonomyHandler) UpdateStatus(c *gin.Context) {
	req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	status, err := h.repo.GetStatusByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	status.Code = req.Code
	status.Label = req.Label
	status.FgColor = req.FgColor
	status.BgColor = req.BgColor

	if err := h.repo.UpdateStatus(c.Request.Context(), status); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// DeleteStatus обрабатывает DELETE /order-statuses/:id и /project-statuses/:id.
// Удаление строк таксономии доступно только администратору: на статусы
// ссылаются заказы и проекты.
func (h *TaxonomyHandler) DeleteStatus(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := h.repo.DeleteStatus(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindStatusRequest(c *gin.Context) (dto.StatusRequest, bool) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if err := validation.ValidateHexColor("fg_color", req.FgColor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if err := validation.ValidateHexColor("bg_color", req.BgColor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}
