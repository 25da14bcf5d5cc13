package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/dto"
	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/validation"
)

// CustomerHandler — CRUD по заказчикам.
type CustomerHandler struct {
	customers *repository.CustomerRepository
	projects  *repository.ProjectRepository
}

// NewCustomerHandler создаёт хэндлер.
func NewCustomerHandler(customers *repository.CustomerRepository, projects *repository.ProjectRepository) *CustomerHandler {
	return &CustomerHandler{customers: customers, projects: projects}
}

// List обрабатывает GET /customers.
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// Get обрабатывает GET /customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.customers.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// ListProjects обрабатывает GET /customers/:id/projects.
func (h *CustomerHandler) ListProjects(c *gin.Context) {
	customerID := paramID(c, "id")
	if _, err := h.customers.GetByID(c.Request.Context(), customerID); err != nil {
		_ = c.Error(err)
		return
	}

	projects, err := h.projects.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Create обрабатывает POST /customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название заказчика", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email != nil {
		if err := validation.ValidateEmail(*req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	customer := &models.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Comment: req.Comment,
	}
	if err := h.customers.Create(c.Request.Context(), customer); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// Update обрабатывает PUT /customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название заказчика", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Comment = req.Comment
	if err := h.customers.Update(c.Request.Context(), customer); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// Delete обрабатывает DELETE /customers/:id.
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
