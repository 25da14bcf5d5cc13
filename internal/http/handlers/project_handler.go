package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/dto"
	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/validation"
)

// ProjectHandler — CRUD по проектам.
type ProjectHandler struct {
	projects  *repository.ProjectRepository
	customers *repository.CustomerRepository
	orders    *repository.OrderRepository
}

// NewProjectHandler создаёт хэндлер.
func NewProjectHandler(projects *repository.ProjectRepository, customers *repository.CustomerRepository, orders *repository.OrderRepository) *ProjectHandler {
	return &ProjectHandler{projects: projects, customers: customers, orders: orders}
}

// List обрабатывает GET /projects.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Get обрабатывает GET /projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// ListOrders обрабатывает GET /projects/:id/orders.
func (h *ProjectHandler) ListOrders(c *gin.Context) {
	projectID := paramID(c, "id")
	if _, err := h.projects.GetByID(c.Request.Context(), projectID); err != nil {
		_ = c.Error(err)
		return
	}

	orders, err := h.orders.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Create обрабатывает POST /projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название проекта", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.customers.GetByID(c.Request.Context(), req.CustomerID); err != nil {
		_ = c.Error(err)
		return
	}

	project := &models.Project{
		CustomerID:  req.CustomerID,
		StatusID:    req.StatusID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// Update обрабатывает PUT /projects/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEntityName("название проекта", req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), paramID(c, "id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	project.StatusID = req.StatusID
	project.Name = req.Name
	project.Description = req.Description
	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// Delete обрабатывает DELETE /projects/:id.
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), paramID(c, "id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
