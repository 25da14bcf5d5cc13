package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/avkuzmin/backoffice/internal/http/middleware"
)

func TestStageHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.POST("/orders/:id/stages", handler.Create)

	orderID := uuid.New()
	body := strings.NewReader(`{"work_type": "sequential"}`)
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/stages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageHandler_Create_NegativeSequence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.POST("/orders/:id/stages", handler.Create)

	orderID := uuid.New()
	body := strings.NewReader(`{"name": "Дизайн", "work_type": "sequential", "sequence": -2}`)
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/stages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageHandler_Reorder_MissingSequence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.POST("/stages/:id/reorder", handler.Reorder)

	stageID := uuid.New()
	req, _ := http.NewRequest("POST", "/stages/"+stageID.String()+"/reorder", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageHandler_Reorder_InvalidStageID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.POST("/stages/:id/reorder", middleware.UUIDValidator("id"), handler.Reorder)

	req, _ := http.NewRequest("POST", "/stages/not-a-uuid/reorder", strings.NewReader(`{"sequence": 2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageHandler_CreateOption_MissingPricingType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.POST("/stages/:id/options", handler.CreateOption)

	stageID := uuid.New()
	body := strings.NewReader(`{"name": "Вёрстка"}`)
	req, _ := http.NewRequest("POST", "/stages/"+stageID.String()+"/options", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStageHandler_UpdateStatus_EmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StageHandler{}
	r.PATCH("/stages/:id/status", handler.UpdateStatus)

	stageID := uuid.New()
	req, _ := http.NewRequest("PATCH", "/stages/"+stageID.String()+"/status", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
