package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoginRequest запрос на вход сотрудника.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest запрос на обновление пары токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CustomerRequest создание/обновление заказчика.
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Comment *string `json:"comment"`
}

// ProjectRequest создание/обновление проекта.
type ProjectRequest struct {
	CustomerID  uuid.UUID  `json:"customer_id" binding:"required"`
	StatusID    *uuid.UUID `json:"status_id"`
	Name        string     `json:"name" binding:"required"`
	Description *string    `json:"description"`
}

// CreateOrderRequest создание заказа.
type CreateOrderRequest struct {
	ProjectID  uuid.UUID        `json:"project_id" binding:"required"`
	StatusID   *uuid.UUID       `json:"status_id"`
	CurrencyID *uuid.UUID       `json:"currency_id"`
	Name       string           `json:"name" binding:"required"`
	Comment    *string          `json:"comment"`
	Price      *decimal.Decimal `json:"price"`
	DeadlineAt *time.Time       `json:"deadline_at"`
}

// UpdateOrderRequest обновление заказа. Price задаёт ручную цену;
// null снимает её, возвращая приоритет расчётной сумме по этапам.
type UpdateOrderRequest struct {
	StatusID   *uuid.UUID       `json:"status_id"`
	CurrencyID *uuid.UUID       `json:"currency_id"`
	Name       string           `json:"name" binding:"required"`
	Comment    *string          `json:"comment"`
	Price      *decimal.Decimal `json:"price"`
	DeadlineAt *time.Time       `json:"deadline_at"`
}

// CreateStageRequest создание этапа. Sequence опционален: без него номер
// назначается автоматически как max+1 по заказу.
type CreateStageRequest struct {
	Name     string `json:"name" binding:"required"`
	WorkType string `json:"work_type" binding:"required"`
	Sequence int    `json:"sequence"`
}

// UpdateStageRequest обновление этапа (без sequence — перестановки
// выполняет отдельный запрос reorder).
type UpdateStageRequest struct {
	Name     string `json:"name"`
	WorkType string `json:"work_type"`
	Status   string `json:"status"`
}

// ReorderStageRequest перемещение этапа на новый sequence.
type ReorderStageRequest struct {
	Sequence int `json:"sequence" binding:"required"`
}

// UpdateStageStatusRequest смена статуса этапа.
type UpdateStageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OptionRequest создание/обновление опции этапа.
type OptionRequest struct {
	Name          string           `json:"name" binding:"required"`
	PricingTypeID uuid.UUID        `json:"pricing_type_id" binding:"required"`
	PlanUnits     *decimal.Decimal `json:"plan_units"`
	UnitDivider   *decimal.Decimal `json:"unit_divider"`
	VolumeUnitID  *uuid.UUID       `json:"volume_unit_id"`
	PricePerUnit  *decimal.Decimal `json:"price_per_unit"`
}

// UnitRequest создание/обновление единицы измерения.
type UnitRequest struct {
	FullName  string `json:"full_name" binding:"required"`
	ShortName string `json:"short_name" binding:"required"`
}

// CurrencyRequest создание/обновление валюты.
type CurrencyRequest struct {
	Code   string           `json:"code" binding:"required"`
	Name   string           `json:"name" binding:"required"`
	Symbol *string          `json:"symbol"`
	Rate   *decimal.Decimal `json:"rate"`
}

// StatusRequest создание/обновление строки таксономии статусов.
type StatusRequest struct {
	Code    string `json:"code" binding:"required"`
	Label   string `json:"label" binding:"required"`
	FgColor string `json:"fg_color" binding:"required"`
	BgColor string `json:"bg_color" binding:"required"`
}
