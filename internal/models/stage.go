package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage описывает этап заказа. Sequence уникален в пределах заказа;
// новые этапы получают max(sequence)+1. WorkType определяет, блокируется
// ли этап незавершёнными предшественниками.
type Stage struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	OrderID        uuid.UUID        `db:"order_id" json:"order_id"`
	Sequence       int              `db:"sequence" json:"sequence"`
	Name           string           `db:"name" json:"name"`
	WorkType       string           `db:"work_type" json:"work_type"`
	Status         string           `db:"status" json:"status"`
	EstimatedPrice *decimal.Decimal `db:"estimated_price" json:"estimated_price,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// StageOption описывает позицию этапа: либо включена в цену (included),
// либо рассчитывается по формуле plan_units / unit_divider * price_per_unit
// (calculable). LegacyVolumeUnit — старая свободная строка единицы
// измерения; новый код её не пишет, нормализованный VolumeUnitID
// всегда имеет приоритет.
type StageOption struct {
	ID                  uuid.UUID        `db:"id" json:"id"`
	StageID             uuid.UUID        `db:"stage_id" json:"stage_id"`
	Name                string           `db:"name" json:"name"`
	PricingTypeID       uuid.UUID        `db:"pricing_type_id" json:"pricing_type_id"`
	PricingTypeCode     string           `db:"pricing_type_code" json:"pricing_type_code"`
	PlanUnits           *decimal.Decimal `db:"plan_units" json:"plan_units,omitempty"`
	UnitDivider         *decimal.Decimal `db:"unit_divider" json:"unit_divider,omitempty"`
	VolumeUnitID        *uuid.UUID       `db:"volume_unit_id" json:"volume_unit_id,omitempty"`
	LegacyVolumeUnit    *string          `db:"volume_unit" json:"volume_unit,omitempty"`
	PricePerUnit        *decimal.Decimal `db:"price_per_unit" json:"price_per_unit,omitempty"`
	CalculatedPlanPrice *decimal.Decimal `db:"calculated_plan_price" json:"calculated_plan_price,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}
