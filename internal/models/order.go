package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order описывает заказ — единицу работы в рамках проекта.
// Price заполняется вручную менеджером; при его наличии расчётная сумма
// по этапам носит справочный характер.
type Order struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	ProjectID  uuid.UUID        `db:"project_id" json:"project_id"`
	StatusID   *uuid.UUID       `db:"status_id" json:"status_id,omitempty"`
	CurrencyID *uuid.UUID       `db:"currency_id" json:"currency_id,omitempty"`
	Name       string           `db:"name" json:"name"`
	Comment    *string          `db:"comment" json:"comment,omitempty"`
	Price      *decimal.Decimal `db:"price" json:"price,omitempty"`
	DeadlineAt *time.Time       `db:"deadline_at" json:"deadline_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
