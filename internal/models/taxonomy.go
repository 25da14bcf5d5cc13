package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitOfMeasure единица измерения объёма (например "Штуки"/"шт.").
// Справочник только читается движком расчёта цен.
type UnitOfMeasure struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	ShortName string    `db:"short_name" json:"short_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PricingType двухстрочный справочник типов ценообразования
// (included | calculable), заполняется один раз миграцией.
type PricingType struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// Currency валюта заказа.
type Currency struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Code      string           `db:"code" json:"code"`
	Name      string           `db:"name" json:"name"`
	Symbol    *string          `db:"symbol" json:"symbol,omitempty"`
	Rate      *decimal.Decimal `db:"rate" json:"rate,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// StatusKind различает таксономии статусов по владельцу.
type StatusKind string

const (
	StatusKindOrder   StatusKind = "order"
	StatusKindProject StatusKind = "project"
)

// Status строка таксономии статусов: подпись плюс цвета для UI.
// Поведения за статусом нет, это чистый lookup id -> оформление.
type Status struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Kind      StatusKind `db:"kind" json:"kind"`
	Code      string     `db:"code" json:"code"`
	Label     string     `db:"label" json:"label"`
	FgColor   string     `db:"fg_color" json:"fg_color"`
	BgColor   string     `db:"bg_color" json:"bg_color"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// TerminalOrderStatusCodes коды статусов заказа, при которых этапы
// больше не считаются доступными к выполнению.
var TerminalOrderStatusCodes = map[string]struct{}{
	"completed": {},
	"cancelled": {},
}
