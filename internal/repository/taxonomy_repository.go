package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository/common"
)

// TaxonomyRepository отвечает за справочники: единицы измерения,
// типы ценообразования, валюты и таксономии статусов.
type TaxonomyRepository struct {
	db *sqlx.DB
}

var (
	ErrUnitNotFound        = errors.New("unit of measure not found")
	ErrPricingTypeNotFound = errors.New("pricing type not found")
	ErrCurrencyNotFound    = errors.New("currency not found")
	ErrStatusNotFound      = errors.New("status not found")
)

// NewTaxonomyRepository создаёт новый экземпляр.
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListUnits возвращает все единицы измерения.
func (r *TaxonomyRepository) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	var units []models.UnitOfMeasure
	query := `SELECT id, full_name, short_name, created_at FROM units_of_measure ORDER BY full_name`
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("taxonomy repository: list units: %w", err)
	}
	return units, nil
}

// GetUnitByID возвращает единицу измерения по идентификатору.
func (r *TaxonomyRepository) GetUnitByID(ctx context.Context, id uuid.UUID) (*models.UnitOfMeasure, error) {
	return common.GetByID[models.UnitOfMeasure](ctx, r.db, "units_of_measure", id, ErrUnitNotFound)
}

// CreateUnit сохраняет единицу измерения.
func (r *TaxonomyRepository) CreateUnit(ctx context.Context, unit *models.UnitOfMeasure) error {
	query := `INSERT INTO units_of_measure (full_name, short_name) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, unit.FullName, unit.ShortName).
		Scan(&unit.ID, &unit.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("taxonomy repository: unit: %w", common.ErrAlreadyExists)
		}
		return fmt.Errorf("taxonomy repository: insert unit: %w", err)
	}
	return nil
}

// UpdateUnit сохраняет изменяемые поля единицы измерения.
func (r *TaxonomyRepository) UpdateUnit(ctx context.Context, unit *models.UnitOfMeasure) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE units_of_measure SET full_name = $1, short_name = $2 WHERE id = $3`,
		unit.FullName, unit.ShortName, unit.ID)
	if err != nil {
		return fmt.Errorf("taxonomy repository: update unit: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUnitNotFound
	}
	return nil
}

// DeleteUnit удаляет единицу измерения.
func (r *TaxonomyRepository) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM units_of_measure WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taxonomy repository: delete unit: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUnitNotFound
	}
	return nil
}

// ListPricingTypes возвращает справочник типов ценообразования.
func (r *TaxonomyRepository) ListPricingTypes(ctx context.Context) ([]models.PricingType, error) {
	var types []models.PricingType
	query := `SELECT id, code, name FROM pricing_types ORDER BY code`
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("taxonomy repository: list pricing types: %w", err)
	}
	return types, nil
}

// GetPricingTypeByCode возвращает тип ценообразования по коду.
func (r *TaxonomyRepository) GetPricingTypeByCode(ctx context.Context, code string) (*models.PricingType, error) {
	var pt models.PricingType
	query := `SELECT id, code, name FROM pricing_types WHERE code = $1`
	if err := r.db.GetContext(ctx, &pt, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPricingTypeNotFound
		}
		return nil, fmt.Errorf("taxonomy repository: get pricing type: %w", err)
	}
	return &pt, nil
}

// ListCurrencies возвращает валюты.
func (r *TaxonomyRepository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	query := `SELECT id, code, name, symbol, rate, created_at, updated_at FROM currencies ORDER BY code`
	if err := r.db.SelectContext(ctx, &currencies, query); err != nil {
		return nil, fmt.Errorf("taxonomy repository: list currencies: %w", err)
	}
	return currencies, nil
}

// GetCurrencyByID возвращает валюту по идентификатору.
func (r *TaxonomyRepository) GetCurrencyByID(ctx context.Context, id uuid.UUID) (*models.Currency, error) {
	return common.GetByID[models.Currency](ctx, r.db, "currencies", id, ErrCurrencyNotFound)
}

// CreateCurrency сохраняет валюту.
func (r *TaxonomyRepository) CreateCurrency(ctx context.Context, currency *models.Currency) error {
	query := `
		INSERT INTO currencies (code, name, symbol, rate)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		currency.Code, currency.Name, currency.Symbol, currency.Rate,
	).Scan(&currency.ID, &currency.CreatedAt, &currency.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("taxonomy repository: currency %s: %w", currency.Code, common.ErrAlreadyExists)
		}
		return fmt.Errorf("taxonomy repository: insert currency: %w", err)
	}
	return nil
}

// UpdateCurrency сохраняет изменяемые поля валюты.
func (r *TaxonomyRepository) UpdateCurrency(ctx context.Context, currency *models.Currency) error {
	query := `
		UPDATE currencies SET code = $1, name = $2, symbol = $3, rate = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		currency.Code, currency.Name, currency.Symbol, currency.Rate, currency.ID,
	).Scan(&currency.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCurrencyNotFound
		}
		return fmt.Errorf("taxonomy repository: update currency: %w", err)
	}
	return nil
}

// DeleteCurrency удаляет валюту.
func (r *TaxonomyRepository) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taxonomy repository: delete currency: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCurrencyNotFound
	}
	return nil
}

// ListStatuses возвращает таксономию статусов указанного вида.
func (r *TaxonomyRepository) ListStatuses(ctx context.Context, kind models.StatusKind) ([]models.Status, error) {
	var statuses []models.Status
	query := `SELECT id, kind, code, label, fg_color, bg_color, created_at FROM statuses WHERE kind = $1 ORDER BY code`
	if err := r.db.SelectContext(ctx, &statuses, query, kind); err != nil {
		return nil, fmt.Errorf("taxonomy repository: list statuses: %w", err)
	}
	return statuses, nil
}

// GetStatusByID возвращает строку таксономии статусов.
func (r *TaxonomyRepository) GetStatusByID(ctx context.Context, id uuid.UUID) (*models.Status, error) {
	return common.GetByID[models.Status](ctx, r.db, "statuses", id, ErrStatusNotFound)
}

// CreateStatus сохраняет строку таксономии статусов.
func (r *TaxonomyRepository) CreateStatus(ctx context.Context, status *models.Status) error {
	query := `
		INSERT INTO statuses (kind, code, label, fg_color, bg_color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		status.Kind, status.Code, status.Label, status.FgColor, status.BgColor,
	).Scan(&status.ID, &status.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("taxonomy repository: status %s/%s: %w", status.Kind, status.Code, common.ErrAlreadyExists)
		}
		return fmt.Errorf("taxonomy repository: insert status: %w", err)
	}
	return nil
}

// UpdateStatus сохраняет подпись и цвета статуса.
func (r *TaxonomyRepository) UpdateStatus(ctx context.Context, status *models.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statuses SET label = $1, fg_color = $2, bg_color = $3 WHERE id = $4`,
		status.Label, status.FgColor, status.BgColor, status.ID)
	if err != nil {
		return fmt.Errorf("taxonomy repository: update status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStatusNotFound
	}
	return nil
}

// DeleteStatus удаляет строку таксономии статусов.
func (r *TaxonomyRepository) DeleteStatus(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taxonomy repository: delete status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStatusNotFound
	}
	return nil
}
