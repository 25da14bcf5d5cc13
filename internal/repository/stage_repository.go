package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository/common"
)

// StageRepository отвечает за этапы заказов и их опции.
type StageRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrStageNotFound  = errors.New("stage not found")
	ErrOptionNotFound = errors.New("stage option not found")

	// ErrDuplicateSequence возвращается, когда запись нарушила бы
	// уникальность (order_id, sequence). Вызывающий обязан пересчитать
	// sequence и повторить запись.
	ErrDuplicateSequence = errors.New("duplicate stage sequence")
)

// уникальный индекс uq_stages_order_sequence защищает (order_id, sequence)
const pqUniqueViolation = "23505"

// NewStageRepository создаёт новый экземпляр.
func NewStageRepository(db *sqlx.DB) *StageRepository {
	return &StageRepository{db: db}
}

// GetByID возвращает этап по идентификатору.
func (r *StageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	var stage models.Stage
	query := `
		SELECT id, order_id, sequence, name, work_type, status, estimated_price, created_at, updated_at
		FROM stages
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &stage, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("stage repository: get by id: %w", err)
	}
	return &stage, nil
}

// ListByOrder возвращает этапы заказа, упорядоченные по sequence.
func (r *StageRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error) {
	var stages []models.Stage
	query := `
		SELECT id, order_id, sequence, name, work_type, status, estimated_price, created_at, updated_at
		FROM stages
		WHERE order_id = $1
		ORDER BY sequence
	`
	if err := r.db.SelectContext(ctx, &stages, query, orderID); err != nil {
		return nil, fmt.Errorf("stage repository: list by order: %w", err)
	}
	return stages, nil
}

// NextSequence возвращает max(sequence)+1 по этапам заказа (1, если этапов нет).
// Это снимок для чтения; при создании этапа значение пересчитывается
// внутри транзакции вставки.
func (r *StageRepository) NextSequence(ctx context.Context, orderID uuid.UUID) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(sequence), 0) FROM stages WHERE order_id = $1`
	if err := r.db.GetContext(ctx, &max, query, orderID); err != nil {
		return 0, fmt.Errorf("stage repository: next sequence: %w", err)
	}
	return max + 1, nil
}

// SequenceTaken проверяет, занят ли sequence другим этапом заказа.
func (r *StageRepository) SequenceTaken(ctx context.Context, orderID uuid.UUID, sequence int, excludeStageID *uuid.UUID) (bool, error) {
	var count int
	var err error
	if excludeStageID != nil {
		query := `SELECT COUNT(*) FROM stages WHERE order_id = $1 AND sequence = $2 AND id <> $3`
		err = r.db.GetContext(ctx, &count, query, orderID, sequence, *excludeStageID)
	} else {
		query := `SELECT COUNT(*) FROM stages WHERE order_id = $1 AND sequence = $2`
		err = r.db.GetContext(ctx, &count, query, orderID, sequence)
	}
	if err != nil {
		return false, fmt.Errorf("stage repository: sequence taken: %w", err)
	}
	return count > 0, nil
}

// Create вставляет этап. Если stage.Sequence <= 0, номер назначается
// внутри транзакции как max+1. Проигравший конкурентную вставку получает
// ErrDuplicateSequence от уникального индекса, а не тихую перезапись.
func (r *StageRepository) Create(ctx context.Context, stage *models.Stage) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if stage.Sequence <= 0 {
			var max int
			if err := tx.GetContext(ctx, &max,
				`SELECT COALESCE(MAX(sequence), 0) FROM stages WHERE order_id = $1`, stage.OrderID); err != nil {
				return fmt.Errorf("stage repository: compute sequence: %w", err)
			}
			stage.Sequence = max + 1
		}

		query := `
			INSERT INTO stages (order_id, sequence, name, work_type, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			stage.OrderID, stage.Sequence, stage.Name, stage.WorkType, stage.Status,
		).Scan(&stage.ID, &stage.CreatedAt, &stage.UpdatedAt); err != nil {
			return fmt.Errorf("stage repository: insert stage: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSequence
		}
		return err
	}
	return nil
}

// Reorder перемещает этап на новый sequence, сдвигая промежуточные этапы
// на ±1 одним атомарным батчем. Повторный вызов с тем же назначением —
// no-op. Сдвиг идёт в две фазы через отрицательные значения, чтобы
// уникальный индекс не сработал на промежуточном состоянии.
func (r *StageRepository) Reorder(ctx context.Context, stageID uuid.UUID, newSequence int) error {
	if newSequence <= 0 {
		return fmt.Errorf("stage repository: %w: sequence должен быть положительным", common.ErrInvalidInput)
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var orderID uuid.UUID
		var oldSequence int
		row := tx.QueryRowxContext(ctx,
			`SELECT order_id, sequence FROM stages WHERE id = $1 FOR UPDATE`, stageID)
		if err := row.Scan(&orderID, &oldSequence); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrStageNotFound
			}
			return fmt.Errorf("stage repository: lock stage: %w", err)
		}

		if oldSequence == newSequence {
			return nil
		}

		// Блокируем весь затронутый диапазон, чтобы конкурентный reorder
		// того же заказа дождался завершения батча.
		lo, hi := oldSequence, newSequence
		if lo > hi {
			lo, hi = hi, lo
		}
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM stages WHERE order_id = $1 AND sequence BETWEEN $2 AND $3 FOR UPDATE`,
			orderID, lo, hi); err != nil {
			return fmt.Errorf("stage repository: lock range: %w", err)
		}

		// Фаза 1: уводим диапазон в отрицательные значения.
		if _, err := tx.ExecContext(ctx,
			`UPDATE stages SET sequence = -sequence WHERE order_id = $1 AND sequence BETWEEN $2 AND $3`,
			orderID, lo, hi); err != nil {
			return fmt.Errorf("stage repository: reorder phase 1: %w", err)
		}

		// Фаза 2: соседи сдвигаются на ±1, перемещаемый этап занимает цель.
		var shiftQuery string
		if newSequence < oldSequence {
			shiftQuery = `UPDATE stages SET sequence = -sequence + 1, updated_at = NOW() WHERE order_id = $1 AND sequence < 0 AND id <> $2`
		} else {
			shiftQuery = `UPDATE stages SET sequence = -sequence - 1, updated_at = NOW() WHERE order_id = $1 AND sequence < 0 AND id <> $2`
		}
		if _, err := tx.ExecContext(ctx, shiftQuery, orderID, stageID); err != nil {
			return fmt.Errorf("stage repository: reorder phase 2: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE stages SET sequence = $1, updated_at = NOW() WHERE id = $2`,
			newSequence, stageID); err != nil {
			return fmt.Errorf("stage repository: reorder place stage: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSequence
		}
		return err
	}
	return nil
}

// Update сохраняет имя, режим выполнения и статус этапа.
func (r *StageRepository) Update(ctx context.Context, stage *models.Stage) error {
	query := `
		UPDATE stages
		SET name = $1, work_type = $2, status = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		stage.Name, stage.WorkType, stage.Status, stage.ID,
	).Scan(&stage.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStageNotFound
		}
		return fmt.Errorf("stage repository: update stage: %w", err)
	}
	return nil
}

// UpdateStatus меняет только статус этапа.
func (r *StageRepository) UpdateStatus(ctx context.Context, stageID uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stages SET status = $1, updated_at = NOW() WHERE id = $2`, status, stageID)
	if err != nil {
		return fmt.Errorf("stage repository: update status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStageNotFound
	}
	return nil
}

// UpdateEstimatedPrice сохраняет расчётную цену этапа.
func (r *StageRepository) UpdateEstimatedPrice(ctx context.Context, stageID uuid.UUID, price *decimal.Decimal) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE stages SET estimated_price = $1, updated_at = NOW() WHERE id = $2`, price, stageID); err != nil {
		return fmt.Errorf("stage repository: update estimated price: %w", err)
	}
	return nil
}

// Delete удаляет этап; опции уходят каскадом по внешнему ключу.
func (r *StageRepository) Delete(ctx context.Context, stageID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, stageID)
	if err != nil {
		return fmt.Errorf("stage repository: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStageNotFound
	}
	return nil
}

const optionColumns = `
	o.id, o.stage_id, o.name, o.pricing_type_id, pt.code AS pricing_type_code,
	o.plan_units, o.unit_divider, o.volume_unit_id, o.volume_unit,
	o.price_per_unit, o.calculated_plan_price, o.created_at, o.updated_at
`

// ListOptionsByStage возвращает опции этапа вместе с кодом типа ценообразования.
func (r *StageRepository) ListOptionsByStage(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error) {
	var options []models.StageOption
	query := `
		SELECT ` + optionColumns + `
		FROM stage_options o
		JOIN pricing_types pt ON pt.id = o.pricing_type_id
		WHERE o.stage_id = $1
		ORDER BY o.created_at
	`
	if err := r.db.SelectContext(ctx, &options, query, stageID); err != nil {
		return nil, fmt.Errorf("stage repository: list options: %w", err)
	}
	return options, nil
}

// GetOptionByID возвращает опцию по идентификатору.
func (r *StageRepository) GetOptionByID(ctx context.Context, id uuid.UUID) (*models.StageOption, error) {
	var option models.StageOption
	query := `
		SELECT ` + optionColumns + `
		FROM stage_options o
		JOIN pricing_types pt ON pt.id = o.pricing_type_id
		WHERE o.id = $1
	`
	if err := r.db.GetContext(ctx, &option, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, fmt.Errorf("stage repository: get option: %w", err)
	}
	return &option, nil
}

// CreateOption вставляет опцию этапа. Легаси-поле volume_unit новым кодом
// не записывается.
func (r *StageRepository) CreateOption(ctx context.Context, option *models.StageOption) error {
	query := `
		INSERT INTO stage_options (stage_id, name, pricing_type_id, plan_units, unit_divider, volume_unit_id, price_per_unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		option.StageID, option.Name, option.PricingTypeID,
		option.PlanUnits, option.UnitDivider, option.VolumeUnitID, option.PricePerUnit,
	).Scan(&option.ID, &option.CreatedAt, &option.UpdatedAt); err != nil {
		return fmt.Errorf("stage repository: insert option: %w", err)
	}
	return nil
}

// UpdateOption сохраняет изменяемые поля опции.
func (r *StageRepository) UpdateOption(ctx context.Context, option *models.StageOption) error {
	query := `
		UPDATE stage_options
		SET name = $1, pricing_type_id = $2, plan_units = $3, unit_divider = $4,
		    volume_unit_id = $5, price_per_unit = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		option.Name, option.PricingTypeID, option.PlanUnits, option.UnitDivider,
		option.VolumeUnitID, option.PricePerUnit, option.ID,
	).Scan(&option.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOptionNotFound
		}
		return fmt.Errorf("stage repository: update option: %w", err)
	}
	return nil
}

// UpdateCalculatedPrice сохраняет рассчитанную цену опции.
func (r *StageRepository) UpdateCalculatedPrice(ctx context.Context, optionID uuid.UUID, price *decimal.Decimal) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE stage_options SET calculated_plan_price = $1, updated_at = NOW() WHERE id = $2`, price, optionID); err != nil {
		return fmt.Errorf("stage repository: update calculated price: %w", err)
	}
	return nil
}

// DeleteOption удаляет опцию этапа.
func (r *StageRepository) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stage_options WHERE id = $1`, optionID)
	if err != nil {
		return fmt.Errorf("stage repository: delete option: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOptionNotFound
	}
	return nil
}

// ListOptionsWithLegacyUnit возвращает опции, у которых заполнена только
// легаси-строка единицы измерения. Используется офлайн-задачей сверки.
func (r *StageRepository) ListOptionsWithLegacyUnit(ctx context.Context) ([]models.StageOption, error) {
	var options []models.StageOption
	query := `
		SELECT ` + optionColumns + `
		FROM stage_options o
		JOIN pricing_types pt ON pt.id = o.pricing_type_id
		WHERE o.volume_unit_id IS NULL AND o.volume_unit IS NOT NULL AND o.volume_unit <> ''
		ORDER BY o.created_at
	`
	if err := r.db.SelectContext(ctx, &options, query); err != nil {
		return nil, fmt.Errorf("stage repository: list legacy options: %w", err)
	}
	return options, nil
}

// SetOptionVolumeUnit проставляет нормализованную единицу измерения.
// Вызывается только задачей сверки легаси-данных.
func (r *StageRepository) SetOptionVolumeUnit(ctx context.Context, optionID, unitID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stage_options SET volume_unit_id = $1, updated_at = NOW() WHERE id = $2`, unitID, optionID)
	if err != nil {
		return fmt.Errorf("stage repository: set volume unit: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOptionNotFound
	}
	return nil
}

// isUniqueViolation распознаёт нарушение уникального индекса PostgreSQL.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
