package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/avkuzmin/backoffice/internal/models"
)

// OrderRepository отвечает за заказы.
type OrderRepository struct {
	db *sqlx.DB
}

var ErrOrderNotFound = errors.New("order not found")

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, project_id, status_id, currency_id, name, comment, price, deadline_at, created_at, updated_at`

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id: %w", err)
	}
	return &order, nil
}

// ListByProject возвращает заказы проекта, свежие первыми.
func (r *OrderRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE project_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &orders, query, projectID); err != nil {
		return nil, fmt.Errorf("order repository: list by project: %w", err)
	}
	return orders, nil
}

// List возвращает страницу заказов.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &orders, query, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}
	return orders, nil
}

// Create сохраняет заказ.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (project_id, status_id, currency_id, name, comment, price, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		order.ProjectID, order.StatusID, order.CurrencyID,
		order.Name, order.Comment, order.Price, order.DeadlineAt,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: insert order: %w", err)
	}
	return nil
}

// Update сохраняет изменяемые поля заказа.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET status_id = $1, currency_id = $2, name = $3, comment = $4, price = $5, deadline_at = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		order.StatusID, order.CurrencyID, order.Name, order.Comment,
		order.Price, order.DeadlineAt, order.ID,
	).Scan(&order.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("order repository: update order: %w", err)
	}
	return nil
}

// UpdatePrice выставляет либо снимает ручную цену заказа.
func (r *OrderRepository) UpdatePrice(ctx context.Context, orderID uuid.UUID, price *decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET price = $1, updated_at = NOW() WHERE id = $2`, price, orderID)
	if err != nil {
		return fmt.Errorf("order repository: update price: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete удаляет заказ; этапы и их опции уходят каскадом.
func (r *OrderRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("order repository: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
