package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/avkuzmin/backoffice/internal/models"
)

// CustomerRepository отвечает за заказчиков.
type CustomerRepository struct {
	db *sqlx.DB
}

var ErrCustomerNotFound = errors.New("customer not found")

// NewCustomerRepository создаёт новый экземпляр.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID возвращает заказчика по идентификатору.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	query := `SELECT id, name, email, phone, comment, created_at, updated_at FROM customers WHERE id = $1`
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customer repository: get by id: %w", err)
	}
	return &customer, nil
}

// List возвращает всех заказчиков по алфавиту.
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	query := `SELECT id, name, email, phone, comment, created_at, updated_at FROM customers ORDER BY name`
	if err := r.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, fmt.Errorf("customer repository: list: %w", err)
	}
	return customers, nil
}

// Create сохраняет заказчика.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		customer.Name, customer.Email, customer.Phone, customer.Comment,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return fmt.Errorf("customer repository: insert: %w", err)
	}
	return nil
}

// Update сохраняет изменяемые поля заказчика.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, comment = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		customer.Name, customer.Email, customer.Phone, customer.Comment, customer.ID,
	).Scan(&customer.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("customer repository: update: %w", err)
	}
	return nil
}

// Delete удаляет заказчика.
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("customer repository: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
