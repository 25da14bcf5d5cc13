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

// ProjectRepository отвечает за проекты заказчиков.
type ProjectRepository struct {
	db *sqlx.DB
}

var ErrProjectNotFound = errors.New("project not found")

// NewProjectRepository создаёт новый экземпляр.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, customer_id, status_id, name, description, created_at, updated_at`

// GetByID возвращает проект по идентификатору.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project repository: get by id: %w", err)
	}
	return &project, nil
}

// ListByCustomer возвращает проекты заказчика.
func (r *ProjectRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	query := `SELECT ` + projectColumns + ` FROM projects WHERE customer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &projects, query, customerID); err != nil {
		return nil, fmt.Errorf("project repository: list by customer: %w", err)
	}
	return projects, nil
}

// List возвращает все проекты, свежие первыми.
func (r *ProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("project repository: list: %w", err)
	}
	return projects, nil
}

// Create сохраняет проект.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (customer_id, status_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		project.CustomerID, project.StatusID, project.Name, project.Description,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return fmt.Errorf("project repository: insert: %w", err)
	}
	return nil
}

// Update сохраняет изменяемые поля проекта.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET status_id = $1, name = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		project.StatusID, project.Name, project.Description, project.ID,
	).Scan(&project.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("project repository: update: %w", err)
	}
	return nil
}

// Delete удаляет проект.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("project repository: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
