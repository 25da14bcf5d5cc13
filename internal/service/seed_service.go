package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
)

// SeedService наполняет базу демонстрационными данными для development.
type SeedService struct {
	auth      *AuthService
	customers *repository.CustomerRepository
	projects  *repository.ProjectRepository
	orders    *repository.OrderRepository
	stages    *StageService
	taxonomy  *repository.TaxonomyRepository
}

// NewSeedService создаёт сервис сидирования.
func NewSeedService(
	auth *AuthService,
	customers *repository.CustomerRepository,
	projects *repository.ProjectRepository,
	orders *repository.OrderRepository,
	stages *StageService,
	taxonomy *repository.TaxonomyRepository,
) *SeedService {
	return &SeedService{
		auth:      auth,
		customers: customers,
		projects:  projects,
		orders:    orders,
		stages:    stages,
		taxonomy:  taxonomy,
	}
}

// Seed создаёт администратора, заказчика с проектом и заказ с этапами
// и опциями. Повторный запуск на непустой базе вернёт ошибку уникальности
// email — это допустимо для dev-инструмента.
func (s *SeedService) Seed(ctx context.Context) error {
	if _, err := s.auth.CreateUser(ctx, "admin@backoffice.local", "admin12345", "Администратор", models.UserRoleAdmin); err != nil {
		return fmt.Errorf("seed service: admin: %w", err)
	}

	customer := &models.Customer{Name: "ООО Ромашка"}
	if err := s.customers.Create(ctx, customer); err != nil {
		return fmt.Errorf("seed service: customer: %w", err)
	}

	project := &models.Project{CustomerID: customer.ID, Name: "Корпоративный сайт"}
	if err := s.projects.Create(ctx, project); err != nil {
		return fmt.Errorf("seed service: project: %w", err)
	}

	order := &models.Order{ProjectID: project.ID, Name: "Редизайн главной страницы"}
	if err := s.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("seed service: order: %w", err)
	}

	design, err := s.stages.CreateStage(ctx, CreateStageInput{
		OrderID:  order.ID,
		Name:     "Дизайн",
		WorkType: models.WorkTypeSequential,
	})
	if err != nil {
		return fmt.Errorf("seed service: stage: %w", err)
	}
	if _, err := s.stages.CreateStage(ctx, CreateStageInput{
		OrderID:  order.ID,
		Name:     "Вёрстка",
		WorkType: models.WorkTypeSequential,
	}); err != nil {
		return fmt.Errorf("seed service: stage: %w", err)
	}
	if _, err := s.stages.CreateStage(ctx, CreateStageInput{
		OrderID:  order.ID,
		Name:     "Наполнение контентом",
		WorkType: models.WorkTypeParallel,
	}); err != nil {
		return fmt.Errorf("seed service: stage: %w", err)
	}

	calculable, err := s.taxonomy.GetPricingTypeByCode(ctx, models.PricingTypeCalculable)
	if err != nil {
		return fmt.Errorf("seed service: pricing type: %w", err)
	}
	included, err := s.taxonomy.GetPricingTypeByCode(ctx, models.PricingTypeIncluded)
	if err != nil {
		return fmt.Errorf("seed service: pricing type: %w", err)
	}

	units, err := s.taxonomy.ListUnits(ctx)
	if err != nil {
		return fmt.Errorf("seed service: units: %w", err)
	}
	if len(units) == 0 {
		return fmt.Errorf("seed service: справочник единиц измерения пуст")
	}
	unitID := units[0].ID

	planUnits := decimal.NewFromInt(10)
	pricePerUnit := decimal.NewFromInt(1500)
	if _, err := s.stages.AddOption(ctx, design.ID, OptionInput{
		Name:          "Макеты экранов",
		PricingTypeID: calculable.ID,
		PlanUnits:     &planUnits,
		VolumeUnitID:  &unitID,
		PricePerUnit:  &pricePerUnit,
	}); err != nil {
		return fmt.Errorf("seed service: option: %w", err)
	}
	if _, err := s.stages.AddOption(ctx, design.ID, OptionInput{
		Name:          "Правки по замечаниям",
		PricingTypeID: included.ID,
	}); err != nil {
		return fmt.Errorf("seed service: option: %w", err)
	}

	return nil
}
