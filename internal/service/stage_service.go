package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
)

// StageStore зависимости сервиса этапов от слоя хранилища.
type StageStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Stage, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error)
	NextSequence(ctx context.Context, orderID uuid.UUID) (int, error)
	SequenceTaken(ctx context.Context, orderID uuid.UUID, sequence int, excludeStageID *uuid.UUID) (bool, error)
	Create(ctx context.Context, stage *models.Stage) error
	Reorder(ctx context.Context, stageID uuid.UUID, newSequence int) error
	Update(ctx context.Context, stage *models.Stage) error
	UpdateStatus(ctx context.Context, stageID uuid.UUID, status string) error
	Delete(ctx context.Context, stageID uuid.UUID) error
	GetOptionByID(ctx context.Context, id uuid.UUID) (*models.StageOption, error)
	ListOptionsByStage(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error)
	CreateOption(ctx context.Context, option *models.StageOption) error
	UpdateOption(ctx context.Context, option *models.StageOption) error
	DeleteOption(ctx context.Context, optionID uuid.UUID) error
}

// OrderStore доступ к заказам, достаточный сервису этапов.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// StatusResolver резолвит строку таксономии статусов по идентификатору.
type StatusResolver interface {
	GetStatusByID(ctx context.Context, id uuid.UUID) (*models.Status, error)
}

// Recalculator пересчитывает и сохраняет цену этапа после изменения опций.
type Recalculator interface {
	RecalculateStage(ctx context.Context, stageID uuid.UUID) (*StagePriceResult, error)
}

// Notifier рассылает событие подключённым клиентам бэк-офиса.
type Notifier interface {
	Broadcast(event string, data any)
}

// События, рассылаемые по WebSocket.
const (
	EventStageStatusChanged = "stage.status_changed"
	EventStagePriceUpdated  = "stage.price_updated"
)

// StageEligibilityResult ответ на запрос доступности этапа.
type StageEligibilityResult struct {
	StageID uuid.UUID `json:"stage_id"`
	Eligibility
}

// CreateStageInput данные для создания этапа.
type CreateStageInput struct {
	OrderID  uuid.UUID
	Name     string
	WorkType string
	Sequence int // 0 — назначить автоматически как max+1
}

// UpdateStageInput данные для обновления этапа.
type UpdateStageInput struct {
	Name     string
	WorkType string
	Status   string
}

// OptionInput данные для создания/обновления опции этапа.
type OptionInput struct {
	Name          string
	PricingTypeID uuid.UUID
	PlanUnits     *decimal.Decimal
	UnitDivider   *decimal.Decimal
	VolumeUnitID  *uuid.UUID
	PricePerUnit  *decimal.Decimal
}

// StageService управляет этапами заказов: назначением и валидацией
// sequence, перестановками, статусами, опциями и доступностью к выполнению.
type StageService struct {
	stages   StageStore
	orders   OrderStore
	statuses StatusResolver
	pricing  Recalculator
	notifier Notifier
}

// NewStageService создаёт сервис этапов. Notifier может быть nil.
func NewStageService(stages StageStore, orders OrderStore, statuses StatusResolver, pricing Recalculator, notifier Notifier) *StageService {
	return &StageService{stages: stages, orders: orders, statuses: statuses, pricing: pricing, notifier: notifier}
}

// NextSequence возвращает следующий свободный sequence заказа:
// max(sequence)+1, либо 1 для заказа без этапов.
func (s *StageService) NextSequence(ctx context.Context, orderID uuid.UUID) (int, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return 0, fmt.Errorf("stage service: %w", err)
	}
	next, err := s.stages.NextSequence(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("stage service: %w: %w", ErrStoreUnavailable, err)
	}
	return next, nil
}

// ValidateSequence проверяет, что sequence свободен в пределах заказа.
// Этап excludeStageID (если задан) не считается конфликтом: это сам
// обновляемый этап.
func (s *StageService) ValidateSequence(ctx context.Context, orderID uuid.UUID, sequence int, excludeStageID *uuid.UUID) error {
	if sequence <= 0 {
		return fmt.Errorf("stage service: sequence должен быть положительным")
	}
	taken, err := s.stages.SequenceTaken(ctx, orderID, sequence, excludeStageID)
	if err != nil {
		return fmt.Errorf("stage service: %w: %w", ErrStoreUnavailable, err)
	}
	if taken {
		return fmt.Errorf("stage service: %w", repository.ErrDuplicateSequence)
	}
	return nil
}

// CreateStage создаёт этап. При гонке двух вставок в один заказ
// проигравший получает нарушение уникальности (order_id, sequence);
// при автоназначении sequence делаем одну повторную попытку со свежим
// номером, иначе конфликт отдаём вызывающему.
func (s *StageService) CreateStage(ctx context.Context, in CreateStageInput) (*models.Stage, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("stage service: название этапа обязательно")
	}
	if _, ok := models.ValidWorkTypes[in.WorkType]; !ok {
		return nil, fmt.Errorf("stage service: режим выполнения должен быть parallel или sequential")
	}
	if _, err := s.orders.GetByID(ctx, in.OrderID); err != nil {
		return nil, fmt.Errorf("stage service: %w", err)
	}

	stage := &models.Stage{
		OrderID:  in.OrderID,
		Sequence: in.Sequence,
		Name:     in.Name,
		WorkType: in.WorkType,
		Status:   models.StageStatusActive,
	}

	err := s.stages.Create(ctx, stage)
	if errors.Is(err, repository.ErrDuplicateSequence) && in.Sequence <= 0 {
		if logger.Log != nil {
			logger.Log.WithField("order_id", in.OrderID).Debug("гонка при назначении sequence, повторная попытка")
		}
		stage.Sequence = 0
		err = s.stages.Create(ctx, stage)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSequence) {
			return nil, err
		}
		return nil, fmt.Errorf("stage service: create: %w", err)
	}
	return stage, nil
}

// Reorder перемещает этап на новый sequence с атомарным сдвигом
// промежуточных этапов. Повторный вызов с тем же назначением — no-op.
func (s *StageService) Reorder(ctx context.Context, stageID uuid.UUID, newSequence int) error {
	if err := s.stages.Reorder(ctx, stageID, newSequence); err != nil {
		if errors.Is(err, repository.ErrStageNotFound) || errors.Is(err, repository.ErrDuplicateSequence) {
			return err
		}
		return fmt.Errorf("stage service: reorder: %w", err)
	}
	return nil
}

// GetStage возвращает этап.
func (s *StageService) GetStage(ctx context.Context, stageID uuid.UUID) (*models.Stage, error) {
	return s.stages.GetByID(ctx, stageID)
}

// ListStages возвращает этапы заказа по порядку sequence.
func (s *StageService) ListStages(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, fmt.Errorf("stage service: %w", err)
	}
	return s.stages.ListByOrder(ctx, orderID)
}

// UpdateStage сохраняет имя, режим выполнения и статус этапа.
// Sequence этим путём не меняется: перестановки идут через Reorder.
func (s *StageService) UpdateStage(ctx context.Context, stageID uuid.UUID, in UpdateStageInput) (*models.Stage, error) {
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		stage.Name = in.Name
	}
	if in.WorkType != "" {
		if _, ok := models.ValidWorkTypes[in.WorkType]; !ok {
			return nil, fmt.Errorf("stage service: режим выполнения должен быть parallel или sequential")
		}
		stage.WorkType = in.WorkType
	}
	statusChanged := in.Status != "" && in.Status != stage.Status
	if in.Status != "" {
		stage.Status = in.Status
	}

	if err := s.stages.Update(ctx, stage); err != nil {
		return nil, fmt.Errorf("stage service: update: %w", err)
	}

	if statusChanged {
		s.broadcastStatus(stage)
	}
	return stage, nil
}

// UpdateStageStatus меняет статус этапа и оповещает подключённые клиенты:
// смена статуса может разблокировать sequential-последователей.
func (s *StageService) UpdateStageStatus(ctx context.Context, stageID uuid.UUID, status string) (*models.Stage, error) {
	if status == "" {
		return nil, fmt.Errorf("stage service: статус обязателен")
	}
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Status == status {
		return stage, nil
	}
	if err := s.stages.UpdateStatus(ctx, stageID, status); err != nil {
		return nil, fmt.Errorf("stage service: update status: %w", err)
	}
	stage.Status = status
	s.broadcastStatus(stage)
	return stage, nil
}

// DeleteStage удаляет этап. Политика "не удалять начатые downstream-этапы"
// остаётся на вызывающем: ядро её не навязывает.
func (s *StageService) DeleteStage(ctx context.Context, stageID uuid.UUID) error {
	return s.stages.Delete(ctx, stageID)
}

// Eligibility определяет доступность этапа к выполнению по снимку этапов
// заказа. Для заказа в терминальном статусе этап недоступен независимо
// от соседей.
func (s *StageService) Eligibility(ctx context.Context, stageID uuid.UUID) (*StageEligibilityResult, error) {
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, stage.OrderID)
	if err != nil {
		return nil, fmt.Errorf("stage service: %w", err)
	}

	if order.StatusID != nil {
		status, err := s.statuses.GetStatusByID(ctx, *order.StatusID)
		if err != nil && !errors.Is(err, repository.ErrStatusNotFound) {
			return nil, fmt.Errorf("stage service: %w: %w", ErrStoreUnavailable, err)
		}
		if status != nil {
			if _, terminal := models.TerminalOrderStatusCodes[status.Code]; terminal {
				return &StageEligibilityResult{
					StageID:     stageID,
					Eligibility: Eligibility{Eligible: false, BlockedBy: []uuid.UUID{}},
				}, nil
			}
		}
	}

	siblings, err := s.stages.ListByOrder(ctx, stage.OrderID)
	if err != nil {
		return nil, fmt.Errorf("stage service: %w: %w", ErrStoreUnavailable, err)
	}

	return &StageEligibilityResult{
		StageID:     stageID,
		Eligibility: ResolveEligibility(*stage, siblings),
	}, nil
}

// ListOptions возвращает опции этапа.
func (s *StageService) ListOptions(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error) {
	if _, err := s.stages.GetByID(ctx, stageID); err != nil {
		return nil, err
	}
	return s.stages.ListOptionsByStage(ctx, stageID)
}

// AddOption создаёт опцию этапа и пересчитывает его цену.
// Неполнота calculable-полей не ошибка записи: такая опция будет
// исключена из подытога и помечена при расчёте.
func (s *StageService) AddOption(ctx context.Context, stageID uuid.UUID, in OptionInput) (*models.StageOption, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("stage service: название опции обязательно")
	}
	if _, err := s.stages.GetByID(ctx, stageID); err != nil {
		return nil, err
	}

	option := &models.StageOption{
		StageID:       stageID,
		Name:          in.Name,
		PricingTypeID: in.PricingTypeID,
		PlanUnits:     in.PlanUnits,
		UnitDivider:   in.UnitDivider,
		VolumeUnitID:  in.VolumeUnitID,
		PricePerUnit:  in.PricePerUnit,
	}
	if err := s.stages.CreateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("stage service: add option: %w", err)
	}

	s.recalculate(ctx, stageID)
	return s.stages.GetOptionByID(ctx, option.ID)
}

// UpdateOption сохраняет опцию и пересчитывает цену этапа.
func (s *StageService) UpdateOption(ctx context.Context, optionID uuid.UUID, in OptionInput) (*models.StageOption, error) {
	option, err := s.stages.GetOptionByID(ctx, optionID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		option.Name = in.Name
	}
	if in.PricingTypeID != uuid.Nil {
		option.PricingTypeID = in.PricingTypeID
	}
	option.PlanUnits = in.PlanUnits
	option.UnitDivider = in.UnitDivider
	option.VolumeUnitID = in.VolumeUnitID
	option.PricePerUnit = in.PricePerUnit

	if err := s.stages.UpdateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("stage service: update option: %w", err)
	}

	s.recalculate(ctx, option.StageID)
	return s.stages.GetOptionByID(ctx, optionID)
}

// DeleteOption удаляет опцию и пересчитывает цену этапа.
func (s *StageService) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	option, err := s.stages.GetOptionByID(ctx, optionID)
	if err != nil {
		return err
	}
	if err := s.stages.DeleteOption(ctx, optionID); err != nil {
		return fmt.Errorf("stage service: delete option: %w", err)
	}
	s.recalculate(ctx, option.StageID)
	return nil
}

// recalculate пересчитывает цену этапа после изменения опций. Ошибка
// пересчёта не отменяет уже применённую запись, только логируется.
func (s *StageService) recalculate(ctx context.Context, stageID uuid.UUID) {
	if s.pricing == nil {
		return
	}
	result, err := s.pricing.RecalculateStage(ctx, stageID)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"stage_id": stageID,
				"error":    err.Error(),
			}).Error("не удалось пересчитать цену этапа")
		}
		return
	}
	if s.notifier != nil {
		s.notifier.Broadcast(EventStagePriceUpdated, result)
	}
}

func (s *StageService) broadcastStatus(stage *models.Stage) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(EventStageStatusChanged, stage)
}
