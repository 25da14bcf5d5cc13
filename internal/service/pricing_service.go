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

// ErrStoreUnavailable сигнализирует, что обращение к хранилищу не удалось
// или истёк таймаут. Ошибка retryable: частичный результат агрегации при
// ней не возвращается.
var ErrStoreUnavailable = errors.New("store unavailable")

// Причины, по которым опция исключена из подытога.
const (
	FlagReasonMissingInputs  = "missing_pricing_inputs"
	FlagReasonUnresolvedUnit = "unresolved_unit"
)

// PricingStageStore зависимости агрегатора от хранилища этапов.
type PricingStageStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Stage, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error)
	ListOptionsByStage(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error)
	UpdateEstimatedPrice(ctx context.Context, stageID uuid.UUID, price *decimal.Decimal) error
	UpdateCalculatedPrice(ctx context.Context, optionID uuid.UUID, price *decimal.Decimal) error
}

// PricingOrderStore зависимости агрегатора от хранилища заказов.
type PricingOrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// UnitLister отдаёт справочник единиц измерения целиком: таблица мала,
// и один запрос дешевле точечных resolveUnit на каждую опцию.
type UnitLister interface {
	ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error)
}

// FlaggedOption опция, исключённая из подытога, с причиной.
type FlaggedOption struct {
	OptionID uuid.UUID `json:"option_id"`
	Reason   string    `json:"reason"`
}

// OptionPrice вклад одной опции в цену этапа.
type OptionPrice struct {
	OptionID     uuid.UUID       `json:"option_id"`
	Name         string          `json:"name"`
	PricingType  string          `json:"pricing_type"`
	Contribution decimal.Decimal `json:"contribution"`
	Flagged      bool            `json:"flagged"`
	FlagReason   string          `json:"flag_reason,omitempty"`
}

// StagePriceResult итог расчёта цены этапа.
type StagePriceResult struct {
	StageID uuid.UUID       `json:"stage_id"`
	Total   decimal.Decimal `json:"total"`
	Options []OptionPrice   `json:"options"`
	Flagged []FlaggedOption `json:"flagged_options"`
}

// OrderPriceResult итог расчёта цены заказа. Price — действующая цена:
// ручная, если она задана, иначе расчётная сумма по этапам. ComputedTotal
// всегда содержит расчётную сумму для сравнения.
type OrderPriceResult struct {
	OrderID       uuid.UUID          `json:"order_id"`
	Price         decimal.Decimal    `json:"price"`
	ManualPrice   *decimal.Decimal   `json:"manual_price,omitempty"`
	ComputedTotal decimal.Decimal    `json:"computed_total"`
	Stages        []StagePriceResult `json:"stages"`
}

// PricingService считает цену этапа и заказа по опциям этапов.
//
// Вклад calculable-опции: plan_units / (unit_divider или 1) * price_per_unit,
// округление до 2 знаков по правилу "половина от нуля" (round half up),
// одинаково во всех расчётах. Included-опции дают ноль в расчётный подытог.
type PricingService struct {
	stages PricingStageStore
	orders PricingOrderStore
	units  UnitLister
}

// NewPricingService создаёт сервис расчёта цен.
func NewPricingService(stages PricingStageStore, orders PricingOrderStore, units UnitLister) *PricingService {
	return &PricingService{stages: stages, orders: orders, units: units}
}

// StagePrice считает цену этапа: сумму вкладов валидных calculable-опций.
// Невалидные calculable-опции пропускаются и попадают в Flagged; ошибка
// чтения списков фатальна для всего расчёта.
func (s *PricingService) StagePrice(ctx context.Context, stageID uuid.UUID) (*StagePriceResult, error) {
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, s.storeErr("pricing service: get stage", err)
	}

	unitIndex, err := s.unitIndex(ctx)
	if err != nil {
		return nil, err
	}

	return s.stagePriceWithUnits(ctx, stage.ID, unitIndex)
}

// OrderPrice считает цену заказа: сумму цен этапов либо ручную цену,
// если она задана (расчётная сумма тогда возвращается как справочная).
func (s *PricingService) OrderPrice(ctx context.Context, orderID uuid.UUID) (*OrderPriceResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.storeErr("pricing service: get order", err)
	}

	stages, err := s.stages.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.storeErr("pricing service: list stages", err)
	}

	unitIndex, err := s.unitIndex(ctx)
	if err != nil {
		return nil, err
	}

	result := &OrderPriceResult{
		OrderID:       orderID,
		ComputedTotal: decimal.Zero,
		Stages:        make([]StagePriceResult, 0, len(stages)),
	}

	for _, stage := range stages {
		stageResult, err := s.stagePriceWithUnits(ctx, stage.ID, unitIndex)
		if err != nil {
			return nil, err
		}
		result.ComputedTotal = result.ComputedTotal.Add(stageResult.Total)
		result.Stages = append(result.Stages, *stageResult)
	}

	if order.Price != nil {
		// Ручная цена имеет приоритет; расчётная остаётся справочной.
		result.ManualPrice = order.Price
		result.Price = *order.Price
		if !order.Price.Equal(result.ComputedTotal) && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"order_id":       orderID,
				"manual_price":   order.Price.String(),
				"computed_total": result.ComputedTotal.String(),
			}).Warn("ручная цена заказа расходится с расчётной суммой этапов")
		}
	} else {
		result.Price = result.ComputedTotal
	}

	return result, nil
}

// RecalculateStage пересчитывает цену этапа и сохраняет рассчитанные
// значения: calculated_plan_price по опциям и estimated_price этапа.
// У исключённых опций рассчитанная цена сбрасывается.
func (s *PricingService) RecalculateStage(ctx context.Context, stageID uuid.UUID) (*StagePriceResult, error) {
	result, err := s.StagePrice(ctx, stageID)
	if err != nil {
		return nil, err
	}

	for _, option := range result.Options {
		var price *decimal.Decimal
		if option.PricingType == models.PricingTypeCalculable && !option.Flagged {
			contribution := option.Contribution
			price = &contribution
		}
		if err := s.stages.UpdateCalculatedPrice(ctx, option.OptionID, price); err != nil {
			return nil, s.storeErr("pricing service: store option price", err)
		}
	}

	total := result.Total
	if err := s.stages.UpdateEstimatedPrice(ctx, stageID, &total); err != nil {
		return nil, s.storeErr("pricing service: store stage price", err)
	}

	return result, nil
}

// stagePriceWithUnits считает цену этапа по заранее загруженному
// справочнику единиц.
func (s *PricingService) stagePriceWithUnits(ctx context.Context, stageID uuid.UUID, unitIndex map[uuid.UUID]models.UnitOfMeasure) (*StagePriceResult, error) {
	options, err := s.stages.ListOptionsByStage(ctx, stageID)
	if err != nil {
		return nil, s.storeErr("pricing service: list options", err)
	}

	result := &StagePriceResult{
		StageID: stageID,
		Total:   decimal.Zero,
		Options: make([]OptionPrice, 0, len(options)),
		Flagged: make([]FlaggedOption, 0),
	}

	for _, option := range options {
		price := s.optionContribution(option, unitIndex)
		result.Options = append(result.Options, price)
		if price.Flagged {
			result.Flagged = append(result.Flagged, FlaggedOption{OptionID: option.ID, Reason: price.FlagReason})
			continue
		}
		result.Total = result.Total.Add(price.Contribution)
	}

	return result, nil
}

// optionContribution считает вклад одной опции. Included-опции дают ноль
// и не флагуются: их стоимость уже входит в базовую цену. Невалидная
// calculable-опция исключается с причиной, а не роняет расчёт.
func (s *PricingService) optionContribution(option models.StageOption, unitIndex map[uuid.UUID]models.UnitOfMeasure) OptionPrice {
	price := OptionPrice{
		OptionID:     option.ID,
		Name:         option.Name,
		PricingType:  option.PricingTypeCode,
		Contribution: decimal.Zero,
	}

	if option.PricingTypeCode != models.PricingTypeCalculable {
		return price
	}

	if option.PlanUnits == nil || !option.PlanUnits.IsPositive() ||
		option.PricePerUnit == nil || !option.PricePerUnit.IsPositive() {
		price.Flagged = true
		price.FlagReason = FlagReasonMissingInputs
		return price
	}

	if option.VolumeUnitID == nil {
		price.Flagged = true
		price.FlagReason = FlagReasonMissingInputs
		return price
	}
	if _, ok := unitIndex[*option.VolumeUnitID]; !ok {
		price.Flagged = true
		price.FlagReason = FlagReasonUnresolvedUnit
		return price
	}

	// unit_divider — пользовательский скаляр пересчёта количества
	// (например штуки в упаковки), не автоматическая конвертация систем
	// единиц. Пустой делитель означает 1.
	divider := decimal.NewFromInt(1)
	if option.UnitDivider != nil {
		if !option.UnitDivider.IsPositive() {
			price.Flagged = true
			price.FlagReason = FlagReasonMissingInputs
			return price
		}
		divider = *option.UnitDivider
	}

	price.Contribution = option.PlanUnits.Div(divider).Mul(*option.PricePerUnit).Round(2)
	return price
}

// unitIndex загружает справочник единиц в map по идентификатору.
func (s *PricingService) unitIndex(ctx context.Context) (map[uuid.UUID]models.UnitOfMeasure, error) {
	units, err := s.units.ListUnits(ctx)
	if err != nil {
		return nil, s.storeErr("pricing service: list units", err)
	}
	index := make(map[uuid.UUID]models.UnitOfMeasure, len(units))
	for _, unit := range units {
		index[unit.ID] = unit
	}
	return index, nil
}

// storeErr помечает сбой хранилища как retryable. Sentinel-ошибки
// "не найдено" пробрасываются как есть: это ответ, а не сбой.
func (s *PricingService) storeErr(msg string, err error) error {
	for _, sentinel := range []error{repository.ErrStageNotFound, repository.ErrOptionNotFound, repository.ErrOrderNotFound} {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%s: %w", msg, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrStoreUnavailable, err)
}
