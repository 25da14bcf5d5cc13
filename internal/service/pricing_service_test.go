package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
)

// mockPricingStageStore реализует PricingStageStore для тестов.
type mockPricingStageStore struct {
	stages          map[uuid.UUID]*models.Stage
	optionsByStage  map[uuid.UUID][]models.StageOption
	estimatedPrices map[uuid.UUID]*decimal.Decimal
	optionPrices    map[uuid.UUID]*decimal.Decimal
	failListOptions bool
}

func newMockPricingStageStore() *mockPricingStageStore {
	return &mockPricingStageStore{
		stages:          make(map[uuid.UUID]*models.Stage),
		optionsByStage:  make(map[uuid.UUID][]models.StageOption),
		estimatedPrices: make(map[uuid.UUID]*decimal.Decimal),
		optionPrices:    make(map[uuid.UUID]*decimal.Decimal),
	}
}

func (m *mockPricingStageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	if stage, ok := m.stages[id]; ok {
		return stage, nil
	}
	return nil, repository.ErrStageNotFound
}

func (m *mockPricingStageStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error) {
	var out []models.Stage
	for _, stage := range m.stages {
		if stage.OrderID == orderID {
			out = append(out, *stage)
		}
	}
	return out, nil
}

func (m *mockPricingStageStore) ListOptionsByStage(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error) {
	if m.failListOptions {
		return nil, errors.New("connection refused")
	}
	return m.optionsByStage[stageID], nil
}

func (m *mockPricingStageStore) UpdateEstimatedPrice(ctx context.Context, stageID uuid.UUID, price *decimal.Decimal) error {
	m.estimatedPrices[stageID] = price
	return nil
}

func (m *mockPricingStageStore) UpdateCalculatedPrice(ctx context.Context, optionID uuid.UUID, price *decimal.Decimal) error {
	m.optionPrices[optionID] = price
	return nil
}

// mockPricingOrderStore реализует PricingOrderStore для тестов.
type mockPricingOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func (m *mockPricingOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, repository.ErrOrderNotFound
}

// mockUnitLister реализует UnitLister для тестов.
type mockUnitLister struct {
	units []models.UnitOfMeasure
	err   error
}

func (m *mockUnitLister) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.units, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type pricingFixture struct {
	stages  *mockPricingStageStore
	orders  *mockPricingOrderStore
	units   *mockUnitLister
	service *PricingService
	unitID  uuid.UUID
}

func newPricingFixture() *pricingFixture {
	unitID := uuid.New()
	stages := newMockPricingStageStore()
	orders := &mockPricingOrderStore{orders: make(map[uuid.UUID]*models.Order)}
	units := &mockUnitLister{units: []models.UnitOfMeasure{
		{ID: unitID, FullName: "Штуки", ShortName: "шт."},
	}}
	return &pricingFixture{
		stages:  stages,
		orders:  orders,
		units:   units,
		service: NewPricingService(stages, orders, units),
		unitID:  unitID,
	}
}

func (f *pricingFixture) addStage(orderID uuid.UUID) *models.Stage {
	stage := &models.Stage{
		ID:       uuid.New(),
		OrderID:  orderID,
		Sequence: len(f.stages.stages) + 1,
		WorkType: models.WorkTypeParallel,
		Status:   models.StageStatusActive,
	}
	f.stages.stages[stage.ID] = stage
	return stage
}

func (f *pricingFixture) addOption(stageID uuid.UUID, option models.StageOption) models.StageOption {
	option.ID = uuid.New()
	option.StageID = stageID
	f.stages.optionsByStage[stageID] = append(f.stages.optionsByStage[stageID], option)
	return option
}

func TestPricingService_StagePrice_CalculableFormula(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	// 10 / 5 * 20 = 40.00
	f.addOption(stage.ID, models.StageOption{
		Name:            "Вёрстка страниц",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("10"),
		UnitDivider:     decPtr("5"),
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)

	assert.True(t, result.Total.Equal(dec("40")), "ожидалось 40, получили %s", result.Total)
	assert.Empty(t, result.Flagged)
}

func TestPricingService_StagePrice_NilDividerMeansOne(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	f.addOption(stage.ID, models.StageOption{
		Name:            "Тексты",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("3"),
		PricePerUnit:    decPtr("100"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)
	assert.True(t, result.Total.Equal(dec("300")))
}

func TestPricingService_StagePrice_RoundsHalfUp(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	// 1 / 8 * 1 = 0.125 -> 0.13
	f.addOption(stage.ID, models.StageOption{
		Name:            "Мелкая позиция",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("1"),
		UnitDivider:     decPtr("8"),
		PricePerUnit:    decPtr("1"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.13", result.Total.StringFixed(2))
}

func TestPricingService_StagePrice_IncludedContributesZero(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	f.addOption(stage.ID, models.StageOption{
		Name:            "Консультации",
		PricingTypeCode: models.PricingTypeIncluded,
	})
	f.addOption(stage.ID, models.StageOption{
		Name:            "Вёрстка",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("2"),
		PricePerUnit:    decPtr("50"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)

	assert.True(t, result.Total.Equal(dec("100")))
	// Included-опция не считается невалидной: ноль — её нормальный вклад.
	assert.Empty(t, result.Flagged)
	require.Len(t, result.Options, 2)
	assert.False(t, result.Options[0].Flagged)
	assert.True(t, result.Options[0].Contribution.IsZero())
}

func TestPricingService_StagePrice_InvalidOptionFlaggedNotFatal(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	broken := f.addOption(stage.ID, models.StageOption{
		Name:            "Без цены за единицу",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("10"),
		VolumeUnitID:    &f.unitID,
	})
	f.addOption(stage.ID, models.StageOption{
		Name:            "Валидная",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("4"),
		PricePerUnit:    decPtr("25"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)

	assert.True(t, result.Total.Equal(dec("100")))
	require.Len(t, result.Flagged, 1)
	assert.Equal(t, broken.ID, result.Flagged[0].OptionID)
	assert.Equal(t, FlagReasonMissingInputs, result.Flagged[0].Reason)
}

func TestPricingService_StagePrice_UnresolvedUnitFlagged(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	unknownUnit := uuid.New()
	f.addOption(stage.ID, models.StageOption{
		Name:            "Ссылка на удалённую единицу",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("10"),
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &unknownUnit,
	})

	result, err := f.service.StagePrice(context.Background(), stage.ID)
	require.NoError(t, err)

	assert.True(t, result.Total.IsZero())
	require.Len(t, result.Flagged, 1)
	assert.Equal(t, FlagReasonUnresolvedUnit, result.Flagged[0].Reason)
}

func TestPricingService_StagePrice_StoreFailureIsFatal(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())
	f.stages.failListOptions = true

	result, err := f.service.StagePrice(context.Background(), stage.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, result, "частичный результат при недоступном хранилище не возвращается")
}

func TestPricingService_StagePrice_StageNotFoundNotRetryable(t *testing.T) {
	f := newPricingFixture()

	_, err := f.service.StagePrice(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrStageNotFound)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestPricingService_OrderPrice_SumsStages(t *testing.T) {
	f := newPricingFixture()
	orderID := uuid.New()
	f.orders.orders[orderID] = &models.Order{ID: orderID}

	first := f.addStage(orderID)
	second := f.addStage(orderID)
	f.addOption(first.ID, models.StageOption{
		Name:            "Вёрстка",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("10"),
		UnitDivider:     decPtr("5"),
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &f.unitID,
	})
	f.addOption(second.ID, models.StageOption{
		Name:            "Тексты",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("3"),
		PricePerUnit:    decPtr("100"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.OrderPrice(context.Background(), orderID)
	require.NoError(t, err)

	assert.True(t, result.ComputedTotal.Equal(dec("340")))
	assert.True(t, result.Price.Equal(dec("340")))
	assert.Nil(t, result.ManualPrice)
	assert.Len(t, result.Stages, 2)
}

func TestPricingService_OrderPrice_ManualPriceWins(t *testing.T) {
	f := newPricingFixture()
	orderID := uuid.New()
	f.orders.orders[orderID] = &models.Order{ID: orderID, Price: decPtr("500")}

	stage := f.addStage(orderID)
	f.addOption(stage.ID, models.StageOption{
		Name:            "Вёрстка",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("21"),
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &f.unitID,
	})

	result, err := f.service.OrderPrice(context.Background(), orderID)
	require.NoError(t, err)

	assert.True(t, result.Price.Equal(dec("500")), "действующая цена — ручная")
	require.NotNil(t, result.ManualPrice)
	assert.True(t, result.ManualPrice.Equal(dec("500")))
	assert.True(t, result.ComputedTotal.Equal(dec("420")), "расчётная сумма остаётся справочной")
}

func TestPricingService_RecalculateStage_PersistsPrices(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())

	valid := f.addOption(stage.ID, models.StageOption{
		Name:            "Вёрстка",
		PricingTypeCode: models.PricingTypeCalculable,
		PlanUnits:       decPtr("10"),
		UnitDivider:     decPtr("5"),
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &f.unitID,
	})
	broken := f.addOption(stage.ID, models.StageOption{
		Name:            "Без объёма",
		PricingTypeCode: models.PricingTypeCalculable,
		PricePerUnit:    decPtr("20"),
		VolumeUnitID:    &f.unitID,
	})
	included := f.addOption(stage.ID, models.StageOption{
		Name:            "Консультации",
		PricingTypeCode: models.PricingTypeIncluded,
	})

	result, err := f.service.RecalculateStage(context.Background(), stage.ID)
	require.NoError(t, err)
	assert.True(t, result.Total.Equal(dec("40")))

	require.NotNil(t, f.stages.optionPrices[valid.ID])
	assert.True(t, f.stages.optionPrices[valid.ID].Equal(dec("40")))
	// У исключённой и included-опций рассчитанная цена сбрасывается.
	assert.Nil(t, f.stages.optionPrices[broken.ID])
	assert.Nil(t, f.stages.optionPrices[included.ID])

	require.NotNil(t, f.stages.estimatedPrices[stage.ID])
	assert.True(t, f.stages.estimatedPrices[stage.ID].Equal(dec("40")))
}

func TestPricingService_UnitListFailureIsFatal(t *testing.T) {
	f := newPricingFixture()
	stage := f.addStage(uuid.New())
	f.units.err = errors.New("timeout")

	_, err := f.service.StagePrice(context.Background(), stage.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
