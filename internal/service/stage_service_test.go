package service

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
)

// mockStageStore реализует StageStore для тестов. Уникальность пары
// (order_id, sequence) воспроизводится так же, как её держит индекс в базе.
type mockStageStore struct {
	stages      map[uuid.UUID]*models.Stage
	options     map[uuid.UUID]*models.StageOption
	failCreates int // первые N вызовов Create вернут ErrDuplicateSequence
}

func newMockStageStore() *mockStageStore {
	return &mockStageStore{
		stages:  make(map[uuid.UUID]*models.Stage),
		options: make(map[uuid.UUID]*models.StageOption),
	}
}

func (m *mockStageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	if stage, ok := m.stages[id]; ok {
		copied := *stage
		return &copied, nil
	}
	return nil, repository.ErrStageNotFound
}

func (m *mockStageStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Stage, error) {
	var out []models.Stage
	for _, stage := range m.stages {
		if stage.OrderID == orderID {
			out = append(out, *stage)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *mockStageStore) NextSequence(ctx context.Context, orderID uuid.UUID) (int, error) {
	max := 0
	for _, stage := range m.stages {
		if stage.OrderID == orderID && stage.Sequence > max {
			max = stage.Sequence
		}
	}
	return max + 1, nil
}

func (m *mockStageStore) SequenceTaken(ctx context.Context, orderID uuid.UUID, sequence int, excludeStageID *uuid.UUID) (bool, error) {
	for _, stage := range m.stages {
		if excludeStageID != nil && stage.ID == *excludeStageID {
			continue
		}
		if stage.OrderID == orderID && stage.Sequence == sequence {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStageStore) Create(ctx context.Context, stage *models.Stage) error {
	if m.failCreates > 0 {
		m.failCreates--
		return repository.ErrDuplicateSequence
	}
	if stage.Sequence <= 0 {
		next, _ := m.NextSequence(ctx, stage.OrderID)
		stage.Sequence = next
	}
	if taken, _ := m.SequenceTaken(ctx, stage.OrderID, stage.Sequence, nil); taken {
		return repository.ErrDuplicateSequence
	}
	stage.ID = uuid.New()
	copied := *stage
	m.stages[stage.ID] = &copied
	return nil
}

func (m *mockStageStore) Reorder(ctx context.Context, stageID uuid.UUID, newSequence int) error {
	stage, ok := m.stages[stageID]
	if !ok {
		return repository.ErrStageNotFound
	}
	old := stage.Sequence
	if old == newSequence {
		return nil
	}
	for _, sibling := range m.stages {
		if sibling.OrderID != stage.OrderID || sibling.ID == stageID {
			continue
		}
		if old < newSequence && sibling.Sequence > old && sibling.Sequence <= newSequence {
			sibling.Sequence--
		}
		if old > newSequence && sibling.Sequence >= newSequence && sibling.Sequence < old {
			sibling.Sequence++
		}
	}
	stage.Sequence = newSequence
	return nil
}

func (m *mockStageStore) Update(ctx context.Context, stage *models.Stage) error {
	if _, ok := m.stages[stage.ID]; !ok {
		return repository.ErrStageNotFound
	}
	copied := *stage
	m.stages[stage.ID] = &copied
	return nil
}

func (m *mockStageStore) UpdateStatus(ctx context.Context, stageID uuid.UUID, status string) error {
	stage, ok := m.stages[stageID]
	if !ok {
		return repository.ErrStageNotFound
	}
	stage.Status = status
	return nil
}

func (m *mockStageStore) Delete(ctx context.Context, stageID uuid.UUID) error {
	if _, ok := m.stages[stageID]; !ok {
		return repository.ErrStageNotFound
	}
	delete(m.stages, stageID)
	return nil
}

func (m *mockStageStore) GetOptionByID(ctx context.Context, id uuid.UUID) (*models.StageOption, error) {
	if option, ok := m.options[id]; ok {
		copied := *option
		return &copied, nil
	}
	return nil, repository.ErrOptionNotFound
}

func (m *mockStageStore) ListOptionsByStage(ctx context.Context, stageID uuid.UUID) ([]models.StageOption, error) {
	var out []models.StageOption
	for _, option := range m.options {
		if option.StageID == stageID {
			out = append(out, *option)
		}
	}
	return out, nil
}

func (m *mockStageStore) CreateOption(ctx context.Context, option *models.StageOption) error {
	option.ID = uuid.New()
	copied := *option
	m.options[option.ID] = &copied
	return nil
}

func (m *mockStageStore) UpdateOption(ctx context.Context, option *models.StageOption) error {
	if _, ok := m.options[option.ID]; !ok {
		return repository.ErrOptionNotFound
	}
	copied := *option
	m.options[option.ID] = &copied
	return nil
}

func (m *mockStageStore) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	if _, ok := m.options[optionID]; !ok {
		return repository.ErrOptionNotFound
	}
	delete(m.options, optionID)
	return nil
}

// mockOrderStore реализует OrderStore для тестов.
type mockOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, repository.ErrOrderNotFound
}

// mockStatusResolver реализует StatusResolver для тестов.
type mockStatusResolver struct {
	statuses map[uuid.UUID]*models.Status
}

func (m *mockStatusResolver) GetStatusByID(ctx context.Context, id uuid.UUID) (*models.Status, error) {
	if status, ok := m.statuses[id]; ok {
		return status, nil
	}
	return nil, repository.ErrStatusNotFound
}

// mockRecalculator фиксирует вызовы пересчёта цены этапа.
type mockRecalculator struct {
	calls []uuid.UUID
}

func (m *mockRecalculator) RecalculateStage(ctx context.Context, stageID uuid.UUID) (*StagePriceResult, error) {
	m.calls = append(m.calls, stageID)
	return &StagePriceResult{StageID: stageID, Total: decimal.Zero}, nil
}

// mockNotifier фиксирует разосланные события.
type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Broadcast(event string, data any) {
	m.events = append(m.events, event)
}

type stageFixture struct {
	store    *mockStageStore
	orders   *mockOrderStore
	statuses *mockStatusResolver
	recalc   *mockRecalculator
	notifier *mockNotifier
	service  *StageService
	orderID  uuid.UUID
}

func newStageFixture() *stageFixture {
	orderID := uuid.New()
	store := newMockStageStore()
	orders := &mockOrderStore{orders: map[uuid.UUID]*models.Order{
		orderID: {ID: orderID, Name: "Лендинг"},
	}}
	statuses := &mockStatusResolver{statuses: make(map[uuid.UUID]*models.Status)}
	recalc := &mockRecalculator{}
	notifier := &mockNotifier{}
	return &stageFixture{
		store:    store,
		orders:   orders,
		statuses: statuses,
		recalc:   recalc,
		notifier: notifier,
		service:  NewStageService(store, orders, statuses, recalc, notifier),
		orderID:  orderID,
	}
}

func (f *stageFixture) seedStage(t *testing.T, sequence int, workType string) *models.Stage {
	t.Helper()
	stage, err := f.service.CreateStage(context.Background(), CreateStageInput{
		OrderID:  f.orderID,
		Name:     "Этап",
		WorkType: workType,
		Sequence: sequence,
	})
	require.NoError(t, err)
	return stage
}

func TestStageService_NextSequence(t *testing.T) {
	f := newStageFixture()
	ctx := context.Background()

	next, err := f.service.NextSequence(ctx, f.orderID)
	require.NoError(t, err)
	assert.Equal(t, 1, next, "для заказа без этапов следующий номер — 1")

	f.seedStage(t, 0, models.WorkTypeSequential)
	f.seedStage(t, 0, models.WorkTypeSequential)

	next, err = f.service.NextSequence(ctx, f.orderID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestStageService_NextSequence_UnknownOrder(t *testing.T) {
	f := newStageFixture()

	_, err := f.service.NextSequence(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestStageService_CreateStage_AutoAssignsSequence(t *testing.T) {
	f := newStageFixture()

	first := f.seedStage(t, 0, models.WorkTypeSequential)
	second := f.seedStage(t, 0, models.WorkTypeParallel)

	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, models.StageStatusActive, first.Status)
}

func TestStageService_CreateStage_ExplicitDuplicateRejected(t *testing.T) {
	f := newStageFixture()
	f.seedStage(t, 1, models.WorkTypeSequential)

	_, err := f.service.CreateStage(context.Background(), CreateStageInput{
		OrderID:  f.orderID,
		Name:     "Дубль",
		WorkType: models.WorkTypeSequential,
		Sequence: 1,
	})

	assert.ErrorIs(t, err, repository.ErrDuplicateSequence)
}

func TestStageService_CreateStage_RetriesOnSequenceRace(t *testing.T) {
	f := newStageFixture()
	f.store.failCreates = 1

	stage, err := f.service.CreateStage(context.Background(), CreateStageInput{
		OrderID:  f.orderID,
		Name:     "Гонка",
		WorkType: models.WorkTypeSequential,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stage.Sequence)
}

func TestStageService_CreateStage_InvalidWorkType(t *testing.T) {
	f := newStageFixture()

	_, err := f.service.CreateStage(context.Background(), CreateStageInput{
		OrderID:  f.orderID,
		Name:     "Этап",
		WorkType: "batch",
	})

	assert.Error(t, err)
}

func TestStageService_ValidateSequence(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)
	ctx := context.Background()

	err := f.service.ValidateSequence(ctx, f.orderID, 2, nil)
	assert.NoError(t, err)

	err = f.service.ValidateSequence(ctx, f.orderID, 1, nil)
	assert.ErrorIs(t, err, repository.ErrDuplicateSequence)

	// Собственный номер этапа не конфликтует сам с собой.
	err = f.service.ValidateSequence(ctx, f.orderID, 1, &stage.ID)
	assert.NoError(t, err)
}

func TestStageService_Reorder_ShiftsNeighbours(t *testing.T) {
	f := newStageFixture()
	ctx := context.Background()

	first := f.seedStage(t, 0, models.WorkTypeSequential)
	second := f.seedStage(t, 0, models.WorkTypeSequential)
	third := f.seedStage(t, 0, models.WorkTypeSequential)

	require.NoError(t, f.service.Reorder(ctx, third.ID, 1))

	stages, err := f.service.ListStages(ctx, f.orderID)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	bySequence := make(map[int]uuid.UUID, len(stages))
	for _, stage := range stages {
		bySequence[stage.Sequence] = stage.ID
	}
	assert.Equal(t, third.ID, bySequence[1])
	assert.Equal(t, first.ID, bySequence[2])
	assert.Equal(t, second.ID, bySequence[3])
}

func TestStageService_Reorder_SamePositionIsNoop(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)

	require.NoError(t, f.service.Reorder(context.Background(), stage.ID, 1))

	got, err := f.service.GetStage(context.Background(), stage.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sequence)
}

func TestStageService_UpdateStageStatus_Broadcasts(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)

	updated, err := f.service.UpdateStageStatus(context.Background(), stage.ID, models.StageStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, models.StageStatusCompleted, updated.Status)
	assert.Contains(t, f.notifier.events, EventStageStatusChanged)
}

func TestStageService_UpdateStageStatus_SameStatusSilent(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)

	_, err := f.service.UpdateStageStatus(context.Background(), stage.ID, models.StageStatusActive)
	require.NoError(t, err)

	assert.Empty(t, f.notifier.events)
}

func TestStageService_UpdateStageStatus_CustomStatusAllowed(t *testing.T) {
	f := newStageFixture()
	ctx := context.Background()

	first := f.seedStage(t, 0, models.WorkTypeSequential)
	second := f.seedStage(t, 0, models.WorkTypeSequential)

	// Статус этапа свободный: промежуточные значения вроде "in_review"
	// сохраняются как есть и считаются нетерминальными.
	updated, err := f.service.UpdateStageStatus(ctx, first.ID, "in_review")
	require.NoError(t, err)
	assert.Equal(t, "in_review", updated.Status)

	result, err := f.service.Eligibility(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, []uuid.UUID{first.ID}, result.BlockedBy)
}

func TestStageService_Eligibility_TerminalOrderStatus(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeParallel)

	statusID := uuid.New()
	f.statuses.statuses[statusID] = &models.Status{
		ID:   statusID,
		Kind: models.StatusKindOrder,
		Code: "cancelled",
	}
	f.orders.orders[f.orderID].StatusID = &statusID

	result, err := f.service.Eligibility(context.Background(), stage.ID)
	require.NoError(t, err)

	assert.False(t, result.Eligible, "в отменённом заказе даже parallel-этап недоступен")
	assert.Empty(t, result.BlockedBy)
}

func TestStageService_Eligibility_SequentialChain(t *testing.T) {
	f := newStageFixture()
	ctx := context.Background()

	first := f.seedStage(t, 0, models.WorkTypeSequential)
	second := f.seedStage(t, 0, models.WorkTypeSequential)

	result, err := f.service.Eligibility(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, []uuid.UUID{first.ID}, result.BlockedBy)

	_, err = f.service.UpdateStageStatus(ctx, first.ID, models.StageStatusCompleted)
	require.NoError(t, err)

	result, err = f.service.Eligibility(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, result.Eligible)
}

func TestStageService_AddOption_TriggersRecalculation(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)

	option, err := f.service.AddOption(context.Background(), stage.ID, OptionInput{
		Name:          "Вёрстка страниц",
		PricingTypeID: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, option)

	assert.Equal(t, []uuid.UUID{stage.ID}, f.recalc.calls)
	assert.Contains(t, f.notifier.events, EventStagePriceUpdated)
}

func TestStageService_DeleteOption_TriggersRecalculation(t *testing.T) {
	f := newStageFixture()
	stage := f.seedStage(t, 1, models.WorkTypeSequential)

	option, err := f.service.AddOption(context.Background(), stage.ID, OptionInput{
		Name:          "Вёрстка страниц",
		PricingTypeID: uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteOption(context.Background(), option.ID))
	assert.Equal(t, []uuid.UUID{stage.ID, stage.ID}, f.recalc.calls)
}
