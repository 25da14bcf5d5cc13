package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/avkuzmin/backoffice/internal/models"
)

func makeStage(sequence int, workType, status string) models.Stage {
	return models.Stage{
		ID:       uuid.New(),
		Sequence: sequence,
		WorkType: workType,
		Status:   status,
	}
}

func TestResolveEligibility_ParallelNeverBlocked(t *testing.T) {
	blocker := makeStage(1, models.WorkTypeSequential, models.StageStatusActive)
	stage := makeStage(2, models.WorkTypeParallel, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{blocker, stage})

	assert.True(t, result.Eligible)
	assert.Empty(t, result.BlockedBy)
}

func TestResolveEligibility_SequentialBlockedByActivePredecessor(t *testing.T) {
	blocker := makeStage(1, models.WorkTypeSequential, models.StageStatusActive)
	stage := makeStage(2, models.WorkTypeSequential, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{blocker, stage})

	assert.False(t, result.Eligible)
	assert.Equal(t, []uuid.UUID{blocker.ID}, result.BlockedBy)
}

func TestResolveEligibility_TerminalPredecessorsDoNotBlock(t *testing.T) {
	completed := makeStage(1, models.WorkTypeSequential, models.StageStatusCompleted)
	cancelled := makeStage(2, models.WorkTypeSequential, models.StageStatusCancelled)
	stage := makeStage(3, models.WorkTypeSequential, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{completed, cancelled, stage})

	assert.True(t, result.Eligible)
	assert.Empty(t, result.BlockedBy)
}

func TestResolveEligibility_ParallelSiblingsExcludedFromBlockers(t *testing.T) {
	parallel := makeStage(1, models.WorkTypeParallel, models.StageStatusActive)
	sequential := makeStage(2, models.WorkTypeSequential, models.StageStatusActive)
	stage := makeStage(3, models.WorkTypeSequential, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{parallel, sequential, stage})

	assert.False(t, result.Eligible)
	// Активный parallel-сосед не попадает в блокирующее множество.
	assert.Equal(t, []uuid.UUID{sequential.ID}, result.BlockedBy)
}

func TestResolveEligibility_NoPredecessors(t *testing.T) {
	stage := makeStage(1, models.WorkTypeSequential, models.StageStatusActive)
	later := makeStage(2, models.WorkTypeSequential, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{stage, later})

	assert.True(t, result.Eligible)
	assert.Empty(t, result.BlockedBy)
}

func TestResolveEligibility_OnlyLowerSequencesConsidered(t *testing.T) {
	stage := makeStage(2, models.WorkTypeSequential, models.StageStatusActive)
	later := makeStage(5, models.WorkTypeSequential, models.StageStatusActive)
	earlier := makeStage(1, models.WorkTypeSequential, models.StageStatusActive)

	result := ResolveEligibility(stage, []models.Stage{stage, later, earlier})

	assert.False(t, result.Eligible)
	assert.Equal(t, []uuid.UUID{earlier.ID}, result.BlockedBy)
}
