package service

import (
	"github.com/google/uuid"

	"github.com/avkuzmin/backoffice/internal/models"
)

// Eligibility итог проверки доступности этапа к выполнению.
// BlockedBy заполняется идентификаторами блокирующих этапов, чтобы UI
// мог объяснить, чего именно ждёт этап.
type Eligibility struct {
	Eligible  bool        `json:"eligible"`
	BlockedBy []uuid.UUID `json:"blocked_by"`
}

// ResolveEligibility определяет, доступен ли этап к выполнению, по снимку
// этапов заказа. Чистая функция: без I/O и побочных эффектов.
//
// Правила:
//   - parallel-этап никогда не блокируется статусами соседей;
//   - sequential-этап блокируется каждым sequential-этапом с меньшим
//     sequence, не достигшим терминального статуса (completed/cancelled);
//     parallel-соседи в блокирующее множество не входят;
//   - sequential-этап без предшественников всегда доступен.
func ResolveEligibility(stage models.Stage, allStagesInOrder []models.Stage) Eligibility {
	if stage.WorkType != models.WorkTypeSequential {
		return Eligibility{Eligible: true, BlockedBy: []uuid.UUID{}}
	}

	blockedBy := make([]uuid.UUID, 0)
	for _, sibling := range allStagesInOrder {
		if sibling.ID == stage.ID {
			continue
		}
		if sibling.Sequence >= stage.Sequence {
			continue
		}
		if sibling.WorkType != models.WorkTypeSequential {
			continue
		}
		if models.IsTerminalStageStatus(sibling.Status) {
			continue
		}
		blockedBy = append(blockedBy, sibling.ID)
	}

	return Eligibility{
		Eligible:  len(blockedBy) == 0,
		BlockedBy: blockedBy,
	}
}
