package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/models"
)

// LegacyOptionStore доступ к опциям с незаполненной нормализованной
// единицей измерения.
type LegacyOptionStore interface {
	ListOptionsWithLegacyUnit(ctx context.Context) ([]models.StageOption, error)
	SetOptionVolumeUnit(ctx context.Context, optionID, unitID uuid.UUID) error
}

// ReconcileReport итог прогона сверки легаси-единиц.
type ReconcileReport struct {
	Scanned   int      `json:"scanned"`
	Matched   int      `json:"matched"`
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// ReconcileService — офлайн-задача, переносящая легаси-строку volume_unit
// в нормализованный внешний ключ volume_unit_id. В рантайме ядра фолбэка
// на строку нет: пока сверка не прошла, такая опция остаётся
// непригодной к расчёту и флагуется агрегатором.
type ReconcileService struct {
	options LegacyOptionStore
	units   UnitLister
}

// NewReconcileService создаёт задачу сверки.
func NewReconcileService(options LegacyOptionStore, units UnitLister) *ReconcileService {
	return &ReconcileService{options: options, units: units}
}

// Run сопоставляет легаси-строки с единицами измерения по полному и
// краткому имени. В режиме dryRun изменения не пишутся.
func (s *ReconcileService) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	units, err := s.units.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile service: %w: %w", ErrStoreUnavailable, err)
	}

	// Индекс нормализованных имён: "штуки" и "шт" указывают на одну единицу.
	index := make(map[string]uuid.UUID, len(units)*2)
	for _, unit := range units {
		index[normalizeUnitName(unit.FullName)] = unit.ID
		index[normalizeUnitName(unit.ShortName)] = unit.ID
	}

	options, err := s.options.ListOptionsWithLegacyUnit(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile service: %w: %w", ErrStoreUnavailable, err)
	}

	report := &ReconcileReport{Scanned: len(options)}
	for _, option := range options {
		legacy := ""
		if option.LegacyVolumeUnit != nil {
			legacy = *option.LegacyVolumeUnit
		}

		unitID, ok := index[normalizeUnitName(legacy)]
		if !ok {
			report.Unmatched = append(report.Unmatched, legacy)
			continue
		}
		report.Matched++

		if dryRun {
			continue
		}
		if err := s.options.SetOptionVolumeUnit(ctx, option.ID, unitID); err != nil {
			return report, fmt.Errorf("reconcile service: option %s: %w", option.ID, err)
		}
		report.Updated++
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"scanned":   report.Scanned,
			"matched":   report.Matched,
			"updated":   report.Updated,
			"unmatched": len(report.Unmatched),
			"dry_run":   dryRun,
		}).Info("сверка легаси-единиц завершена")
	}

	return report, nil
}

// normalizeUnitName приводит имя единицы к ключу сопоставления:
// нижний регистр, без окружающих пробелов и завершающей точки ("шт." == "шт").
func normalizeUnitName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".")
}
