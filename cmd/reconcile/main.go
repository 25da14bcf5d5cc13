package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avkuzmin/backoffice/internal/config"
	"github.com/avkuzmin/backoffice/internal/db"
	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/service"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Офлайн-задачи сверки данных бэк-офиса",
	}

	cmd.AddCommand(newUnitsCmd())
	return cmd
}

func newUnitsCmd() *cobra.Command {
	var (
		dryRun   bool
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "units",
		Short: "Перенести легаси-строки volume_unit в нормализованный справочник",
		Long: "Сопоставляет текстовые единицы измерения опций этапов (поле volume_unit) " +
			"со справочником units_of_measure по полному и краткому имени и заполняет volume_unit_id. " +
			"С флагом --schedule работает как периодическая задача до сигнала остановки.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnits(dryRun, schedule)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "только отчёт, без записи изменений")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron-выражение для периодического запуска (например \"0 3 * * *\")")
	return cmd
}

func runUnits(dryRun bool, schedule string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("reconcile: ошибка загрузки конфигурации: %w", err)
	}

	logger.Init("info")
	logger.SetTextFormatter()

	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.StoreTimeout)
	dbConn, err := db.NewPostgres(connectCtx, cfg.DatabaseURL)
	cancelConnect()
	if err != nil {
		return fmt.Errorf("reconcile: ошибка подключения к базе: %w", err)
	}
	defer func() { _ = dbConn.Close() }()

	stageRepo := repository.NewStageRepository(dbConn)
	taxonomyRepo := repository.NewTaxonomyRepository(dbConn)
	svc := service.NewReconcileService(stageRepo, taxonomyRepo)

	if schedule == "" {
		return runOnce(ctx, svc, dryRun)
	}

	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		if err := runOnce(ctx, svc, dryRun); err != nil {
			logger.Log.WithError(err).Error("reconcile: прогон по расписанию завершился ошибкой")
		}
	})
	if err != nil {
		return fmt.Errorf("reconcile: невалидное cron-выражение %q: %w", schedule, err)
	}

	logger.Log.WithField("schedule", schedule).Info("reconcile: запуск по расписанию")
	c.Start()
	<-ctx.Done()

	// Дожидаемся завершения текущего прогона.
	<-c.Stop().Done()
	return nil
}

func runOnce(ctx context.Context, svc *service.ReconcileService, dryRun bool) error {
	report, err := svc.Run(ctx, dryRun)
	if err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"scanned": report.Scanned,
		"matched": report.Matched,
		"updated": report.Updated,
		"dry_run": dryRun,
	}).Info("reconcile: прогон завершён")

	for _, name := range report.Unmatched {
		logger.Log.WithField("volume_unit", name).Warn("reconcile: единица не найдена в справочнике")
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
