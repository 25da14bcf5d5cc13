package models

// WorkType константы режимов выполнения этапа относительно соседей.
const (
	WorkTypeParallel   = "parallel"
	WorkTypeSequential = "sequential"
)

// StageStatus статус этапа свободный, но эти значения имеют особую семантику.
const (
	StageStatusActive    = "active"
	StageStatusCompleted = "completed"
	StageStatusCancelled = "cancelled"
)

// PricingType коды типов ценообразования опций (справочник из двух строк).
const (
	PricingTypeIncluded   = "included"
	PricingTypeCalculable = "calculable"
)

// UserRole роли пользователей бэк-офиса.
const (
	UserRoleAdmin   = "admin"
	UserRoleManager = "manager"
)

// ValidWorkTypes список валидных режимов выполнения.
var ValidWorkTypes = map[string]struct{}{
	WorkTypeParallel:   {},
	WorkTypeSequential: {},
}

// TerminalStageStatuses статусы, после которых этап не блокирует последователей.
var TerminalStageStatuses = map[string]struct{}{
	StageStatusCompleted: {},
	StageStatusCancelled: {},
}

// IsTerminalStageStatus сообщает, достиг ли этап терминального состояния.
func IsTerminalStageStatus(status string) bool {
	_, ok := TerminalStageStatuses[status]
	return ok
}
