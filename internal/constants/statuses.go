package constants

// статусы вехи
const (
	MilestoneNotStarted = "not_started"
	MilestoneInProgress = "in_progress"
	MilestoneDelayed    = "delayed"
	MilestoneCompleted  = "completed"
)

// индикатор здоровья вехи
const (
	HealthOnTrack  = "on_track"
	HealthAtRisk   = "at_risk"
	HealthCritical = "critical"
)

// общий светофор партнёра
const (
	OverallGreen  = "green"
	OverallYellow = "yellow"
	OverallRed    = "red"
)

// статусы контракта
const (
	ContractDraft      = "draft"
	ContractSigned     = "signed"
	ContractActive     = "active"
	ContractCompleted  = "completed"
	ContractTerminated = "terminated"
)

var (
	MilestoneStatuses = map[string]bool{
		MilestoneNotStarted: true,
		MilestoneInProgress: true,
		MilestoneDelayed:    true,
		MilestoneCompleted:  true,
	}

	ContractStatuses = map[string]bool{
		ContractDraft:      true,
		ContractSigned:     true,
		ContractActive:     true,
		ContractCompleted:  true,
		ContractTerminated: true,
	}

	// MilestoneTransitions допустимые переходы статуса вехи.
	// Переход в тот же статус разрешён отдельно (повторный отчёт).
	MilestoneTransitions = map[string]map[string]bool{
		MilestoneNotStarted: {MilestoneInProgress: true},
		MilestoneInProgress: {MilestoneDelayed: true, MilestoneCompleted: true},
		MilestoneDelayed:    {MilestoneInProgress: true, MilestoneCompleted: true},
		MilestoneCompleted:  {},
	}
)

func CanTransition(from, to string) bool {
	if from == to {
		return MilestoneStatuses[from]
	}
	return MilestoneTransitions[from][to]
}
