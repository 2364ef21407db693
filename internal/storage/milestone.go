package storage

import "time"

type Milestone struct {
	ID                    int64      `json:"id"`
	ContractID            int64      `json:"contract_id"`
	IndicatorID           int64      `json:"indicator_id"`
	TitleKM               string     `json:"title_km"`
	TitleEN               string     `json:"title_en"`
	PlannedStartDate      time.Time  `json:"planned_start_date"`
	PlannedEndDate        time.Time  `json:"planned_end_date"`
	ActualStartDate       *time.Time `json:"actual_start_date"`
	ActualEndDate         *time.Time `json:"actual_end_date"`
	BaselineValue         float64    `json:"baseline_value"`
	TargetValue           float64    `json:"target_value"`
	AchievementPercentage float64    `json:"achievement_percentage"`
	OverallStatus         string     `json:"overall_status"`
	HealthIndicator       string     `json:"health_indicator"`
	CreatedAt             time.Time  `json:"created_at"`
}

type ProgressReport struct {
	ID            int64     `json:"id"`
	ContractID    int64     `json:"contract_id"`
	MilestoneID   int64     `json:"milestone_id"`
	ReportingDate time.Time `json:"reporting_date"`
	ActualValue   float64   `json:"actual_value"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}

// MilestoneProgress новое состояние вехи после отчёта о прогрессе
type MilestoneProgress struct {
	MilestoneID           int64
	AchievementPercentage float64
	OverallStatus         string
	HealthIndicator       string
	ActualStartDate       *time.Time
	ActualEndDate         *time.Time
}
