package dashboard

import (
	"sort"
	"time"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/service/target"
	"mne-tracker/internal/storage"
)

const (
	OnTrackThreshold = 75.0
	AtRiskThreshold  = 50.0
)

type IndicatorSummary struct {
	IndicatorID        int64   `json:"indicator_id"`
	IndicatorCode      string  `json:"indicator_code"`
	NameKM             string  `json:"name_km"`
	NameEN             string  `json:"name_en"`
	IsReductionTarget  bool    `json:"is_reduction_target"`
	TotalMilestones    int     `json:"total_milestones"`
	CompletedCount     int     `json:"completed_count"`
	OnTrackCount       int     `json:"on_track_count"`
	AverageAchievement float64 `json:"average_achievement"`
	PartnersWorkingOn  int     `json:"partners_working_on"`
	AverageBaseline    float64 `json:"average_baseline"`
	AverageTarget      float64 `json:"average_target"`
}

type PartnerSummary struct {
	PartnerID           int64      `json:"partner_id"`
	ContractID          int64      `json:"contract_id"`
	ContractNumber      string     `json:"contract_number"`
	PartnerNameKM       string     `json:"partner_name_km"`
	PartnerNameEN       string     `json:"partner_name_en"`
	ContractStatus      string     `json:"contract_status"`
	AchievementRate     float64    `json:"achievement_rate"`
	OverallHealth       string     `json:"overall_health"`
	TotalMilestones     int        `json:"total_milestones"`
	CompletedMilestones int        `json:"completed_milestones"`
	AtRiskMilestones    int        `json:"at_risk_milestones"`
	CriticalMilestones  int        `json:"critical_milestones"`
	NextMilestoneDue    *time.Time `json:"next_milestone_due"`
	LastReportDate      *time.Time `json:"last_report_date"`
	Rank                int        `json:"rank"`
}

// SummarizeIndicator rolls up every milestone that references the indicator,
// across all contracts. cis are the ContractIndicator rows of this indicator.
func SummarizeIndicator(ind storage.Indicator, milestones []storage.Milestone, cis []storage.ContractIndicator) IndicatorSummary {
	s := IndicatorSummary{
		IndicatorID:       ind.ID,
		IndicatorCode:     ind.Code,
		NameKM:            ind.NameKM,
		NameEN:            ind.NameEN,
		IsReductionTarget: ind.IsReductionTarget,
		TotalMilestones:   len(milestones),
		AverageBaseline:   target.Round1(ind.BaselinePercentage),
		AverageTarget:     target.Round1(ind.TargetPercentage),
	}

	contracts := make(map[int64]struct{})
	achievements := make([]float64, 0, len(milestones))
	for _, m := range milestones {
		if m.OverallStatus == constants.MilestoneCompleted {
			s.CompletedCount++
		}
		if m.AchievementPercentage >= OnTrackThreshold {
			s.OnTrackCount++
		}
		contracts[m.ContractID] = struct{}{}
		achievements = append(achievements, m.AchievementPercentage)
	}
	s.PartnersWorkingOn = len(contracts)
	s.AverageAchievement = target.Round1(mean(achievements))

	if len(cis) > 0 {
		baselines := make([]float64, 0, len(cis))
		targets := make([]float64, 0, len(cis))
		for _, ci := range cis {
			baselines = append(baselines, ci.BaselinePercentage)
			targets = append(targets, ci.TargetPercentage)
		}
		s.AverageBaseline = target.Round1(mean(baselines))
		s.AverageTarget = target.Round1(mean(targets))
	}

	return s
}

// SummarizePartner считает показатели одного контракта.
// reports могут содержать только последний отчёт по контракту.
func SummarizePartner(c storage.Contract, milestones []storage.Milestone, reports []storage.ProgressReport, now time.Time) PartnerSummary {
	s := PartnerSummary{
		PartnerID:       c.PartnerID,
		ContractID:      c.ID,
		ContractNumber:  c.ContractNumber,
		PartnerNameKM:   c.PartnerNameKM,
		PartnerNameEN:   c.PartnerNameEN,
		ContractStatus:  c.Status,
		TotalMilestones: len(milestones),
		LastReportDate:  LastReportDate(reports),
	}

	achievements := make([]float64, 0, len(milestones))
	for _, m := range milestones {
		achievements = append(achievements, m.AchievementPercentage)
		switch m.HealthIndicator {
		case constants.HealthAtRisk:
			s.AtRiskMilestones++
		case constants.HealthCritical:
			s.CriticalMilestones++
		}
		if m.OverallStatus == constants.MilestoneCompleted {
			s.CompletedMilestones++
		}
	}

	// пороги сравниваются с неокруглённым средним
	rate := mean(achievements)
	s.AchievementRate = target.Round1(rate)
	s.OverallHealth = overallHealth(len(milestones), s.CriticalMilestones, s.AtRiskMilestones, rate)
	s.NextMilestoneDue = NextMilestoneDue(milestones, now)

	return s
}

// overallHealth: пороги по среднему применяются только если вехи есть
func overallHealth(total, critical, atRisk int, rate float64) string {
	hasData := total > 0

	switch {
	case critical > 0 || (hasData && rate < AtRiskThreshold):
		return constants.OverallRed
	case atRisk > 0 || (hasData && rate < OnTrackThreshold):
		return constants.OverallYellow
	default:
		return constants.OverallGreen
	}
}

// NextMilestoneDue earliest future planned end among milestones that are not
// completed. Equal dates resolve by creation time, then by input order.
func NextMilestoneDue(milestones []storage.Milestone, now time.Time) *time.Time {
	var best *storage.Milestone
	for i := range milestones {
		m := &milestones[i]
		if m.OverallStatus == constants.MilestoneCompleted || !m.PlannedEndDate.After(now) {
			continue
		}
		if best == nil ||
			m.PlannedEndDate.Before(best.PlannedEndDate) ||
			(m.PlannedEndDate.Equal(best.PlannedEndDate) && m.CreatedAt.Before(best.CreatedAt)) {
			best = m
		}
	}

	if best == nil {
		return nil
	}
	due := best.PlannedEndDate
	return &due
}

func LastReportDate(reports []storage.ProgressReport) *time.Time {
	var last *time.Time
	for i := range reports {
		d := reports[i].ReportingDate
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last
}

// RankPartners сортирует по achievement_rate по убыванию, равные сохраняют исходный порядок.
func RankPartners(partners []PartnerSummary) []PartnerSummary {
	ranked := make([]PartnerSummary, len(partners))
	copy(ranked, partners)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AchievementRate > ranked[j].AchievementRate
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// ClassifyMilestoneHealth светофор одной вехи по проценту достижения и статусу.
// Задержанная веха не бывает on_track.
func ClassifyMilestoneHealth(achievement float64, status string) string {
	health := constants.HealthCritical
	switch {
	case achievement >= OnTrackThreshold:
		health = constants.HealthOnTrack
	case achievement >= AtRiskThreshold:
		health = constants.HealthAtRisk
	}

	if status == constants.MilestoneDelayed && health == constants.HealthOnTrack {
		health = constants.HealthAtRisk
	}

	return health
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
