package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/service/dashboard"
	"mne-tracker/internal/service/target"
	"mne-tracker/internal/storage"
)

type ReportInput struct {
	ReportingDate time.Time
	ActualValue   float64
	// Status пустой: статус выводится из достижения и сроков
	Status string
	Note   string
}

// ReportProgress сохраняет отчёт и пересчитывает achievement, статус и здоровье вехи.
func (s *ContractService) ReportProgress(ctx context.Context, milestoneID int64, in ReportInput) (*storage.Milestone, error) {
	const op = "service.contract.ReportProgress"

	m, err := s.storage.GetMilestoneByID(ctx, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.storage.GetContractByID(ctx, m.ContractID)
	if err != nil {
		return nil, fmt.Errorf("%s: contract: %w", op, err)
	}
	if c.Status != constants.ContractSigned && c.Status != constants.ContractActive {
		return nil, fmt.Errorf("%s: %w (status %s)", op, ErrNotSigned, c.Status)
	}

	ind, err := s.storage.GetIndicatorByID(ctx, m.IndicatorID)
	if err != nil {
		return nil, fmt.Errorf("%s: indicator: %w", op, err)
	}

	achievement, err := target.ProgressPercent(m.BaselineValue, m.TargetValue, in.ActualValue, ind.IsReductionTarget)
	if err != nil {
		if !errors.Is(err, target.ErrZeroSpan) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Warn("milestone baseline equals target, achievement set to 0",
			slog.String("op", op),
			slog.Int64("milestone_id", milestoneID),
			slog.Float64("value", m.TargetValue),
		)
	}

	// без даты отчёт считается поданным сейчас, в том числе для проверки просрочки
	if in.ReportingDate.IsZero() {
		in.ReportingDate = s.now().UTC()
	}

	next, err := nextStatus(m, in, achievement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	progress := storage.MilestoneProgress{
		MilestoneID:           m.ID,
		AchievementPercentage: achievement,
		OverallStatus:         next,
		HealthIndicator:       dashboard.ClassifyMilestoneHealth(achievement, next),
		ActualStartDate:       m.ActualStartDate,
		ActualEndDate:         m.ActualEndDate,
	}

	reportDate := in.ReportingDate
	if progress.ActualStartDate == nil && next != constants.MilestoneNotStarted {
		progress.ActualStartDate = &reportDate
	}
	if next == constants.MilestoneCompleted && progress.ActualEndDate == nil {
		progress.ActualEndDate = &reportDate
	}

	report := storage.ProgressReport{
		ContractID:    m.ContractID,
		MilestoneID:   m.ID,
		ReportingDate: reportDate,
		ActualValue:   in.ActualValue,
		Note:          in.Note,
	}

	if _, err := s.storage.SaveProgressReport(ctx, report, progress); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// первый отчёт по подписанному контракту делает его активным
	if c.Status == constants.ContractSigned {
		if err := s.storage.UpdateContractStatus(ctx, c.ID, constants.ContractActive, nil); err != nil {
			s.log.Error("contract activation failed",
				slog.String("op", op),
				slog.Int64("contract_id", c.ID),
				slog.String("error", err.Error()),
			)
		} else {
			s.log.Info("contract activated", slog.String("op", op), slog.Int64("contract_id", c.ID))
		}
	}

	m.AchievementPercentage = progress.AchievementPercentage
	m.OverallStatus = progress.OverallStatus
	m.HealthIndicator = progress.HealthIndicator
	m.ActualStartDate = progress.ActualStartDate
	m.ActualEndDate = progress.ActualEndDate

	return m, nil
}

// nextStatus явный статус проверяется строго по таблице переходов.
// Выведенный статус может пройти через in_progress (not_started -> completed).
func nextStatus(m *storage.Milestone, in ReportInput, achievement float64) (string, error) {
	if in.Status != "" {
		if !constants.CanTransition(m.OverallStatus, in.Status) {
			return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.OverallStatus, in.Status)
		}
		return in.Status, nil
	}

	if m.OverallStatus == constants.MilestoneCompleted {
		return constants.MilestoneCompleted, nil
	}

	derived := constants.MilestoneInProgress
	switch {
	case achievement >= 100:
		derived = constants.MilestoneCompleted
	case in.ReportingDate.After(m.PlannedEndDate):
		derived = constants.MilestoneDelayed
	}

	if constants.CanTransition(m.OverallStatus, derived) {
		return derived, nil
	}
	if constants.CanTransition(m.OverallStatus, constants.MilestoneInProgress) &&
		constants.CanTransition(constants.MilestoneInProgress, derived) {
		return derived, nil
	}

	return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.OverallStatus, derived)
}
