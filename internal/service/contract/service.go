package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/service/target"
	"mne-tracker/internal/storage"
)

var (
	ErrNotDraft             = errors.New("contract is not a draft")
	ErrNotSigned            = errors.New("contract is not signed")
	ErrNoIndicators         = errors.New("contract has no configured indicators")
	ErrCustomTargetRejected = errors.New("custom target rejected")
	ErrIndicatorNotInScope  = errors.New("indicator is not configured for contract")
	ErrInvalidDates         = errors.New("planned end date must be after planned start date")
	ErrInvalidTransition    = errors.New("invalid milestone status transition")
)

type ContractStorage interface {
	CreateContract(ctx context.Context, c storage.Contract) (int64, error)
	GetContractByID(ctx context.Context, id int64) (*storage.Contract, error)
	GetContracts(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error)
	SaveContractIndicators(ctx context.Context, contractID int64, cis []storage.ContractIndicator) error
	UpdateContractStatus(ctx context.Context, id int64, status string, signedAt *time.Time) error
	CreateMilestone(ctx context.Context, m storage.Milestone) (int64, error)
	GetMilestoneByID(ctx context.Context, id int64) (*storage.Milestone, error)
	GetMilestonesByContract(ctx context.Context, contractID int64) ([]storage.Milestone, error)
	GetIndicatorByID(ctx context.Context, id int64) (*storage.Indicator, error)
	SaveProgressReport(ctx context.Context, report storage.ProgressReport, progress storage.MilestoneProgress) (int64, error)
}

type TargetEvaluator interface {
	Indicator(ctx context.Context, code string) (*storage.Indicator, error)
	Evaluate(ind *storage.Indicator, baseline float64, custom *float64) *target.Result
}

type ContractService struct {
	storage ContractStorage
	targets TargetEvaluator
	log     *slog.Logger
	now     func() time.Time
}

func NewContractService(storage ContractStorage, targets TargetEvaluator, log *slog.Logger) *ContractService {
	return &ContractService{
		storage: storage,
		targets: targets,
		log:     log,
		now:     time.Now,
	}
}

type IndicatorSelection struct {
	IndicatorCode   string
	PartnerBaseline float64
	CustomTarget    *float64
}

// RejectedTarget описывает пользовательскую цель, не прошедшую проверку
type RejectedTarget struct {
	IndicatorCode string                         `json:"indicator_code"`
	Validation    target.CustomTargetValidation `json:"validation"`
}

type RejectionError struct {
	Rejected []RejectedTarget
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %d indicator(s)", ErrCustomTargetRejected, len(e.Rejected))
}

func (e *RejectionError) Unwrap() error {
	return ErrCustomTargetRejected
}

func (s *ContractService) Create(ctx context.Context, c storage.Contract) (*storage.Contract, error) {
	const op = "service.contract.Create"

	c.Status = constants.ContractDraft
	c.SignedAt = nil

	id, err := s.storage.CreateContract(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.Get(ctx, id)
}

func (s *ContractService) Get(ctx context.Context, id int64) (*storage.Contract, error) {
	const op = "service.contract.Get"

	c, err := s.storage.GetContractByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *ContractService) List(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error) {
	const op = "service.contract.List"

	contracts, err := s.storage.GetContracts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return contracts, nil
}

// Milestones возвращает вехи контракта; несуществующий контракт даёт ErrNotFound
func (s *ContractService) Milestones(ctx context.Context, contractID int64) ([]storage.Milestone, error) {
	const op = "service.contract.Milestones"

	if _, err := s.storage.GetContractByID(ctx, contractID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	milestones, err := s.storage.GetMilestonesByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return milestones, nil
}

// ConfigureIndicators создаёт снимки ContractIndicator для черновика.
// reconfigure разрешает явную перенастройку уже подписанного контракта.
func (s *ContractService) ConfigureIndicators(ctx context.Context, contractID int64, selections []IndicatorSelection, reconfigure bool) ([]storage.ContractIndicator, error) {
	const op = "service.contract.ConfigureIndicators"

	c, err := s.storage.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case !reconfigure && c.Status != constants.ContractDraft:
		return nil, fmt.Errorf("%s: %w (status %s)", op, ErrNotDraft, c.Status)
	case reconfigure && c.Status != constants.ContractSigned && c.Status != constants.ContractActive:
		return nil, fmt.Errorf("%s: %w (status %s)", op, ErrNotSigned, c.Status)
	}

	cis := make([]storage.ContractIndicator, 0, len(selections))
	var rejected []RejectedTarget

	for _, sel := range selections {
		ind, err := s.targets.Indicator(ctx, sel.IndicatorCode)
		if err != nil {
			return nil, fmt.Errorf("%s: indicator %s: %w", op, sel.IndicatorCode, err)
		}

		res := s.targets.Evaluate(ind, sel.PartnerBaseline, sel.CustomTarget)

		ci := storage.ContractIndicator{
			ContractID:         contractID,
			IndicatorID:        ind.ID,
			IndicatorCode:      ind.Code,
			BaselinePercentage: sel.PartnerBaseline,
			TargetPercentage:   res.CalculatedTarget,
			CalculatedTarget:   res.CalculatedTarget,
			SelectedRule:       res.RuleApplied.Index,
		}

		if res.CustomTargetValidation != nil {
			if res.CustomTargetValidation.Verdict != target.VerdictValid {
				rejected = append(rejected, RejectedTarget{IndicatorCode: ind.Code, Validation: *res.CustomTargetValidation})
				continue
			}
			ci.TargetPercentage = *sel.CustomTarget
			ci.IsCustomTarget = true
		}

		cis = append(cis, ci)
	}

	if len(rejected) > 0 {
		return nil, &RejectionError{Rejected: rejected}
	}

	if err := s.storage.SaveContractIndicators(ctx, contractID, cis); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if reconfigure {
		s.log.Info("contract indicators reconfigured",
			slog.String("op", op),
			slog.Int64("contract_id", contractID),
			slog.Int("indicators", len(cis)),
		)
	}

	return cis, nil
}

func (s *ContractService) Sign(ctx context.Context, contractID int64) (*storage.Contract, error) {
	const op = "service.contract.Sign"

	c, err := s.storage.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if c.Status != constants.ContractDraft {
		return nil, fmt.Errorf("%s: %w (status %s)", op, ErrNotDraft, c.Status)
	}
	if len(c.Indicators) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoIndicators)
	}

	signedAt := s.now().UTC()
	if err := s.storage.UpdateContractStatus(ctx, contractID, constants.ContractSigned, &signedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Status = constants.ContractSigned
	c.SignedAt = &signedAt

	return c, nil
}

func (s *ContractService) AddMilestone(ctx context.Context, contractID int64, m storage.Milestone) (*storage.Milestone, error) {
	const op = "service.contract.AddMilestone"

	c, err := s.storage.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inScope := false
	for _, ci := range c.Indicators {
		if ci.IndicatorID == m.IndicatorID {
			inScope = true
			break
		}
	}
	if !inScope {
		return nil, fmt.Errorf("%s: %w", op, ErrIndicatorNotInScope)
	}

	if !m.PlannedEndDate.After(m.PlannedStartDate) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDates)
	}

	m.ContractID = contractID
	m.OverallStatus = constants.MilestoneNotStarted
	m.HealthIndicator = constants.HealthOnTrack
	m.AchievementPercentage = 0
	m.ActualStartDate = nil
	m.ActualEndDate = nil

	id, err := s.storage.CreateMilestone(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.ID = id

	return &m, nil
}
