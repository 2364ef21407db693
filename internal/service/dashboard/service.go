package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mne-tracker/internal/metrics"
	"mne-tracker/internal/storage"
)

type DashboardStorage interface {
	GetAllIndicators(ctx context.Context) ([]*storage.Indicator, error)
	GetAllContractIndicators(ctx context.Context) ([]storage.ContractIndicator, error)
	GetAllMilestones(ctx context.Context) ([]storage.Milestone, error)
	GetContracts(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error)
	GetLatestReports(ctx context.Context) ([]storage.ProgressReport, error)
}

type DashboardService struct {
	storage DashboardStorage
	now     func() time.Time
}

func NewDashboardService(storage DashboardStorage) *DashboardService {
	return &DashboardService{storage: storage, now: time.Now}
}

type IndicatorFilter struct {
	Codes []string
}

type PartnerFilter struct {
	Health         string
	ContractStatus string
}

func (s *DashboardService) IndicatorDashboard(ctx context.Context, filter IndicatorFilter) ([]IndicatorSummary, error) {
	const op = "service.dashboard.IndicatorDashboard"
	start := time.Now()
	defer func() { metrics.RecordDashboardBuild("indicators", time.Since(start)) }()

	var (
		indicators []*storage.Indicator
		cis        []storage.ContractIndicator
		milestones []storage.Milestone
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		indicators, err = s.storage.GetAllIndicators(gCtx)
		if err != nil {
			return fmt.Errorf("indicators: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cis, err = s.storage.GetAllContractIndicators(gCtx)
		if err != nil {
			return fmt.Errorf("contract indicators: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		milestones, err = s.storage.GetAllMilestones(gCtx)
		if err != nil {
			return fmt.Errorf("milestones: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wanted := make(map[string]bool, len(filter.Codes))
	for _, c := range filter.Codes {
		wanted[c] = true
	}

	msByIndicator := make(map[int64][]storage.Milestone)
	for _, m := range milestones {
		msByIndicator[m.IndicatorID] = append(msByIndicator[m.IndicatorID], m)
	}
	ciByIndicator := make(map[int64][]storage.ContractIndicator)
	for _, ci := range cis {
		ciByIndicator[ci.IndicatorID] = append(ciByIndicator[ci.IndicatorID], ci)
	}

	summaries := make([]IndicatorSummary, 0, len(indicators))
	for _, ind := range indicators {
		if len(wanted) > 0 && !wanted[ind.Code] {
			continue
		}
		summaries = append(summaries, SummarizeIndicator(*ind, msByIndicator[ind.ID], ciByIndicator[ind.ID]))
	}

	return summaries, nil
}

// PartnerDashboard ранг считается по всем контрактам до фильтров по здоровью и статусу,
// так что отфильтрованный список сохраняет общие места.
func (s *DashboardService) PartnerDashboard(ctx context.Context, filter PartnerFilter) ([]PartnerSummary, error) {
	const op = "service.dashboard.PartnerDashboard"
	start := time.Now()
	defer func() { metrics.RecordDashboardBuild("partners", time.Since(start)) }()

	var (
		contracts  []*storage.Contract
		milestones []storage.Milestone
		reports    []storage.ProgressReport
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contracts, err = s.storage.GetContracts(gCtx, storage.ContractFilter{})
		if err != nil {
			return fmt.Errorf("contracts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		milestones, err = s.storage.GetAllMilestones(gCtx)
		if err != nil {
			return fmt.Errorf("milestones: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reports, err = s.storage.GetLatestReports(gCtx)
		if err != nil {
			return fmt.Errorf("reports: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	msByContract := make(map[int64][]storage.Milestone)
	for _, m := range milestones {
		msByContract[m.ContractID] = append(msByContract[m.ContractID], m)
	}
	reportsByContract := make(map[int64][]storage.ProgressReport)
	for _, r := range reports {
		reportsByContract[r.ContractID] = append(reportsByContract[r.ContractID], r)
	}

	now := s.now()
	summaries := make([]PartnerSummary, 0, len(contracts))
	for _, c := range contracts {
		summaries = append(summaries, SummarizePartner(*c, msByContract[c.ID], reportsByContract[c.ID], now))
	}

	ranked := RankPartners(summaries)
	if filter.Health == "" && filter.ContractStatus == "" {
		return ranked, nil
	}

	filtered := make([]PartnerSummary, 0, len(ranked))
	for _, p := range ranked {
		if filter.Health != "" && p.OverallHealth != filter.Health {
			continue
		}
		if filter.ContractStatus != "" && p.ContractStatus != filter.ContractStatus {
			continue
		}
		filtered = append(filtered, p)
	}

	return filtered, nil
}
