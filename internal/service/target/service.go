package target

import (
	"context"
	"fmt"
	"log/slog"

	"mne-tracker/internal/metrics"
	"mne-tracker/internal/storage"
)

type IndicatorStorage interface {
	GetIndicatorByCode(ctx context.Context, code string) (*storage.Indicator, error)
}

type Cache interface {
	Get(ctx context.Context, key string, target any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type TargetService struct {
	storage IndicatorStorage
	cache   Cache
	policy  Policy
	log     *slog.Logger
}

func NewTargetService(storage IndicatorStorage, cache Cache, policy Policy, log *slog.Logger) *TargetService {
	return &TargetService{
		storage: storage,
		cache:   cache,
		policy:  policy,
		log:     log,
	}
}

// Result ответ расчёта цели; CustomTargetValidation заполняется только при переданной пользовательской цели
type Result struct {
	Calculation
	CustomTargetValidation *CustomTargetValidation `json:"custom_target_validation,omitempty"`
}

func indicatorKey(code string) string {
	return "indicator:" + code
}

// Indicator возвращает индикатор из кэша или хранилища.
// Ошибки кэша не валят запрос, только логируются.
func (s *TargetService) Indicator(ctx context.Context, code string) (*storage.Indicator, error) {
	const op = "service.target.Indicator"

	var cached storage.Indicator
	found, err := s.cache.Get(ctx, indicatorKey(code), &cached)
	if err != nil {
		s.log.Warn("indicator cache read failed", slog.String("op", op), slog.String("code", code), slog.String("error", err.Error()))
	}
	metrics.RecordCacheLookup("indicator", found)
	if found {
		return &cached, nil
	}

	ind, err := s.storage.GetIndicatorByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, indicatorKey(code), ind); err != nil {
		s.log.Warn("indicator cache write failed", slog.String("op", op), slog.String("code", code), slog.String("error", err.Error()))
	}

	return ind, nil
}

func (s *TargetService) InvalidateIndicator(ctx context.Context, code string) error {
	const op = "service.target.InvalidateIndicator"

	if err := s.cache.Delete(ctx, indicatorKey(code)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Evaluate считает цель по уже загруженному индикатору.
func (s *TargetService) Evaluate(ind *storage.Indicator, baseline float64, custom *float64) *Result {
	const op = "service.target.Evaluate"

	calc := CalculateTarget(*ind, baseline)
	if calc.RuleApplied.Index == 0 {
		s.log.Warn("no calculation rule matched, standard target used",
			slog.String("op", op),
			slog.String("indicator", ind.Code),
			slog.Float64("baseline", baseline),
			slog.String("error", ErrNoRuleMatched.Error()),
		)
		metrics.RecordTargetCalculation(ind.Code, "fallback")
	} else {
		metrics.RecordTargetCalculation(ind.Code, "rule")
	}

	res := &Result{Calculation: calc}
	if custom != nil {
		v := s.policy.ValidateCustomTarget(calc.CalculatedTarget, *custom, ind.IsReductionTarget)
		metrics.RecordCustomTargetVerdict(v.Verdict)
		res.CustomTargetValidation = &v
	}

	return res
}

func (s *TargetService) Calculate(ctx context.Context, code string, baseline float64, custom *float64) (*Result, error) {
	const op = "service.target.Calculate"

	ind, err := s.Indicator(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.Evaluate(ind, baseline, custom), nil
}
