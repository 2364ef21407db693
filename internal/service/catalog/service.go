// Package catalog администрирование справочника индикаторов.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mne-tracker/internal/rules"
	"mne-tracker/internal/storage"
)

type IndicatorStorage interface {
	GetAllIndicatorsAdmin(ctx context.Context) ([]*storage.Indicator, error)
	CreateIndicatorAdmin(ctx context.Context, ind storage.IndicatorAdmin) (int64, error)
	UpdateIndicatorAdmin(ctx context.Context, code string, ind storage.IndicatorAdmin) error
}

type Invalidator interface {
	InvalidateIndicator(ctx context.Context, code string) error
}

type CatalogService struct {
	storage IndicatorStorage
	cache   Invalidator
	log     *slog.Logger
}

func NewCatalogService(storage IndicatorStorage, cache Invalidator, log *slog.Logger) *CatalogService {
	return &CatalogService{storage: storage, cache: cache, log: log}
}

type IndicatorInput struct {
	Code               string
	NameKM             string
	NameEN             string
	BaselinePercentage float64
	TargetPercentage   float64
	IsReductionTarget  bool
	Rules              []rules.Rule
	IsActive           bool
}

// toAdmin проверяет набор правил и сериализует его для хранения.
func (in IndicatorInput) toAdmin() (storage.IndicatorAdmin, error) {
	if err := rules.ValidateSet(in.Rules); err != nil {
		return storage.IndicatorAdmin{}, err
	}

	raw, err := json.Marshal(in.Rules)
	if err != nil {
		return storage.IndicatorAdmin{}, fmt.Errorf("marshal rules: %w", err)
	}

	return storage.IndicatorAdmin{
		Code:               in.Code,
		NameKM:             in.NameKM,
		NameEN:             in.NameEN,
		BaselinePercentage: in.BaselinePercentage,
		TargetPercentage:   in.TargetPercentage,
		IsReductionTarget:  in.IsReductionTarget,
		Rules:              string(raw),
		IsActive:           in.IsActive,
	}, nil
}

func (s *CatalogService) Indicators(ctx context.Context) ([]*storage.Indicator, error) {
	const op = "service.catalog.Indicators"

	inds, err := s.storage.GetAllIndicatorsAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inds, nil
}

func (s *CatalogService) CreateIndicator(ctx context.Context, in IndicatorInput) (int64, error) {
	const op = "service.catalog.CreateIndicator"

	adm, err := in.toAdmin()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.storage.CreateIndicatorAdmin(ctx, adm)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("indicator created", slog.String("op", op), slog.String("code", in.Code), slog.Int64("id", id))

	return id, nil
}

// UpdateIndicator сохраняет индикатор и сбрасывает его запись в кэше.
// Уже подписанные контракты не пересчитываются: у них свой снимок цели.
func (s *CatalogService) UpdateIndicator(ctx context.Context, code string, in IndicatorInput) error {
	const op = "service.catalog.UpdateIndicator"

	in.Code = code
	adm, err := in.toAdmin()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateIndicatorAdmin(ctx, code, adm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.InvalidateIndicator(ctx, code); err != nil {
		// запись истечёт по TTL
		s.log.Error("indicator cache invalidation failed",
			slog.String("op", op),
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}

	s.log.Info("indicator updated", slog.String("op", op), slog.String("code", code))

	return nil
}
