package storage

import (
	"time"

	"mne-tracker/internal/rules"
)

type Indicator struct {
	ID                 int64        `json:"id"`
	Code               string       `json:"code"`
	NameKM             string       `json:"name_km"`
	NameEN             string       `json:"name_en"`
	BaselinePercentage float64      `json:"baseline_percentage"`
	TargetPercentage   float64      `json:"target_percentage"`
	IsReductionTarget  bool         `json:"is_reduction_target"`
	CalculationRules   []rules.Rule `json:"calculation_rules"`
	IsActive           bool         `json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// IndicatorAdmin данные для создания/обновления индикатора, правила уже сериализованы
type IndicatorAdmin struct {
	Code               string
	NameKM             string
	NameEN             string
	BaselinePercentage float64
	TargetPercentage   float64
	IsReductionTarget  bool
	Rules              string
	IsActive           bool
}
