package storage

import "time"

type Contract struct {
	ID             int64               `json:"id"`
	ContractNumber string              `json:"contract_number"`
	PartnerID      int64               `json:"partner_id"`
	PartnerNameKM  string              `json:"partner_name_km"`
	PartnerNameEN  string              `json:"partner_name_en"`
	Status         string              `json:"status"`
	SignedAt       *time.Time          `json:"signed_at"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	Indicators     []ContractIndicator `json:"indicators,omitempty"`
}

// ContractIndicator снимок базовой линии и цели партнёра на момент настройки контракта.
// SelectedRule 1..3, 0 если ни одно правило не подошло и взяты стандартные значения.
type ContractIndicator struct {
	ID                 int64     `json:"id"`
	ContractID         int64     `json:"contract_id"`
	IndicatorID        int64     `json:"indicator_id"`
	IndicatorCode      string    `json:"indicator_code"`
	BaselinePercentage float64   `json:"baseline_percentage"`
	TargetPercentage   float64   `json:"target_percentage"`
	CalculatedTarget   float64   `json:"calculated_target"`
	IsCustomTarget     bool      `json:"is_custom_target"`
	SelectedRule       int       `json:"selected_rule"`
	CreatedAt          time.Time `json:"created_at"`
}

type ContractFilter struct {
	Status string
}
