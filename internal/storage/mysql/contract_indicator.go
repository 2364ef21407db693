package mysql

import (
	"context"
	"fmt"

	"mne-tracker/internal/storage"
)

const contractIndicatorQuery = `
	SELECT ci.id, ci.contract_id, ci.indicator_id, i.code, ci.baseline_percentage, ci.target_percentage,
	       ci.calculated_target, ci.is_custom_target, ci.selected_rule, ci.created_at
	FROM contract_indicators ci
	JOIN indicators i ON i.id = ci.indicator_id`

// SaveContractIndicators заменяет набор индикаторов контракта одной транзакцией.
func (s *Storage) SaveContractIndicators(ctx context.Context, contractID int64, cis []storage.ContractIndicator) error {
	const op = "storage.mysql.SaveContractIndicators"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_indicators WHERE contract_id = ?`, contractID); err != nil {
		return fmt.Errorf("%s: ошибка удаления старых индикаторов контракта: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contract_indicators
			(contract_id, indicator_id, baseline_percentage, target_percentage, calculated_target, is_custom_target, selected_rule)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for _, ci := range cis {
		_, err := stmt.ExecContext(ctx, contractID, ci.IndicatorID, ci.BaselinePercentage, ci.TargetPercentage,
			ci.CalculatedTarget, ci.IsCustomTarget, ci.SelectedRule)
		if err != nil {
			if isMySQLError(err, errNoReferenced) {
				return fmt.Errorf("%s: индикатор id=%d не существует: %w", op, ci.IndicatorID, storage.ErrNotFound)
			}
			if isMySQLError(err, errDuplicateEntry) {
				return fmt.Errorf("%s: индикатор id=%d указан дважды: %w", op, ci.IndicatorID, storage.ErrConflict)
			}
			return fmt.Errorf("%s: ошибка сохранения индикатора контракта: %w", op, err)
		}
	}

	return tx.Commit()
}

func (s *Storage) GetAllContractIndicators(ctx context.Context) ([]storage.ContractIndicator, error) {
	const op = "storage.mysql.GetAllContractIndicators"

	return s.queryContractIndicators(ctx, op, contractIndicatorQuery+` ORDER BY ci.contract_id, ci.id`)
}

func (s *Storage) queryContractIndicators(ctx context.Context, op, query string, args ...any) ([]storage.ContractIndicator, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var cis []storage.ContractIndicator

	for rows.Next() {
		var ci storage.ContractIndicator

		err := rows.Scan(&ci.ID, &ci.ContractID, &ci.IndicatorID, &ci.IndicatorCode, &ci.BaselinePercentage,
			&ci.TargetPercentage, &ci.CalculatedTarget, &ci.IsCustomTarget, &ci.SelectedRule, &ci.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		cis = append(cis, ci)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return cis, nil
}
