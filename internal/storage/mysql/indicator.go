package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mne-tracker/internal/storage"
)

const indicatorColumns = `id, code, name_km, name_en, baseline_percentage, target_percentage,
	is_reduction_target, calculation_rules, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndicator(row rowScanner) (*storage.Indicator, error) {
	ind := &storage.Indicator{}

	// правила хранятся JSON-строкой, условия разбираются при декодировании
	var rulesJSON string
	err := row.Scan(
		&ind.ID,
		&ind.Code,
		&ind.NameKM,
		&ind.NameEN,
		&ind.BaselinePercentage,
		&ind.TargetPercentage,
		&ind.IsReductionTarget,
		&rulesJSON,
		&ind.IsActive,
		&ind.CreatedAt,
		&ind.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rulesJSON), &ind.CalculationRules); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON правил индикатора %s: %w", ind.Code, err)
	}

	return ind, nil
}

func (s *Storage) GetIndicatorByCode(ctx context.Context, code string) (*storage.Indicator, error) {
	const op = "storage.mysql.GetIndicatorByCode"

	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE code = ? AND is_active = TRUE`

	ind, err := scanIndicator(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: индикатор с code='%s' не найден: %w", op, code, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	return ind, nil
}

// GetIndicatorByID возвращает индикатор и когда он уже выключен: вехи ссылаются на него.
func (s *Storage) GetIndicatorByID(ctx context.Context, id int64) (*storage.Indicator, error) {
	const op = "storage.mysql.GetIndicatorByID"

	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE id = ?`

	ind, err := scanIndicator(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: индикатор id=%d не найден: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	return ind, nil
}

func (s *Storage) GetAllIndicators(ctx context.Context) ([]*storage.Indicator, error) {
	const op = "storage.mysql.GetAllIndicators"

	return s.queryIndicators(ctx, op, `SELECT `+indicatorColumns+` FROM indicators WHERE is_active = TRUE ORDER BY code`)
}

func (s *Storage) GetAllIndicatorsAdmin(ctx context.Context) ([]*storage.Indicator, error) {
	const op = "storage.mysql.GetAllIndicatorsAdmin"

	return s.queryIndicators(ctx, op, `SELECT `+indicatorColumns+` FROM indicators ORDER BY code`)
}

func (s *Storage) queryIndicators(ctx context.Context, op, query string) ([]*storage.Indicator, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var indicators []*storage.Indicator

	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		indicators = append(indicators, ind)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return indicators, nil
}

func (s *Storage) CreateIndicatorAdmin(ctx context.Context, ind storage.IndicatorAdmin) (int64, error) {
	const op = "storage.mysql.CreateIndicatorAdmin"

	stmt := `INSERT INTO indicators (code, name_km, name_en, baseline_percentage, target_percentage,
            is_reduction_target, calculation_rules, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, ind.Code, ind.NameKM, ind.NameEN, ind.BaselinePercentage,
		ind.TargetPercentage, ind.IsReductionTarget, ind.Rules, ind.IsActive)
	if err != nil {
		if isMySQLError(err, errDuplicateEntry) {
			return 0, fmt.Errorf("%s: индикатор с code='%s' уже существует: %w", op, ind.Code, storage.ErrConflict)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения индикатора в базу: %w", op, err)
	}

	return res.LastInsertId()
}

func (s *Storage) UpdateIndicatorAdmin(ctx context.Context, code string, ind storage.IndicatorAdmin) error {
	const op = "storage.mysql.UpdateIndicatorAdmin"

	stmt := `UPDATE indicators SET name_km=?, name_en=?, baseline_percentage=?, target_percentage=?,
            is_reduction_target=?, calculation_rules=?, is_active=?, updated_at=CURRENT_TIMESTAMP WHERE code=?`

	res, err := s.db.ExecContext(ctx, stmt, ind.NameKM, ind.NameEN, ind.BaselinePercentage, ind.TargetPercentage,
		ind.IsReductionTarget, ind.Rules, ind.IsActive, code)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления индикатора: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: индикатор с code='%s' не найден: %w", op, code, storage.ErrNotFound)
	}

	return nil
}
