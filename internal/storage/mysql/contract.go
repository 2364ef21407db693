package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mne-tracker/internal/storage"
)

func (s *Storage) CreateContract(ctx context.Context, c storage.Contract) (int64, error) {
	const op = "storage.mysql.CreateContract"

	stmt := `INSERT INTO contracts (contract_number, partner_id, partner_name_km, partner_name_en, status, signed_at, created_by)
            VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, c.ContractNumber, c.PartnerID, c.PartnerNameKM, c.PartnerNameEN,
		c.Status, c.SignedAt, c.CreatedBy)
	if err != nil {
		if isMySQLError(err, errDuplicateEntry) {
			return 0, fmt.Errorf("%s: контракт с номером '%s' уже существует: %w", op, c.ContractNumber, storage.ErrConflict)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения контракта в базу: %w", op, err)
	}

	return res.LastInsertId()
}

// GetContractByID возвращает контракт вместе с настроенными индикаторами.
func (s *Storage) GetContractByID(ctx context.Context, id int64) (*storage.Contract, error) {
	const op = "storage.mysql.GetContractByID"

	query := `
		SELECT id, contract_number, partner_id, partner_name_km, partner_name_en, status, signed_at, created_by, created_at
		FROM contracts
		WHERE id = ?
	`

	c := &storage.Contract{}
	var signedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.ContractNumber,
		&c.PartnerID,
		&c.PartnerNameKM,
		&c.PartnerNameEN,
		&c.Status,
		&signedAt,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: контракт id=%d не найден: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}
	if signedAt.Valid {
		c.SignedAt = &signedAt.Time
	}

	cis, err := s.queryContractIndicators(ctx, op, contractIndicatorQuery+` WHERE ci.contract_id = ? ORDER BY ci.id`, id)
	if err != nil {
		return nil, err
	}
	c.Indicators = cis

	return c, nil
}

func (s *Storage) GetContracts(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error) {
	const op = "storage.mysql.GetContracts"

	query := `SELECT id, contract_number, partner_id, partner_name_km, partner_name_en, status, signed_at, created_by, created_at
		FROM contracts`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var contracts []*storage.Contract

	for rows.Next() {
		c := &storage.Contract{}
		var signedAt sql.NullTime

		err := rows.Scan(&c.ID, &c.ContractNumber, &c.PartnerID, &c.PartnerNameKM, &c.PartnerNameEN,
			&c.Status, &signedAt, &c.CreatedBy, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		if signedAt.Valid {
			c.SignedAt = &signedAt.Time
		}

		contracts = append(contracts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return contracts, nil
}

func (s *Storage) UpdateContractStatus(ctx context.Context, id int64, status string, signedAt *time.Time) error {
	const op = "storage.mysql.UpdateContractStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE contracts SET status = ?, signed_at = COALESCE(?, signed_at) WHERE id = ?`,
		status, signedAt, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления статуса контракта: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: контракт id=%d не найден: %w", op, id, storage.ErrNotFound)
	}

	return nil
}
