package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mne-tracker/internal/storage"
)

const milestoneColumns = `id, contract_id, indicator_id, title_km, title_en, planned_start_date, planned_end_date,
	actual_start_date, actual_end_date, baseline_value, target_value, achievement_percentage,
	overall_status, health_indicator, created_at`

func scanMilestone(row rowScanner) (storage.Milestone, error) {
	var (
		m                storage.Milestone
		actStart, actEnd sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.ContractID,
		&m.IndicatorID,
		&m.TitleKM,
		&m.TitleEN,
		&m.PlannedStartDate,
		&m.PlannedEndDate,
		&actStart,
		&actEnd,
		&m.BaselineValue,
		&m.TargetValue,
		&m.AchievementPercentage,
		&m.OverallStatus,
		&m.HealthIndicator,
		&m.CreatedAt,
	)
	if err != nil {
		return m, err
	}

	if actStart.Valid {
		m.ActualStartDate = &actStart.Time
	}
	if actEnd.Valid {
		m.ActualEndDate = &actEnd.Time
	}

	return m, nil
}

func (s *Storage) CreateMilestone(ctx context.Context, m storage.Milestone) (int64, error) {
	const op = "storage.mysql.CreateMilestone"

	stmt := `INSERT INTO milestones (contract_id, indicator_id, title_km, title_en, planned_start_date, planned_end_date,
            baseline_value, target_value, achievement_percentage, overall_status, health_indicator)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, m.ContractID, m.IndicatorID, m.TitleKM, m.TitleEN, m.PlannedStartDate,
		m.PlannedEndDate, m.BaselineValue, m.TargetValue, m.AchievementPercentage, m.OverallStatus, m.HealthIndicator)
	if err != nil {
		if isMySQLError(err, errNoReferenced) {
			return 0, fmt.Errorf("%s: контракт или индикатор не существует: %w", op, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения вехи в базу: %w", op, err)
	}

	return res.LastInsertId()
}

func (s *Storage) GetMilestoneByID(ctx context.Context, id int64) (*storage.Milestone, error) {
	const op = "storage.mysql.GetMilestoneByID"

	m, err := scanMilestone(s.db.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: веха id=%d не найдена: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) GetMilestonesByContract(ctx context.Context, contractID int64) ([]storage.Milestone, error) {
	const op = "storage.mysql.GetMilestonesByContract"

	return s.queryMilestones(ctx, op, `SELECT `+milestoneColumns+` FROM milestones WHERE contract_id = ? ORDER BY planned_end_date, id`, contractID)
}

func (s *Storage) GetAllMilestones(ctx context.Context) ([]storage.Milestone, error) {
	const op = "storage.mysql.GetAllMilestones"

	return s.queryMilestones(ctx, op, `SELECT `+milestoneColumns+` FROM milestones ORDER BY id`)
}

func (s *Storage) queryMilestones(ctx context.Context, op, query string, args ...any) ([]storage.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var milestones []storage.Milestone

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		milestones = append(milestones, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return milestones, nil
}

// SaveProgressReport пишет отчёт и новое состояние вехи в одной транзакции.
func (s *Storage) SaveProgressReport(ctx context.Context, report storage.ProgressReport, progress storage.MilestoneProgress) (int64, error) {
	const op = "storage.mysql.SaveProgressReport"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO progress_reports (contract_id, milestone_id, reporting_date, actual_value, note)
		VALUES (?, ?, ?, ?, ?)
	`, report.ContractID, report.MilestoneID, report.ReportingDate, report.ActualValue, report.Note)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения отчёта о прогрессе: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	upd, err := tx.ExecContext(ctx, `
		UPDATE milestones
		SET achievement_percentage = ?, overall_status = ?, health_indicator = ?, actual_start_date = ?, actual_end_date = ?
		WHERE id = ?
	`, progress.AchievementPercentage, progress.OverallStatus, progress.HealthIndicator,
		progress.ActualStartDate, progress.ActualEndDate, progress.MilestoneID)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка обновления вехи: %w", op, err)
	}

	n, err := upd.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: веха id=%d не найдена: %w", op, progress.MilestoneID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return id, nil
}

// GetLatestReports последний отчёт по каждому контракту.
func (s *Storage) GetLatestReports(ctx context.Context) ([]storage.ProgressReport, error) {
	const op = "storage.mysql.GetLatestReports"

	query := `
		SELECT pr.id, pr.contract_id, pr.milestone_id, pr.reporting_date, pr.actual_value, pr.note, pr.created_at
		FROM progress_reports pr
		JOIN (
			SELECT contract_id, MAX(reporting_date) AS last_date
			FROM progress_reports
			GROUP BY contract_id
		) latest ON latest.contract_id = pr.contract_id AND latest.last_date = pr.reporting_date
		ORDER BY pr.contract_id, pr.id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reports []storage.ProgressReport

	for rows.Next() {
		var r storage.ProgressReport

		err := rows.Scan(&r.ID, &r.ContractID, &r.MilestoneID, &r.ReportingDate, &r.ActualValue, &r.Note, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		reports = append(reports, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return reports, nil
}
