package mysql

import (
	"context"
	"fmt"
	"strings"

	"mne-tracker/internal/storage"
)

// GetContentTexts тексты по ключам; пустой список ключей возвращает все тексты.
func (s *Storage) GetContentTexts(ctx context.Context, keys []string) ([]storage.ContentText, error) {
	const op = "storage.mysql.GetContentTexts"

	query := `SELECT content_key, text_km, text_en, updated_at FROM content_texts`
	args := make([]any, 0, len(keys))
	if len(keys) > 0 {
		query += ` WHERE content_key IN (?` + strings.Repeat(", ?", len(keys)-1) + `)`
		for _, k := range keys {
			args = append(args, k)
		}
	}
	query += ` ORDER BY content_key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var texts []storage.ContentText

	for rows.Next() {
		var t storage.ContentText

		if err := rows.Scan(&t.Key, &t.TextKM, &t.TextEN, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		texts = append(texts, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return texts, nil
}

func (s *Storage) UpsertContentText(ctx context.Context, text storage.ContentText) error {
	const op = "storage.mysql.UpsertContentText"

	stmt := `
		INSERT INTO content_texts (content_key, text_km, text_en)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			text_km = VALUES(text_km),
			text_en = VALUES(text_en),
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, stmt, text.Key, text.TextKM, text.TextEN); err != nil {
		return fmt.Errorf("%s: ошибка сохранения текста '%s': %w", op, text.Key, err)
	}

	return nil
}
