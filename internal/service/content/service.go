package content

import (
	"context"
	"fmt"
	"log/slog"

	"mne-tracker/internal/metrics"
	"mne-tracker/internal/storage"
)

type ContentStorage interface {
	GetContentTexts(ctx context.Context, keys []string) ([]storage.ContentText, error)
	UpsertContentText(ctx context.Context, text storage.ContentText) error
}

type Cache interface {
	Get(ctx context.Context, key string, target any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type ContentService struct {
	storage ContentStorage
	cache   Cache
	log     *slog.Logger
}

func NewContentService(storage ContentStorage, cache Cache, log *slog.Logger) *ContentService {
	return &ContentService{storage: storage, cache: cache, log: log}
}

func contentKey(key string) string {
	return "content:" + key
}

// Texts собирает тексты по ключам: сначала кэш, недостающие одним запросом в базу.
// Ключи без записи в базе просто отсутствуют в ответе.
func (s *ContentService) Texts(ctx context.Context, keys []string) (map[string]storage.ContentText, error) {
	const op = "service.content.Texts"

	out := make(map[string]storage.ContentText, len(keys))

	if len(keys) == 0 {
		texts, err := s.storage.GetContentTexts(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, t := range texts {
			out[t.Key] = t
		}
		return out, nil
	}

	var missing []string
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true

		var t storage.ContentText
		found, err := s.cache.Get(ctx, contentKey(k), &t)
		if err != nil {
			s.log.Warn("content cache read failed", slog.String("op", op), slog.String("key", k), slog.String("error", err.Error()))
		}
		metrics.RecordCacheLookup("content", found)

		if found {
			out[k] = t
			continue
		}
		missing = append(missing, k)
	}

	if len(missing) == 0 {
		return out, nil
	}

	texts, err := s.storage.GetContentTexts(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, t := range texts {
		out[t.Key] = t
		if err := s.cache.Set(ctx, contentKey(t.Key), t); err != nil {
			s.log.Warn("content cache write failed", slog.String("op", op), slog.String("key", t.Key), slog.String("error", err.Error()))
		}
	}

	return out, nil
}

// Update сохраняет текст и сбрасывает его кэш.
func (s *ContentService) Update(ctx context.Context, text storage.ContentText) error {
	const op = "service.content.Update"

	if err := s.storage.UpsertContentText(ctx, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Delete(ctx, contentKey(text.Key)); err != nil {
		return fmt.Errorf("%s: invalidate cache: %w", op, err)
	}

	return nil
}
