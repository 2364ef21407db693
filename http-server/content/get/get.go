package get

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/storage"
)

type ContentProvider interface {
	Texts(ctx context.Context, keys []string) (map[string]storage.ContentText, error)
}

// GetContent ?keys=a,b; без ключей отдаются все тексты
func GetContent(log *slog.Logger, provider ContentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.content.GetContent"

		var keys []string
		for _, k := range strings.Split(r.URL.Query().Get("keys"), ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		texts, err := provider.Texts(ctx, keys)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if texts == nil {
			texts = map[string]storage.ContentText{}
		}

		response.OK(w, r, texts)
	}
}
