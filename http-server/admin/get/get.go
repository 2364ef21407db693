package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/storage"
)

type AdminIndicatorProvider interface {
	Indicators(ctx context.Context) ([]*storage.Indicator, error)
}

// GetIndicatorsAdmin отдаёт и неактивные индикаторы
func GetIndicatorsAdmin(log *slog.Logger, provider AdminIndicatorProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.GetIndicatorsAdmin"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		inds, err := provider.Indicators(ctx)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if inds == nil {
			inds = []*storage.Indicator{}
		}

		response.OK(w, r, inds)
	}
}
