package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/storage"
)

type IndicatorProvider interface {
	GetAllIndicators(ctx context.Context) ([]*storage.Indicator, error)
}

type IndicatorReader interface {
	Indicator(ctx context.Context, code string) (*storage.Indicator, error)
}

func GetIndicators(log *slog.Logger, provider IndicatorProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.indicators.GetIndicators"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		indicators, err := provider.GetAllIndicators(ctx)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		if indicators == nil {
			indicators = []*storage.Indicator{}
		}

		response.OK(w, r, indicators)
	}
}

// GetIndicatorByCode читает через кэш индикаторов.
func GetIndicatorByCode(log *slog.Logger, reader IndicatorReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.indicators.GetIndicatorByCode"

		code := chi.URLParam(r, "code")
		if code == "" {
			response.BadRequest(w, r, "Missing indicator code")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		ind, err := reader.Indicator(ctx, code)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.OK(w, r, ind)
	}
}
