package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mne-tracker/http-server/admin/save"
	"mne-tracker/http-server/response"
	"mne-tracker/internal/service/catalog"
	"mne-tracker/internal/storage"
)

type IndicatorUpdater interface {
	UpdateIndicator(ctx context.Context, code string, in catalog.IndicatorInput) error
}

type ContentUpdater interface {
	Update(ctx context.Context, text storage.ContentText) error
}

// UpdateIndicatorAdmin код берётся из пути, поле code в теле игнорируется
func UpdateIndicatorAdmin(log *slog.Logger, updater IndicatorUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateIndicatorAdmin"

		code := chi.URLParam(r, "code")
		if code == "" {
			response.BadRequest(w, r, "Missing indicator code")
			return
		}

		// code в теле необязателен
		req := save.IndicatorRequest{Code: code}
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.UpdateIndicator(ctx, code, req.Input()); err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type ContentRequest struct {
	TextKM string `json:"text_km" validate:"required"`
	TextEN string `json:"text_en" validate:"required"`
}

func UpdateContentAdmin(log *slog.Logger, updater ContentUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateContentAdmin"

		key := chi.URLParam(r, "key")
		if key == "" {
			response.BadRequest(w, r, "Missing content key")
			return
		}

		var req ContentRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := updater.Update(ctx, storage.ContentText{Key: key, TextKM: req.TextKM, TextEN: req.TextEN})
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
