package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/service/contract"
	"mne-tracker/internal/storage"
)

type ProgressReporter interface {
	ReportProgress(ctx context.Context, milestoneID int64, in contract.ReportInput) (*storage.Milestone, error)
}

type ReportRequest struct {
	ReportingDate string   `json:"reporting_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ActualValue   *float64 `json:"actual_value" validate:"required"`
	// пусто: статус выводится автоматически
	Status string `json:"status,omitempty" validate:"omitempty,oneof=not_started in_progress delayed completed"`
	Note   string `json:"note,omitempty" validate:"max=2000"`
}

func ReportProgress(log *slog.Logger, reporter ProgressReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.milestones.ReportProgress"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req ReportRequest
		if !response.Decode(w, r, &req) {
			return
		}

		in := contract.ReportInput{
			ActualValue: *req.ActualValue,
			Status:      req.Status,
			Note:        req.Note,
		}
		if req.ReportingDate != "" {
			in.ReportingDate, _ = time.Parse("2006-01-02", req.ReportingDate)
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		m, err := reporter.ReportProgress(ctx, id, in)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		log.Info("progress reported",
			slog.String("op", op),
			slog.Int64("milestone_id", m.ID),
			slog.String("status", m.OverallStatus),
			slog.String("health", m.HealthIndicator),
		)

		response.Created(w, r, m)
	}
}
