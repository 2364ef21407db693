package get

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/constants"
	"mne-tracker/internal/service/dashboard"
)

type DashboardProvider interface {
	IndicatorDashboard(ctx context.Context, filter dashboard.IndicatorFilter) ([]dashboard.IndicatorSummary, error)
	PartnerDashboard(ctx context.Context, filter dashboard.PartnerFilter) ([]dashboard.PartnerSummary, error)
}

// GetIndicatorDashboard ?code=EDU-01,HLT-02 ограничивает список индикаторов
func GetIndicatorDashboard(log *slog.Logger, provider DashboardProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.GetIndicatorDashboard"

		filter := dashboard.IndicatorFilter{Codes: splitList(r.URL.Query().Get("code"))}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summaries, err := provider.IndicatorDashboard(ctx, filter)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if summaries == nil {
			summaries = []dashboard.IndicatorSummary{}
		}

		response.OK(w, r, summaries)
	}
}

func GetPartnerDashboard(log *slog.Logger, provider DashboardProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.GetPartnerDashboard"

		q := r.URL.Query()
		filter := dashboard.PartnerFilter{
			Health:         strings.ToLower(strings.TrimSpace(q.Get("health"))),
			ContractStatus: strings.ToLower(strings.TrimSpace(q.Get("status"))),
		}

		switch filter.Health {
		case "", constants.OverallGreen, constants.OverallYellow, constants.OverallRed:
		default:
			response.BadRequest(w, r, "health must be one of: green, yellow, red")
			return
		}
		if filter.ContractStatus != "" && !constants.ContractStatuses[filter.ContractStatus] {
			response.BadRequest(w, r, "unknown contract status")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summaries, err := provider.PartnerDashboard(ctx, filter)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if summaries == nil {
			summaries = []dashboard.PartnerSummary{}
		}

		response.OK(w, r, summaries)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
