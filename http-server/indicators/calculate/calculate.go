package calculate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/service/target"
)

type TargetCalculator interface {
	Calculate(ctx context.Context, code string, baseline float64, custom *float64) (*target.Result, error)
}

type Request struct {
	IndicatorCode   string   `json:"indicator_code" validate:"required"`
	PartnerBaseline *float64 `json:"partner_baseline" validate:"required,gte=0,lte=100"`
	CustomTarget    *float64 `json:"custom_target,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func CalculateTarget(log *slog.Logger, calc TargetCalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.indicators.CalculateTarget"

		var req Request
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := calc.Calculate(ctx, req.IndicatorCode, *req.PartnerBaseline, req.CustomTarget)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.OK(w, r, res)
	}
}
