package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/middleware/auth"
	"mne-tracker/internal/service/contract"
	"mne-tracker/internal/storage"
)

const dateLayout = "2006-01-02"

type ContractCreator interface {
	Create(ctx context.Context, c storage.Contract) (*storage.Contract, error)
}

type IndicatorConfigurator interface {
	ConfigureIndicators(ctx context.Context, contractID int64, selections []contract.IndicatorSelection, reconfigure bool) ([]storage.ContractIndicator, error)
}

type MilestoneCreator interface {
	AddMilestone(ctx context.Context, contractID int64, m storage.Milestone) (*storage.Milestone, error)
}

type CreateRequest struct {
	ContractNumber string `json:"contract_number" validate:"required,max=64"`
	PartnerID      int64  `json:"partner_id" validate:"required,gt=0"`
	PartnerNameKM  string `json:"partner_name_km" validate:"required"`
	PartnerNameEN  string `json:"partner_name_en" validate:"required"`
}

func CreateContract(log *slog.Logger, svc ContractCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.CreateContract"

		var req CreateRequest
		if !response.Decode(w, r, &req) {
			return
		}

		c := storage.Contract{
			ContractNumber: req.ContractNumber,
			PartnerID:      req.PartnerID,
			PartnerNameKM:  req.PartnerNameKM,
			PartnerNameEN:  req.PartnerNameEN,
		}
		if p, ok := auth.PrincipalFrom(r.Context()); ok {
			c.CreatedBy = p.Login
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		created, err := svc.Create(ctx, c)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		log.Info("contract created",
			slog.String("op", op),
			slog.Int64("contract_id", created.ID),
			slog.String("contract_number", created.ContractNumber),
		)

		response.Created(w, r, created)
	}
}

type IndicatorItem struct {
	IndicatorCode   string   `json:"indicator_code" validate:"required"`
	PartnerBaseline *float64 `json:"partner_baseline" validate:"required,gte=0,lte=100"`
	CustomTarget    *float64 `json:"custom_target,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type IndicatorsRequest struct {
	Indicators []IndicatorItem `json:"indicators" validate:"required,min=1,dive"`
}

func (req IndicatorsRequest) selections() []contract.IndicatorSelection {
	out := make([]contract.IndicatorSelection, 0, len(req.Indicators))
	for _, it := range req.Indicators {
		out = append(out, contract.IndicatorSelection{
			IndicatorCode:   it.IndicatorCode,
			PartnerBaseline: *it.PartnerBaseline,
			CustomTarget:    it.CustomTarget,
		})
	}
	return out
}

// ConfigureIndicators POST /api/contracts/{id}/indicators, только для черновика.
// Тот же обработчик с reconfigure=true обслуживает PUT .../indicators/reconfigure.
func ConfigureIndicators(log *slog.Logger, svc IndicatorConfigurator, reconfigure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.ConfigureIndicators"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req IndicatorsRequest
		if !response.Decode(w, r, &req) {
			return
		}

		seen := make(map[string]bool, len(req.Indicators))
		for _, it := range req.Indicators {
			if seen[it.IndicatorCode] {
				response.BadRequest(w, r, "Duplicate indicator_code "+it.IndicatorCode)
				return
			}
			seen[it.IndicatorCode] = true
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		cis, err := svc.ConfigureIndicators(ctx, id, req.selections(), reconfigure)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.OK(w, r, cis)
	}
}

type MilestoneRequest struct {
	IndicatorID      int64    `json:"indicator_id" validate:"required,gt=0"`
	TitleKM          string   `json:"title_km" validate:"required"`
	TitleEN          string   `json:"title_en" validate:"required"`
	PlannedStartDate string   `json:"planned_start_date" validate:"required,datetime=2006-01-02"`
	PlannedEndDate   string   `json:"planned_end_date" validate:"required,datetime=2006-01-02"`
	BaselineValue    *float64 `json:"baseline_value" validate:"required"`
	TargetValue      *float64 `json:"target_value" validate:"required"`
}

func AddMilestone(log *slog.Logger, svc MilestoneCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.AddMilestone"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req MilestoneRequest
		if !response.Decode(w, r, &req) {
			return
		}

		// формат уже проверен тегом datetime
		start, _ := time.Parse(dateLayout, req.PlannedStartDate)
		end, _ := time.Parse(dateLayout, req.PlannedEndDate)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		m, err := svc.AddMilestone(ctx, id, storage.Milestone{
			IndicatorID:      req.IndicatorID,
			TitleKM:          req.TitleKM,
			TitleEN:          req.TitleEN,
			PlannedStartDate: start,
			PlannedEndDate:   end,
			BaselineValue:    *req.BaselineValue,
			TargetValue:      *req.TargetValue,
		})
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.Created(w, r, m)
	}
}
