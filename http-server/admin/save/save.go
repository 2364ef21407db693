package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/middleware/auth"
	"mne-tracker/internal/rules"
	"mne-tracker/internal/service/catalog"
)

type IndicatorCreator interface {
	CreateIndicator(ctx context.Context, in catalog.IndicatorInput) (int64, error)
}

// IndicatorRequest общее тело для создания и обновления индикатора.
// Число правил проверяет сервис, чтобы ошибка указывала на поле.
type IndicatorRequest struct {
	Code               string       `json:"code" validate:"required,max=32"`
	NameKM             string       `json:"name_km" validate:"required"`
	NameEN             string       `json:"name_en" validate:"required"`
	BaselinePercentage *float64     `json:"baseline_percentage" validate:"required,gte=0,lte=100"`
	TargetPercentage   *float64     `json:"target_percentage" validate:"required,gte=0,lte=100"`
	IsReductionTarget  bool         `json:"is_reduction_target"`
	CalculationRules   []rules.Rule `json:"calculation_rules" validate:"required"`
	IsActive           *bool        `json:"is_active"`
}

func (req IndicatorRequest) Input() catalog.IndicatorInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return catalog.IndicatorInput{
		Code:               req.Code,
		NameKM:             req.NameKM,
		NameEN:             req.NameEN,
		BaselinePercentage: *req.BaselinePercentage,
		TargetPercentage:   *req.TargetPercentage,
		IsReductionTarget:  req.IsReductionTarget,
		Rules:              req.CalculationRules,
		IsActive:           active,
	}
}

func SaveIndicatorAdmin(log *slog.Logger, creator IndicatorCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SaveIndicatorAdmin"

		var req IndicatorRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := creator.CreateIndicator(ctx, req.Input())
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.Created(w, r, map[string]any{"id": id, "code": req.Code})
	}
}

type TokenIssuer func(userID uuid.UUID, role auth.Role) (string, error)

type TokenRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=viewer partner officer admin"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// IssueToken выдаёт JWT для пользователя фронтенда. Только через basic auth админки.
func IssueToken(log *slog.Logger, issue TokenIssuer, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.IssueToken"

		var req TokenRequest
		if !response.Decode(w, r, &req) {
			return
		}

		// оба значения уже проверены валидатором
		userID := uuid.MustParse(req.UserID)
		role, _ := auth.ParseRole(req.Role)

		token, err := issue(userID, role)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		log.Info("token issued",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("role", role.String()),
		)

		response.OK(w, r, TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(ttl.Seconds()),
		})
	}
}
