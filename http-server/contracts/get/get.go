package get

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/constants"
	"mne-tracker/internal/storage"
)

type ContractReader interface {
	Get(ctx context.Context, id int64) (*storage.Contract, error)
	List(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error)
	Milestones(ctx context.Context, contractID int64) ([]storage.Milestone, error)
}

// GetContracts ?status=active
func GetContracts(log *slog.Logger, reader ContractReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.GetContracts"

		status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
		if status != "" && !constants.ContractStatuses[status] {
			response.BadRequest(w, r, "unknown contract status")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contracts, err := reader.List(ctx, storage.ContractFilter{Status: status})
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if contracts == nil {
			contracts = []*storage.Contract{}
		}

		response.OK(w, r, contracts)
	}
}

func GetContract(log *slog.Logger, reader ContractReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.GetContract"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		c, err := reader.Get(ctx, id)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		response.OK(w, r, c)
	}
}

func GetMilestones(log *slog.Logger, reader ContractReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.GetMilestones"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		milestones, err := reader.Milestones(ctx, id)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}
		if milestones == nil {
			milestones = []storage.Milestone{}
		}

		response.OK(w, r, milestones)
	}
}
