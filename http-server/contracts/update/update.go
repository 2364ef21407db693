package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mne-tracker/http-server/response"
	"mne-tracker/internal/storage"
)

type ContractSigner interface {
	Sign(ctx context.Context, contractID int64) (*storage.Contract, error)
}

// SignContract переводит черновик в signed. Тело запроса не нужно.
func SignContract(log *slog.Logger, signer ContractSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.SignContract"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		c, err := signer.Sign(ctx, id)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		log.Info("contract signed",
			slog.String("op", op),
			slog.Int64("contract_id", c.ID),
		)

		response.OK(w, r, c)
	}
}
