package calculate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/request"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/middleware/auth"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/service/conditions"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type ConditionsCalculator interface {
	CalculateConditions(ctx context.Context, req conditions.CalculateRequest, performingUserID uuid.UUID) (storage.ConditionsResponse, error)
}

type Request struct {
	Operations []storage.RestockingOperationDetails `json:"operations"`
	IsDraft    bool                                 `json:"is_draft"`
}

func CalculateConditions(log *slog.Logger, calc ConditionsCalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conditions.CalculateConditions"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		applicationID, err := request.ApplicationID(r)
		if err != nil {
			log.Warn("invalid application id", slog.String("error", err.Error()))
			http.Error(w, "Invalid application id", http.StatusBadRequest)
			return
		}

		userID, ok := auth.UserID(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("failed to decode request", slog.String("error", err.Error()))
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp, err := calc.CalculateConditions(ctx, conditions.CalculateRequest{
			ApplicationID: applicationID,
			Operations:    req.Operations,
			IsDraft:       req.IsDraft,
		}, userID)
		if err != nil {
			var calcErr *conditions.CalculationError
			if errors.Is(err, conditions.ErrInvalidInput) || errors.As(err, &calcErr) {
				log.Warn("conditions could not be calculated",
					slog.String("application_id", applicationID.String()),
					slog.String("error", err.Error()),
				)
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}

			log.Error("failed to calculate conditions",
				slog.String("application_id", applicationID.String()),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, resp)
	}
}
