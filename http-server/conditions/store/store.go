package store

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/request"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/middleware/auth"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type ConditionsStorer interface {
	StoreConditions(ctx context.Context, applicationID uuid.UUID, conditions []storage.CalculatedCondition, performingUserID uuid.UUID) error
}

type Request struct {
	Conditions []storage.CalculatedCondition `json:"conditions"`
}

func StoreConditions(log *slog.Logger, storer ConditionsStorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conditions.StoreConditions"

		applicationID, err := request.ApplicationID(r)
		if err != nil {
			log.With(slog.String("op", op)).Warn("invalid application id", slog.String("error", err.Error()))
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
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		for _, c := range req.Conditions {
			if len(c.AppliesToSubmittedCompartmentIDs) == 0 {
				http.Error(w, "Every condition must apply to at least one compartment", http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := storer.StoreConditions(ctx, applicationID, req.Conditions, userID); err != nil {
			log.With(
				slog.String("op", op),
				slog.String("application_id", applicationID.String()),
				slog.String("error", err.Error()),
			).Error("failed to store conditions")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
