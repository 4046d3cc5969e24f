package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/http-server/conditions/request"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type ConditionsRetriever interface {
	RetrieveExistingConditions(ctx context.Context, applicationID uuid.UUID) (storage.ConditionsResponse, error)
}

func GetConditions(log *slog.Logger, retriever ConditionsRetriever) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conditions.GetConditions"

		applicationID, err := request.ApplicationID(r)
		if err != nil {
			http.Error(w, "Invalid application id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp, err := retriever.RetrieveExistingConditions(ctx, applicationID)
		if err != nil {
			log.With(
				slog.String("op", op),
				slog.String("application_id", applicationID.String()),
				slog.String("error", err.Error()),
			).Error("failed to retrieve conditions")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, resp)
	}
}
