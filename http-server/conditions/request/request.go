package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ApplicationID parses the {applicationID} URL parameter.
func ApplicationID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "applicationID"))
}
