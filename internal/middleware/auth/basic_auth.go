package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/config"
)

type ctxKey struct{}

type account struct {
	password string
	id       uuid.UUID
}

// BasicAuth admits configured users and stores the authenticated user's id in the request context.
// Users with an unparsable id are skipped.
func BasicAuth(users []config.User) func(http.Handler) http.Handler {
	accounts := make(map[string]account, len(users))
	for _, u := range users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			continue
		}
		accounts[u.Login] = account{password: u.Password, id: id}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login, password, ok := r.BasicAuth()
			if !ok {
				requireAuth(w)
				return
			}

			acc, found := accounts[login]
			if !found || subtle.ConstantTimeCompare([]byte(acc.password), []byte(password)) != 1 {
				requireAuth(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, acc.id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user's id.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}

// WithUserID stores id as the authenticated user.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Felling Licence Conditions"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
