package mw

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

const (
	HeaderOwner = "X-Daylog-Owner"
	HeaderToken = "X-Daylog-Token"
)

type ownerKey struct{}

// RequireOwner binds the request to the owner named in X-Daylog-Owner.
// When token is set, X-Daylog-Token must match it. Failures answer 401.
func RequireOwner(token string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := domain.Owner(strings.TrimSpace(r.Header.Get(HeaderOwner)))
			if owner == "" {
				// browsers cannot set headers on a websocket upgrade
				owner = domain.Owner(strings.TrimSpace(r.URL.Query().Get("owner")))
			}
			if err := owner.Validate(); err != nil {
				unauthorized(w, err.Error())
				return
			}

			if token != "" {
				got := r.Header.Get(HeaderToken)
				if got == "" {
					got = r.URL.Query().Get("token")
				}
				if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
					log.Debug("owner token rejected", logger.String("owner", owner.String()))
					unauthorized(w, "invalid token")
					return
				}
			}

			setLogOwner(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
		})
	}
}

// OwnerFrom returns the owner bound by RequireOwner, empty if none
func OwnerFrom(ctx context.Context) domain.Owner {
	owner, _ := ctx.Value(ownerKey{}).(domain.Owner)
	return owner
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
