package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/pkg/auth"
	"idp-backend/pkg/common"
)

// Authenticator resolves the API key a request presents to an
// authenticated principal. Keys arrive either as "Authorization: Bearer
// <key>" or in the X-API-Key header; only the key's hash ever reaches
// the repository.
type Authenticator struct {
	keys      ports.APIKeyRepository
	ipLimiter auth.RateLimiter
	logger    *zap.Logger
}

// NewAuthenticator creates a new Authenticator with a per-IP request
// limit in front of key lookup.
func NewAuthenticator(keys ports.APIKeyRepository, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		keys:      keys,
		ipLimiter: auth.NewIPRateLimiter(300),
		logger:    logger,
	}
}

// Authenticate rejects requests without a valid, active, unexpired API
// key and stores the resolved principal in the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := a.ipLimiter.Allow(r.Context(), clientIP(r))
		if err == nil && !allowed {
			common.RespondError(w, http.StatusTooManyRequests,
				"RATE_LIMITED", "Too many requests")
			return
		}

		raw := presentedKey(r)
		if raw == "" {
			common.RespondError(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "API key required")
			return
		}

		key, err := a.keys.FindByKeyHash(r.Context(), auth.HashKey(raw))
		if err != nil {
			a.logger.Error("API key lookup failed", zap.Error(err))
			common.RespondError(w, http.StatusInternalServerError,
				"INTERNAL", "Authentication unavailable")
			return
		}
		if key == nil || !key.IsValid() {
			common.RespondError(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "Invalid API key")
			return
		}

		ctx := common.WithPrincipal(r.Context(), common.Principal{
			KeyID:     key.ID,
			KeyName:   key.KeyName,
			KeyType:   string(key.KeyType),
			UserEmail: key.UserEmail,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// presentedKey extracts raw key material from the request.
func presentedKey(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
