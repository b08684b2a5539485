package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// Reasons reported in the body of 401 responses.
const (
	ReasonMissingToken        = "missing_token"
	ReasonMalformedAuthHeader = "malformed_authorization"
	ReasonInvalidToken        = "invalid_token"
	ReasonTokenExpired        = "token_expired"
)

var reasonMessages = map[string]string{
	ReasonMissingToken:        "a bearer token is required",
	ReasonMalformedAuthHeader: "authorization header must use the Bearer scheme",
	ReasonInvalidToken:        "bearer token is invalid",
	ReasonTokenExpired:        "bearer token has expired",
}

// SetUserID returns a context carrying the authenticated user id.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RequireAuth authenticates the caller from the Authorization bearer token. The user id is
// stored in the request context for handlers and recorded on the access log entry. Rejected
// requests get a 401 naming the reason and a WWW-Authenticate challenge.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				challenge(w, reason)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				reason = ReasonInvalidToken
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = ReasonTokenExpired
				}
				logger.DebugContext(r.Context(), "bearer token rejected", "route", r.Pattern, "reason", reason, "err", err)
				challenge(w, reason)
				return
			}
			recordUserID(r.Context(), userID)
			next(w, r.WithContext(SetUserID(r.Context(), userID)))
		}
	}
}

// bearerToken extracts the token from an Authorization header value. The scheme is matched
// case-insensitively. A non-empty second result is the rejection reason.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", ReasonMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ReasonMalformedAuthHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ReasonMissingToken
	}
	return token, ""
}

func challenge(w http.ResponseWriter, reason string) {
	value := `Bearer realm="eventapi"`
	if reason == ReasonInvalidToken || reason == ReasonTokenExpired {
		value += `, error="invalid_token", error_description="` + reasonMessages[reason] + `"`
	}
	w.Header().Set("WWW-Authenticate", value)
	h.WriteUnauthorized(w, reason, reasonMessages[reason])
}
