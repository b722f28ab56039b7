package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raterudder/froniuscollector/pkg/log"
)

var errForbiddenEmail = errors.New("email not allowed")

// authorizeUpdate checks the bearer token of an update request. Every request
// is allowed when no audience is configured.
func (s *Server) authorizeUpdate(r *http.Request) (int, error) {
	if s.updateVerifier == nil {
		return http.StatusOK, nil
	}
	ctx := r.Context()

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return http.StatusUnauthorized, errors.New("missing authorization header")
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return http.StatusUnauthorized, errors.New("invalid authorization header")
	}

	idToken, err := s.updateVerifier(ctx, token)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "update token validation failed", slog.Any("error", err))
		return http.StatusUnauthorized, errors.New("invalid id token")
	}
	if len(s.updateEmails) == 0 {
		return http.StatusOK, nil
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		log.Ctx(ctx).WarnContext(ctx, "invalid email in id token", slog.Any("error", err))
		return http.StatusForbidden, errors.New("invalid token claims")
	}
	if !claims.EmailVerified {
		log.Ctx(ctx).WarnContext(ctx, "unverified email in id token", slog.String("email", claims.Email))
		return http.StatusForbidden, errors.New("email not verified")
	}
	for _, email := range s.updateEmails {
		if subtle.ConstantTimeCompare([]byte(claims.Email), []byte(email)) == 1 {
			return http.StatusOK, nil
		}
	}
	log.Ctx(ctx).WarnContext(ctx, "unauthorized email for update", slog.String("email", claims.Email))
	return http.StatusForbidden, errForbiddenEmail
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if code, err := s.authorizeUpdate(r); err != nil {
		writeJSONError(w, err.Error(), code)
		return
	}

	res := s.collector.Trigger(ctx)
	if !res.Connected {
		writeJSONError(w, res.Error, http.StatusBadGateway)
		return
	}
	if res.WriteError != "" {
		writeJSONError(w, res.WriteError, http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).DebugContext(ctx, "update finished", slog.Int("points", len(res.Points)), slog.Bool("ok", res.OK()))
	writeJSON(w, http.StatusOK, res)
}
