package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
)

// callerHandler serves a request on behalf of an authenticated caller.
type callerHandler func(w http.ResponseWriter, r *http.Request, caller core.Caller)

// authenticated resolves the bearer token before calling h. Requests without
// a valid token never reach the services.
func (s *Server) authenticated(h callerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			UnauthorizedError(w, "authentication credentials were not provided")
			return
		}

		caller, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Token rejected",
					log.FieldPath, r.URL.Path,
					log.FieldError, err.Error(),
					log.FieldErrorType, log.ErrorTypeAuth)
				UnauthorizedError(w, "invalid or expired token")
				return
			}
			ErrorResponse(w, r, err)
			return
		}

		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, caller.String()))
		h(w, r.WithContext(ctx), caller)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func handleHelloPing(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, "<h1>Hello pong!</h1>")
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, "<h1>Hello world!</h1>")
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
