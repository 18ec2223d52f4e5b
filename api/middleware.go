package api

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"argus-console/core/auth"
	"argus-console/core/wire"
)

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeJSON(w, http.StatusInternalServerError, wire.NewResponse(wire.CodeFailed, "internal error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := ""
		if id, err := uuid.NewV4(); err == nil {
			reqID = id.String()
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %s (%s)", reqID, r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.OperatorToken != "" {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.OperatorToken)) != 1 {
				writeJSON(w, http.StatusUnauthorized, wire.NewResponse(wire.CodeForbidden, "unauthorized", nil))
				return
			}
		}
		op := &auth.Operator{
			Name:  r.Header.Get("X-Operator"),
			Roles: s.cfg.OperatorRoles,
		}
		if op.Name == "" {
			op.Name = "operator"
		}
		next.ServeHTTP(w, r.WithContext(auth.WithOperator(r.Context(), op)))
	})
}
