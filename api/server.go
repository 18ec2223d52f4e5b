package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"argus-console/api/handlers"
	"argus-console/config"
	"argus-console/core/mail"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
)

// Deps collects everything the HTTP layer needs. The composition root in
// cmd/ fills it in from config and the database.
type Deps struct {
	Config *config.AppConfig
	Users  store.UsersStore
	Roles  store.RolesStore
	Audits store.AuditStore
	Policy *rbac.Policy
	Mailer mail.Mailer
	Logger *utils.Logger
}

type Server struct {
	cfg    *config.AppConfig
	logger *utils.Logger
	router chi.Router
	http   *http.Server
}

func NewServer(d Deps) *Server {
	s := &Server{
		cfg:    d.Config,
		logger: d.Logger,
	}

	h := handlers.New(handlers.Deps{
		Config: d.Config,
		Users:  d.Users,
		Roles:  d.Roles,
		Audits: d.Audits,
		Policy: d.Policy,
		Mailer: d.Mailer,
		Logger: d.Logger,
	})

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	r.Route("/user", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/get-users", h.GetUsers)
		r.Post("/get-user/{id}", h.GetUser)
		r.Post("/update-user", h.UpdateUser)
		r.Post("/update-users", h.UpdateUsers)
		r.Post("/set-role", h.SetRole)
		r.Post("/do-reset-password", h.ResetPassword)
		r.Post("/upload-import", h.UploadImport)
		r.Post("/get-role-list", h.GetRoleList)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Printf("listening on %s", s.cfg.ListenAddr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
