package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/avatar"
	"github.com/oakmont-labs/memberhub/pkg/lineauth"
	"github.com/oakmont-labs/memberhub/pkg/middleware"
	"github.com/oakmont-labs/memberhub/pkg/observability"
	"github.com/oakmont-labs/memberhub/pkg/session"
	"github.com/oakmont-labs/memberhub/pkg/store"
	"github.com/oakmont-labs/memberhub/pkg/webhooks"
)

// Server owns the HTTP surface of the portal.
type Server struct {
	store         *store.Store
	sessions      *session.Manager
	guard         *middleware.Guard
	authenticator *auth.Authenticator
	lineFlow      *lineauth.Flow
	notifier      *webhooks.Notifier
	avatars       *avatar.Store
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewServer wires the handlers. lineFlow, notifier and avatars may be
// nil when the corresponding feature is not configured.
func NewServer(
	st *store.Store,
	sessions *session.Manager,
	authenticator *auth.Authenticator,
	lineFlow *lineauth.Flow,
	notifier *webhooks.Notifier,
	avatars *avatar.Store,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		store:         st,
		sessions:      sessions,
		guard:         middleware.NewGuard(sessions),
		authenticator: authenticator,
		lineFlow:      lineFlow,
		notifier:      notifier,
		avatars:       avatars,
		logger:        logger,
		metrics:       metrics,
	}
}

// Router builds the application router with the full middleware chain
// and guard layout.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(mux.MiddlewareFunc(middleware.Recover(s.logger)))
	r.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}

	authHandlers := NewAuthHandlers(s.authenticator, s.sessions, s.logger, s.metrics)
	mainHandlers := NewMainHandlers(s.store, s.sessions)
	adminHandlers := NewAdminHandlers(s.store)
	memberHandlers := NewMemberHandlers(s.store)
	productHandlers := NewProductHandlers(s.notifier)

	// Public surface.
	r.HandleFunc("/", mainHandlers.index).Methods("GET")
	r.HandleFunc("/login", authHandlers.loginPage).Methods("GET")
	r.HandleFunc("/auth", authHandlers.login).Methods("POST")
	r.HandleFunc("/logout", authHandlers.logout).Methods("GET")

	if s.lineFlow != nil {
		r.HandleFunc("/auth/line/login", s.lineFlow.Initiate).Methods("GET")
		r.HandleFunc("/auth/line/callback", s.lineFlow.Callback).Methods("GET")
		r.HandleFunc("/auth/line/register", s.lineFlow.RegisterForm).Methods("GET")
		r.HandleFunc("/auth/line/register", s.lineFlow.Register).Methods("POST")
	}

	if s.avatars != nil {
		r.PathPrefix("/avatars/").Handler(
			http.StripPrefix("/avatars/", http.FileServer(http.Dir(s.avatars.Dir()))))
	}

	// Authenticated surface.
	authed := r.NewRoute().Subrouter()
	authed.Use(mux.MiddlewareFunc(s.guard.RequireAuth))
	authed.HandleFunc("/dashboard", mainHandlers.dashboard).Methods("GET")
	authed.HandleFunc("/profile", mainHandlers.profile).Methods("GET")
	authed.Handle("/profile/update",
		s.guard.RequirePermission("edit_own_profile")(http.HandlerFunc(mainHandlers.updateProfile))).Methods("POST")
	authed.Handle("/member/list",
		s.guard.RequirePermission("view_member_list")(http.HandlerFunc(memberHandlers.list))).Methods("GET")
	authed.Handle("/products",
		s.guard.RequirePermission("add_products")(http.HandlerFunc(productHandlers.form))).Methods("GET")
	authed.Handle("/products/add",
		s.guard.RequirePermission("add_products")(http.HandlerFunc(productHandlers.add))).Methods("POST")

	// Admin surface.
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(s.guard.RequireAuth))
	admin.Use(mux.MiddlewareFunc(s.guard.RequireAdmin))
	adminHandlers.RegisterRoutes(admin)

	return r
}

// HealthRouter builds the ops router served on the separate health
// port: liveness, readiness and Prometheus metrics.
func (s *Server) HealthRouter(checker *observability.HealthChecker) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", checker.Liveness).Methods("GET")
	r.HandleFunc("/readyz", checker.Readiness).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}
