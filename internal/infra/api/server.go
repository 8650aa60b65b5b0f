package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"adtopia/internal/config"
	"adtopia/internal/domain/model"
	"adtopia/internal/usecase"
)

// Pinger is anything /healthz can probe: the pgx pool and the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles what the HTTP layer needs.
type Deps struct {
	Webhooks      usecase.WebhookUseCase
	Checkout      usecase.CheckoutUseCase
	Products      usecase.ProductUseCase
	ABTests       usecase.ABTestUseCase
	Analytics     usecase.AnalyticsUseCase
	Admins        usecase.AdminUseCase
	Agency        usecase.AgencyUseCase
	Notifications usecase.NotificationUseCase
	GTMM          usecase.GTMMUseCase

	Verifier       *TokenVerifier
	ServiceRoleKey string
	Health         map[string]Pinger
}

type Server struct {
	webhooks      usecase.WebhookUseCase
	checkout      usecase.CheckoutUseCase
	products      usecase.ProductUseCase
	abtests       usecase.ABTestUseCase
	analytics     usecase.AnalyticsUseCase
	admins        usecase.AdminUseCase
	agency        usecase.AgencyUseCase
	notifications usecase.NotificationUseCase
	gtmm          usecase.GTMMUseCase

	verifier   *TokenVerifier
	serviceKey string
	health     map[string]Pinger

	cfg      config.HTTPConfig
	validate *validator.Validate
	log      *zerolog.Logger
	srv      *http.Server
}

func NewServer(d Deps, cfg config.HTTPConfig, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		webhooks:      d.Webhooks,
		checkout:      d.Checkout,
		products:      d.Products,
		abtests:       d.ABTests,
		analytics:     d.Analytics,
		admins:        d.Admins,
		agency:        d.Agency,
		notifications: d.Notifications,
		gtmm:          d.GTMM,
		verifier:      d.Verifier,
		serviceKey:    d.ServiceRoleKey,
		health:        d.Health,
		cfg:           cfg,
		validate:      newValidator(),
		log:           &l,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(middleware.RealIP)
	r.Use(Metrics)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(s.cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/stripe", s.handleStripeWebhook)

		r.Get("/products", s.handleListProducts)
		r.Post("/checkout", s.handleCreateCheckout)
		r.Get("/checkout/{sessionID}", s.handleCheckoutStatus)
		r.Post("/ab-tests/{id}/assign", s.handleAssign)
		r.Post("/conversions", s.handleConversion)
		r.Post("/agency-partners/apply", s.handleAgencyApply)

		r.Group(func(r chi.Router) {
			r.Use(s.requireServiceRole)
			r.Post("/gtmm/{kind}", s.handleGTMM)
			r.Post("/notifications/email", s.handleSendEmail)
			r.Post("/notifications/sms", s.handleSendSMS)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin(model.RoleViewer))
				r.Get("/analytics", s.handleDashboard)
				r.Get("/products", s.handleAdminListProducts)
				r.Get("/purchases", s.handleListPurchases)
				r.Get("/ab-tests", s.handleListTests)
				r.Get("/ab-tests/{id}", s.handleGetTest)
				r.Get("/ab-tests/{id}/analytics", s.handleTestAnalytics)
				r.Get("/users", s.handleListAdmins)
				r.Get("/agency-partners", s.handleListPartners)
				r.Get("/agency-partners/{id}/commission", s.handleCommission)
				r.Get("/notifications", s.handleRecentNotifications)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin(model.RoleAdmin))
				r.Patch("/products/{id}", s.handleUpdateProduct)
				r.Post("/products/sync", s.handleSyncProducts)
				r.Post("/ab-tests", s.handleCreateTest)
				r.Put("/ab-tests/{id}/status", s.handleSetTestStatus)
				r.Put("/users", s.handleGrantAdmin)
				r.Delete("/users/{userID}", s.handleRevokeAdmin)
				r.Patch("/agency-partners/{id}", s.handleUpdatePartner)
				r.Put("/agency-partners/{id}/status", s.handleSetPartnerStatus)
			})
		})
	})
	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.health))
	healthy := true
	for name, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}
	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": checks})
}
