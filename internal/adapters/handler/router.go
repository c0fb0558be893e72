package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/middleware"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/metrics"
)

type RouterConfig struct {
	Auth           *AuthHandler
	Records        *RecordsHandler
	Notifications  *NotificationsHandler
	Health         *HealthHandler
	Guard          *middleware.AuthMiddleware
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

var staff = []domain.Role{domain.RoleMedico, domain.RoleEnfermera, domain.RoleAdmin}

// NewRouter wires every endpoint of the portal API behind the guard.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(cfg.Guard.Authenticate)

	// Health endpoints (OpenShift compatible)
	r.Get("/health", cfg.Health.Health)
	r.Get("/health/ready", cfg.Health.Ready)
	r.Get("/health/live", cfg.Health.Live)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Post("/login", cfg.Auth.Login)
	r.Get("/access", cfg.Auth.Access)

	anyRole := cfg.Guard.RequireRole()
	onlyStaff := cfg.Guard.RequireRole(staff...)
	onlyAdmin := cfg.Guard.RequireRole(domain.RoleAdmin)

	r.With(anyRole).Post("/logout", cfg.Auth.Logout)
	r.With(anyRole).Get("/session", cfg.Auth.Session)

	r.Route("/api", func(r chi.Router) {
		r.Route("/patients", func(r chi.Router) {
			r.Use(onlyStaff)
			r.Get("/", cfg.Records.ListPatients)
			r.Post("/", cfg.Records.CreatePatient)
			r.Get("/{id}", cfg.Records.GetPatient)
			r.Put("/{id}", cfg.Records.UpdatePatient)
			r.Delete("/{id}", cfg.Records.DeletePatient)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(cfg.Guard.RequireRole(domain.RoleAdmin, domain.RoleFamiliar)).Get("/", cfg.Records.ListPayments)
			r.Group(func(r chi.Router) {
				r.Use(onlyAdmin)
				r.Post("/", cfg.Records.CreatePayment)
				r.Put("/{id}", cfg.Records.UpdatePayment)
				r.Delete("/{id}", cfg.Records.DeletePayment)
				r.Post("/{id}/pay", cfg.Records.PayPayment)
				r.Post("/{id}/overdue", cfg.Records.MarkPaymentOverdue)
			})
		})

		r.Route("/requisitions", func(r chi.Router) {
			r.Use(onlyStaff)
			r.Get("/", cfg.Records.ListRequisitions)
			r.Post("/", cfg.Records.CreateRequisition)
			r.Put("/{id}", cfg.Records.UpdateRequisition)
			r.Delete("/{id}", cfg.Records.DeleteRequisition)
			r.Post("/{id}/approve", cfg.Records.ApproveRequisition)
			r.Post("/{id}/reject", cfg.Records.RejectRequisition)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(anyRole).Get("/", cfg.Records.ListEvents)
			r.With(anyRole).Get("/{id}", cfg.Records.GetEvent)
			r.Group(func(r chi.Router) {
				r.Use(onlyStaff)
				r.Post("/", cfg.Records.CreateEvent)
				r.Put("/{id}", cfg.Records.UpdateEvent)
				r.Delete("/{id}", cfg.Records.DeleteEvent)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.With(anyRole).Get("/", cfg.Notifications.List)
			r.With(onlyStaff).Post("/", cfg.Notifications.Push)
			r.With(anyRole).Post("/read", cfg.Notifications.MarkRead)
			r.With(anyRole).Post("/{id}/read", cfg.Notifications.MarkOneRead)
		})
	})

	return r
}
