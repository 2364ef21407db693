package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	getadmin "mne-tracker/http-server/admin/get"
	saveadmin "mne-tracker/http-server/admin/save"
	upadmin "mne-tracker/http-server/admin/update"
	getcontent "mne-tracker/http-server/content/get"
	getcontract "mne-tracker/http-server/contracts/get"
	savecontract "mne-tracker/http-server/contracts/save"
	upcontract "mne-tracker/http-server/contracts/update"
	getdashboard "mne-tracker/http-server/dashboard/get"
	"mne-tracker/http-server/indicators/calculate"
	getindicator "mne-tracker/http-server/indicators/get"
	savemilestone "mne-tracker/http-server/milestones/save"
	"mne-tracker/internal/config"
	"mne-tracker/internal/metrics"
	"mne-tracker/internal/middleware/auth"
	"mne-tracker/internal/storage/mysql"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := storage.Ping(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.JWT(cfg.Auth.JWTSecret))

		// каталог индикаторов и расчёт цели
		r.With(auth.RequireCapability(auth.CapViewIndicators)).Get("/indicators", getindicator.GetIndicators(log, storage))
		r.With(auth.RequireCapability(auth.CapViewIndicators)).Get("/indicators/{code}", getindicator.GetIndicatorByCode(log, svc.targets))
		r.With(auth.RequireCapability(auth.CapCalculateTarget)).Post("/indicators/calculate-target", calculate.CalculateTarget(log, svc.targets))

		// дашборды
		r.With(auth.RequireCapability(auth.CapViewDashboard)).Get("/dashboard/indicators", getdashboard.GetIndicatorDashboard(log, svc.dashboard))
		r.With(auth.RequireCapability(auth.CapViewDashboard)).Get("/dashboard/partners", getdashboard.GetPartnerDashboard(log, svc.dashboard))

		// контракты
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireCapability(auth.CapViewContracts))
			r.Get("/contracts", getcontract.GetContracts(log, svc.contracts))
			r.Get("/contracts/{id}", getcontract.GetContract(log, svc.contracts))
			r.Get("/contracts/{id}/milestones", getcontract.GetMilestones(log, svc.contracts))
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireCapability(auth.CapManageContracts))
			r.Post("/contracts", savecontract.CreateContract(log, svc.contracts))
			r.Post("/contracts/{id}/indicators", savecontract.ConfigureIndicators(log, svc.contracts, false))
			r.Post("/contracts/{id}/sign", upcontract.SignContract(log, svc.contracts))
			r.Post("/contracts/{id}/milestones", savecontract.AddMilestone(log, svc.contracts))
		})
		r.With(auth.RequireCapability(auth.CapReconfigure)).
			Put("/contracts/{id}/indicators/reconfigure", savecontract.ConfigureIndicators(log, svc.contracts, true))

		r.With(auth.RequireCapability(auth.CapReportProgress)).Post("/milestones/{id}/reports", savemilestone.ReportProgress(log, svc.contracts))

		r.With(auth.RequireCapability(auth.CapViewContent)).Get("/content", getcontent.GetContent(log, svc.content))
	})

	issue := func(userID uuid.UUID, role auth.Role) (string, error) {
		return auth.NewToken(userID, role, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.Auth.AdminLogin, cfg.Auth.AdminPassHash))
	adminRouter.Use(auth.RequireCapability(auth.CapAdministerCatalogs))

	adminRouter.Get("/indicators", getadmin.GetIndicatorsAdmin(log, svc.catalog))
	adminRouter.Post("/indicators", saveadmin.SaveIndicatorAdmin(log, svc.catalog))
	adminRouter.Put("/indicators/{code}", upadmin.UpdateIndicatorAdmin(log, svc.catalog))
	adminRouter.Put("/content/{key}", upadmin.UpdateContentAdmin(log, svc.content))
	adminRouter.Post("/tokens", saveadmin.IssueToken(log, issue, cfg.Auth.TokenTTL))

	router.Mount("/api/admin", adminRouter)

	return router
}
