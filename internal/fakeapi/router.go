package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

// setupRouter creates the chi router with every backend route.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(s.observe)

	r.Post("/Home/Authorize", s.authorize)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Use(adminOnly)

		r.Route("/Users", func(r chi.Router) {
			r.Get("/ViewAll", s.listUsers)
			r.Get("/ViewById", s.getUser)
			r.Post("/Create", s.createUser)
			r.Post("/Update", s.updateUser)
			r.Get("/Status/Toggle", s.toggleUser)
		})

		r.Route("/Company", func(r chi.Router) {
			r.Get("/ViewAll", s.listCompanies)
			r.Get("/ViewById", s.getCompany)
			r.Post("/Create", s.createCompany)
			r.Post("/Update", s.updateCompany)
			r.Get("/Status/Toggle", s.toggleCompany)
			r.Get("/History", s.companyHistory)
		})

		r.Route("/Projects", func(r chi.Router) {
			r.Get("/ViewAll", s.listProjects)
			r.Get("/GetByCode", s.getProject)
			r.Post("/Create", s.createProject)
			r.Post("/Update", s.updateProject)
			r.Get("/Close", s.closeProject)
		})

		r.Route("/Phases", func(r chi.Router) {
			r.Get("/ViewAll", s.listPhases)
			r.Get("/GetByCode", s.getPhase)
			r.Post("/Create", s.createPhase)
			r.Post("/Update", s.updatePhase)
			r.Get("/Close", s.closePhase)
		})

		r.Route("/Issues", func(r chi.Router) {
			r.Get("/ViewAll", s.listIssues)
			r.Get("/GetByCode", s.getIssue)
			r.Post("/Create", s.createIssue)
			r.Post("/Update", s.updateIssue)
			r.Get("/Close", s.closeIssue)
		})

		r.Route("/Roles", func(r chi.Router) {
			r.Get("/List", s.listRoles)
			r.Post("/Create", s.createRole)
			r.Post("/Update", s.updateRole)
		})

		r.Route("/Claims", func(r chi.Router) {
			r.Get("/List", s.listClaims)
			r.Get("/GetByUser", s.getUserClaims)
			r.Post("/AddToUser", s.addUserClaims)
			r.Get("/GetByRole", s.getRoleClaims)
			r.Post("/AddToRole", s.addRoleClaims)
		})

		r.Post("/Documents/Upload", s.upload)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		OK(w, "", map[string]string{"status": "ok"})
	})

	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, metrics.Handler())
	}

	return r
}
