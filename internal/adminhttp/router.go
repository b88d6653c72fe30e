package adminhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kstepanov/bombardier/internal/controller"
)

// NewRouter wires the four control-surface routes from SPEC_FULL.md's
// AMBIENT CONTROL SURFACE section onto a chi.Router, following the
// teacher's handler.go route-table shape (chi.NewRouter + chained
// middleware, one route per admin operation).
func NewRouter(c *controller.Controller) http.Handler {
	h := NewHandler(c)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(WithLogging)
	r.Use(gzipMiddleware)

	r.Route("/services", func(r chi.Router) {
		r.Post("/stop-all", h.StopAllTests)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetTestingFlowForService)
			r.Post("/start", h.StartTestingForService)
			r.Post("/stop", h.StopTestByServiceName)
		})
	})

	return r
}
