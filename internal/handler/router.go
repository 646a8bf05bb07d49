package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	cardhandler "github.com/Urbandonment/trophy-forge/internal/handler/card"
	imageproxyhandler "github.com/Urbandonment/trophy-forge/internal/handler/imageproxy"
	profilehandler "github.com/Urbandonment/trophy-forge/internal/handler/profile"
	middlewarePkg "github.com/Urbandonment/trophy-forge/internal/middleware"
	"github.com/Urbandonment/trophy-forge/pkg/utils"
)

// Services groups everything the router wires into handlers.
type Services struct {
	Profiles profilehandler.ProfileService
	Pipeline imageproxyhandler.Pipeline
	Captures cardhandler.CaptureService
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	profileHandler := profilehandler.New(svcs.Profiles)
	proxyHandler := imageproxyhandler.New(svcs.Pipeline)
	cardHandler := cardhandler.New(svcs.Profiles, svcs.Captures)

	r.Route("/api", func(api chi.Router) {
		profileHandler.RegisterRoutes(api)
		proxyHandler.RegisterRoutes(api)
		cardHandler.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
