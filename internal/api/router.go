package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "rehook/internal/api/context"
	"rehook/internal/api/handlers"
)

type Dependencies struct {
	HealthHandler *handlers.HealthHandler
	StatusHandler *handlers.StatusHandler
	RunsHandler   *handlers.RunsHandler
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Read-only status surface
	router.GET("/api/v1/status", wrap(deps.StatusHandler.Get))
	router.GET("/api/v1/runs", wrap(deps.RunsHandler.List))
	router.GET("/api/v1/runs/:run_id", wrap(deps.RunsHandler.Get))

	return router
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
