// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router
// wrapped in middleware.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → rateLimit → router → per-route metrics
//
// Endpoints:
//
//	GET    /api/plants            – filtered, sorted, paginated listing
//	POST   /api/plants            – create a plant
//	GET    /api/plants/:id        – one plant with zones and seasons
//	PUT    /api/plants/:id        – replace a plant
//	DELETE /api/plants/:id        – delete a plant
//	POST   /api/plants/:id/image  – upload the plant's image (multipart)
//	GET    /api/plants/:id/image  – image bytes, signed URL or redirect
//	GET    /api/blobs/:key        – signed blob download
//	GET    /api/zones             – hardiness zones
//	GET    /api/bloom-seasons     – bloom seasons
//	GET    /healthz               – liveness
//	GET    /metrics               – Prometheus exposition
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	app.handle(router, http.MethodGet, "/api/plants", app.listPlantsHandler)
	app.handle(router, http.MethodPost, "/api/plants", app.createPlantHandler)
	app.handle(router, http.MethodGet, "/api/plants/:id", app.showPlantHandler)
	app.handle(router, http.MethodPut, "/api/plants/:id", app.updatePlantHandler)
	app.handle(router, http.MethodDelete, "/api/plants/:id", app.deletePlantHandler)
	app.handle(router, http.MethodPost, "/api/plants/:id/image", app.uploadPlantImageHandler)
	app.handle(router, http.MethodGet, "/api/plants/:id/image", app.showPlantImageHandler)
	app.handle(router, http.MethodGet, "/api/blobs/:key", app.showBlobHandler)

	app.handle(router, http.MethodGet, "/api/zones", app.listZonesHandler)
	app.handle(router, http.MethodGet, "/api/bloom-seasons", app.listBloomSeasonsHandler)

	app.handle(router, http.MethodGet, "/healthz", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", app.metrics.handler())

	return app.recoverPanic(app.rateLimit(router))
}

// handle registers fn on router with request metrics labelled by path.
func (app *applicationDependencies) handle(router *httprouter.Router, method, path string, fn http.HandlerFunc) {
	router.Handler(method, path, app.metrics.instrument(path, fn))
}
