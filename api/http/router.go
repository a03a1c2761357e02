package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artem13815/pagegen/api/http/handlers"
)

// Options controls the operational routes.
type Options struct {
	// OpsPrefix is where health, metrics and docs live, e.g. "/_".
	OpsPrefix      string
	SwaggerEnabled bool
}

// Register wires all HTTP routes onto given Fiber app. Operational routes
// are registered first; every other GET is a generated page.
func Register(app *fiber.App, opts Options, health *handlers.HealthHandler, page *handlers.PageHandler) {
	ops := app.Group(opts.OpsPrefix)

	// Health and readiness endpoints for probes/monitoring
	ops.Get("/health", health.Health)
	ops.Get("/ready", health.Ready)
	ops.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if opts.SwaggerEnabled {
		ops.Get("/swagger/*", swagger.HandlerDefault)
	}

	app.Get("/favicon.ico", page.Favicon)
	app.Get("/", page.Page)
	app.Get("/*", page.Page)
}
