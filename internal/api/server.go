package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
)

const maxUpload = "20M"

// NewServer wires the middleware chain and every route.
func NewServer(svc *liquidacion.Service, visitOpts sheet.Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(RequestID())
	e.Use(Recovery(log))
	e.Use(Logger(log))
	e.Use(echomw.BodyLimit(maxUpload))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	NewHandler(svc, visitOpts).RegisterRoutes(e.Group("/api/v1"))
	return e
}
