package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes exposes the public config. The config never changes after
// startup so it is resolved once here.
func RegisterRoutes(e *echo.Echo, cfg *Config) {
	h := &handler{public: NewService(cfg).RetrievePublicConfig()}

	e.GET("/config", h.retrieve)
}
