package publishers

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers publisher routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		publisherService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
}

// RegisterMetaRoutes registers the publisher picker list under a meta group.
func RegisterMetaRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		publisherService: NewService(db),
	}

	g.GET("/publishers", h.metaList)
}
