package publications

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes mounts search on /novels and single lookups on
// /publications.
func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		publicationService: NewService(db),
	}

	e.GET("/novels", h.search)
	e.POST("/novels", h.search)
	e.GET("/publications/:id", h.retrieve)
}

// RegisterMetaRoutes registers the format list under a meta group.
func RegisterMetaRoutes(g *echo.Group) {
	g.GET("/formats", formats)
}
