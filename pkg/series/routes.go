package series

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers series routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		seriesService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
}

// RegisterVolumeRoutes registers volume lookups on a pre-configured group.
func RegisterVolumeRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		seriesService: NewService(db),
	}

	g.GET("/:id", h.retrieveVolume)
}
