package covers

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutesWithGroup(g *echo.Group, cache *Cache) {
	h := &handler{cache: cache}

	g.GET("/:isbnOrId", h.retrieve)
}
