package refresh

import "github.com/labstack/echo/v4"

func RegisterRoutesWithGroup(g *echo.Group, runner Runner) {
	h := &handler{runner}

	g.POST("/refresh", h.refresh)
}
