package calendar

import (
	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		calendarService: NewService(publications.NewService(db)),
	}

	g.GET("/:date/week", h.week)
	g.GET("/:date/month", h.month)
}
