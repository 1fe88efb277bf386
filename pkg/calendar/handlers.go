package calendar

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/pkg/errors"
)

type handler struct {
	calendarService *Service
}

func (h *handler) bind(c echo.Context) (publications.Filter, Date, error) {
	date, err := ParseDate(c.Param("date"))
	if err != nil {
		return publications.Filter{}, Date{}, errcodes.ValidationError(`"date" should be in the format of YYYY-MM-DD`)
	}

	params := publications.SearchQuery{}
	if err := c.Bind(&params); err != nil {
		return publications.Filter{}, Date{}, errors.WithStack(err)
	}

	filter, err := params.Filter()
	if err != nil {
		return publications.Filter{}, Date{}, errors.WithStack(err)
	}
	return filter, date, nil
}

func (h *handler) week(c echo.Context) error {
	filter, date, err := h.bind(c)
	if err != nil {
		return err
	}

	result, err := h.calendarService.CalendarizeWeek(c.Request().Context(), filter, date)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) month(c echo.Context) error {
	filter, date, err := h.bind(c)
	if err != nil {
		return err
	}

	result, err := h.calendarService.CalendarizeMonth(c.Request().Context(), filter, date)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
