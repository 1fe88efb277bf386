package search

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	svc *Service
}

// typeahead answers GET /search?q=...&limit=... with a few matches per entity
// type.
func (h *handler) typeahead(c echo.Context) error {
	q := GlobalSearchQuery{}
	if err := c.Bind(&q); err != nil {
		return errors.WithStack(err)
	}

	resp, err := h.svc.GlobalSearch(c.Request().Context(), GlobalSearchOptions{
		Query: q.Query,
		Limit: q.Limit,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
