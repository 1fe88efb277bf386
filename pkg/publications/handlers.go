package publications

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/binder"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	publicationService *Service
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	c.Set(binder.DisallowEmptyBody, false)
	params := SearchQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	filter, err := params.Filter()
	if err != nil {
		return errors.WithStack(err)
	}

	result, err := h.publicationService.Search(ctx, filter, false)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Publication")
	}

	publication, err := h.publicationService.RetrieveWithRelationships(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, publication))
}

type formatOption struct {
	Value models.Format `json:"value"`
	Name  string        `json:"name"`
}

func formats(c echo.Context) error {
	options := make([]formatOption, 0, len(models.Formats))
	for _, entry := range models.Formats {
		options = append(options, formatOption{entry.Format, entry.Format.String()})
	}
	return errors.WithStack(c.JSON(http.StatusOK, options))
}
