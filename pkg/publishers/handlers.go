package publishers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	publisherService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	publisher, err := h.publisherService.RetrievePublisherByIDOrSlug(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, publisher))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListPublishersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	publishers, total, err := h.publisherService.ListPublishersWithTotal(ctx, ListPublishersOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Publishers []*models.Publisher `json:"publishers"`
		Total      int                 `json:"total"`
	}{publishers, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// metaList returns every publisher for filter pickers.
func (h *handler) metaList(c echo.Context) error {
	ctx := c.Request().Context()

	publishers, err := h.publisherService.ListPublishers(ctx, ListPublishersOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, publishers))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdatePublisherPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	publisher, err := h.publisherService.RetrievePublisherByIDOrSlug(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdatePublisherOptions{Columns: []string{}}
	if params.IconURL != nil {
		publisher.IconURL = emptyToNil(*params.IconURL)
		opts.Columns = append(opts.Columns, "icon_url")
	}
	if params.Website != nil {
		publisher.Website = emptyToNil(*params.Website)
		opts.Columns = append(opts.Columns, "website")
	}

	err = h.publisherService.UpdatePublisher(ctx, publisher, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, publisher))
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
