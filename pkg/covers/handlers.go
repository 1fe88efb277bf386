package covers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	cache *Cache
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	result := h.cache.GetImage(ctx, c.Param("isbnOrId"))
	if result.Error != "" {
		switch {
		case result.Cooldown:
			return errcodes.Unavailable(result.Error)
		case result.NotFound, result.Error == msgNoCoverURL:
			return errcodes.NotFound("Image")
		default:
			return errcodes.Unavailable(result.Error)
		}
	}
	defer result.Stream.Close()

	contentType := result.MimeType()
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	if result.FromCache {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}

	return errors.WithStack(c.Stream(http.StatusOK, contentType, result.Stream))
}
