package refresh

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/jobs"
	"github.com/pkg/errors"
)

// Runner runs a refresh unless one is already in progress, in which case it
// returns jobs.ErrAlreadyRunning.
type Runner interface {
	RunRefresh(ctx context.Context) (*Result, error)
}

type handler struct {
	runner Runner
}

func (h *handler) refresh(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.runner.RunRefresh(ctx)
	if errors.Is(err, jobs.ErrAlreadyRunning) {
		return errcodes.Conflict("A refresh is already running.")
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
