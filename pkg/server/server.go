package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lnrelease/lnc/pkg/binder"
	"github.com/lnrelease/lnc/pkg/calendar"
	"github.com/lnrelease/lnc/pkg/config"
	"github.com/lnrelease/lnc/pkg/covers"
	"github.com/lnrelease/lnc/pkg/database"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/jobs"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/lnrelease/lnc/pkg/publishers"
	"github.com/lnrelease/lnc/pkg/refresh"
	"github.com/lnrelease/lnc/pkg/search"
	"github.com/lnrelease/lnc/pkg/series"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, runner refresh.Runner) (*http.Server, error) {
	e, err := newEcho(cfg, db, runner)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, runner refresh.Runner) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())
	if cfg.DatabaseDebug {
		e.Use(queryLogging)
	}

	health.RegisterRoutes(e)
	config.RegisterRoutes(e, cfg)

	registerRoutes(e, cfg, db, runner)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func registerRoutes(e *echo.Echo, cfg *config.Config, db *bun.DB, runner refresh.Runner) {
	publications.RegisterRoutes(e, db)

	novelsGroup := e.Group("/novels")
	refresh.RegisterRoutesWithGroup(novelsGroup, runner)
	calendar.RegisterRoutesWithGroup(novelsGroup.Group("/calendar"), db)

	series.RegisterRoutesWithGroup(e.Group("/series"), db)
	series.RegisterVolumeRoutes(e.Group("/volumes"), db)
	publishers.RegisterRoutesWithGroup(e.Group("/publishers"), db)

	metaGroup := e.Group("/meta")
	publishers.RegisterMetaRoutes(metaGroup, db)
	publications.RegisterMetaRoutes(metaGroup)

	covers.RegisterRoutesWithGroup(e.Group("/covers"), covers.NewCacheFromConfig(cfg, db))
	jobs.RegisterRoutesWithGroup(e.Group("/jobs"), db)
	search.RegisterRoutesWithGroup(e.Group("/search"), db)
}

// queryLogging turns on query logging for everything a request runs.
func queryLogging(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		c.SetRequest(req.WithContext(database.WithLogging(req.Context())))
		return next(c)
	}
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
