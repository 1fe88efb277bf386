package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lnrelease/lnc/pkg/calendar"
	"github.com/lnrelease/lnc/pkg/config"
	"github.com/lnrelease/lnc/pkg/covers"
	"github.com/lnrelease/lnc/pkg/database"
	"github.com/lnrelease/lnc/pkg/migrations"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/lnrelease/lnc/pkg/publishers"
	"github.com/lnrelease/lnc/pkg/version"
	"github.com/lnrelease/lnc/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

type env struct {
	cfg *config.Config
	db  *bun.DB
	out io.Writer
}

type action func(ctx context.Context, c *cli.Context, env *env) error

var actions = map[string]action{
	"load":           loadAction,
	"search":         searchAction,
	"calendar week":  calendarAction(weekView),
	"calendar month": calendarAction(monthView),
	"covers process": coversProcessAction,
	"covers get":     coversGetAction,
	"publishers":     publishersAction,
}

func main() {
	log := logger.New()

	searchFlags := []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "first release date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end", Usage: "last release date (YYYY-MM-DD)"},
		&cli.StringSliceFlag{Name: "publisher", Usage: "publisher id"},
		&cli.StringFlag{Name: "released", Usage: "true for released, false for upcoming"},
		&cli.IntSliceFlag{Name: "format", Usage: "format (0 physical, 1 digital, 2 audio)"},
		&cli.StringSliceFlag{Name: "isbn", Usage: "ISBN"},
		&cli.StringFlag{Name: "search", Usage: "series or volume title"},
		&cli.BoolFlag{Name: "asc", Usage: "oldest first"},
	}

	app := &cli.App{
		Name:    "lnc",
		Usage:   "light novel release catalog",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "log database queries"},
		},
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "fetch the feed and merge it into the catalog",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "out", Usage: "write the result JSON to this file"}},
				Action: run("load"),
			},
			{
				Name:  "search",
				Usage: "search publications",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: publications.DefaultPageSize},
					&cli.BoolFlag{Name: "all", Usage: "return every match without paging"},
				}, searchFlags...),
				Action: run("search"),
			},
			{
				Name:  "calendar",
				Usage: "lay out publications on a calendar",
				Subcommands: []*cli.Command{
					{Name: "week", ArgsUsage: "DATE", Flags: searchFlags, Action: run("calendar week")},
					{Name: "month", ArgsUsage: "DATE", Flags: searchFlags, Action: run("calendar month")},
				},
			},
			{
				Name:  "covers",
				Usage: "manage the cover cache",
				Subcommands: []*cli.Command{
					{Name: "process", Usage: "look up covers for every ISBN without one", Action: run("covers process")},
					{
						Name:      "get",
						Usage:     "fetch a cover image",
						ArgsUsage: "ISBN",
						Flags:     []cli.Flag{&cli.StringFlag{Name: "out", Usage: "write the image to this file"}},
						Action:    run("covers get"),
					},
				},
			},
			{
				Name:   "publishers",
				Usage:  "list publishers",
				Action: run("publishers"),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("lnc error")
	}
}

// run opens the database, brings it up to date and invokes the named action
// with a context that is cancelled on SIGINT or SIGTERM.
func run(name string) cli.ActionFunc {
	return func(c *cli.Context) error {
		fn, ok := actions[name]
		if !ok {
			return errors.Errorf("unknown action %q", name)
		}

		cfg, err := config.New()
		if err != nil {
			return err
		}
		db, err := database.New(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(logger.New().WithContext(c.Context))
		defer cancel()
		if c.Bool("debug") {
			ctx = database.WithLogging(ctx)
		}
		graceful := signals.Setup()
		go func() {
			select {
			case <-graceful:
				cancel()
			case <-ctx.Done():
			}
		}()

		if _, err := migrations.BringUpToDate(ctx, db); err != nil {
			return err
		}

		return fn(ctx, c, &env{cfg: cfg, db: db, out: os.Stdout})
	}
}

func loadAction(ctx context.Context, c *cli.Context, env *env) error {
	result, err := worker.New(env.cfg, env.db).RunRefresh(ctx)
	if err != nil {
		return err
	}

	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		return writeJSON(f, result)
	}
	return writeJSON(env.out, result)
}

func searchAction(ctx context.Context, c *cli.Context, env *env) error {
	filter, err := searchFilter(c)
	if err != nil {
		return err
	}
	filter.Page = c.Int("page")
	filter.Size = c.Int("size")

	result, err := publications.NewService(env.db).Search(ctx, filter, c.Bool("all"))
	if err != nil {
		return err
	}
	return writeJSON(env.out, result)
}

type view int

const (
	weekView view = iota
	monthView
)

func calendarAction(v view) action {
	return func(ctx context.Context, c *cli.Context, env *env) error {
		date, err := calendar.ParseDate(c.Args().First())
		if err != nil {
			return errors.Errorf("expected a date in the format of YYYY-MM-DD, got %q", c.Args().First())
		}
		filter, err := searchFilter(c)
		if err != nil {
			return err
		}

		svc := calendar.NewService(publications.NewService(env.db))
		var result *calendar.PublicationCalendar
		if v == weekView {
			result, err = svc.CalendarizeWeek(ctx, filter, date)
		} else {
			result, err = svc.CalendarizeMonth(ctx, filter, date)
		}
		if err != nil {
			return err
		}
		return writeJSON(env.out, result)
	}
}

func coversProcessAction(ctx context.Context, _ *cli.Context, env *env) error {
	job, err := worker.New(env.cfg, env.db).Run(ctx, models.JobTypeCovers)
	if err != nil {
		return err
	}
	return writeJSON(env.out, job)
}

func coversGetAction(ctx context.Context, c *cli.Context, env *env) error {
	isbn := c.Args().First()
	if isbn == "" {
		return errors.New("an ISBN is required")
	}
	if env.cfg.CoversURL == "" {
		return worker.ErrCoversDisabled
	}

	cache := covers.NewCacheFromConfig(env.cfg, env.db)
	result := cache.GetImage(ctx, isbn)
	if result.NotFound && cache.CacheCoverImage(ctx, isbn) {
		result = cache.GetImage(ctx, isbn)
	}
	if result.Error != "" {
		return errors.New(result.Error)
	}
	defer result.Stream.Close()

	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		if _, err := io.Copy(f, result.Stream); err != nil {
			return errors.WithStack(err)
		}
	}

	return writeJSON(env.out, map[string]interface{}{
		"mime_type":  result.MimeType(),
		"width":      result.Width(),
		"height":     result.Height(),
		"from_cache": result.FromCache,
	})
}

func publishersAction(ctx context.Context, _ *cli.Context, env *env) error {
	list, err := publishers.NewService(env.db).ListPublishers(ctx, publishers.ListPublishersOptions{})
	if err != nil {
		return err
	}
	for _, p := range list {
		fmt.Fprintf(env.out, "%s\t%s\t%s\n", p.ID, p.Slug, p.Name)
	}
	return nil
}

func searchFilter(c *cli.Context) (publications.Filter, error) {
	q := publications.SearchQuery{
		Start:     c.String("start"),
		End:       c.String("end"),
		Publisher: c.StringSlice("publisher"),
		Format:    c.IntSlice("format"),
		ISBN:      c.StringSlice("isbn"),
		Asc:       c.Bool("asc"),
	}
	if s := c.String("search"); s != "" {
		q.Search = &s
	}
	switch c.String("released") {
	case "":
	case "true":
		released := true
		q.Released = &released
	case "false":
		released := false
		q.Released = &released
	default:
		return publications.Filter{}, errors.New(`"released" must be true or false`)
	}
	return q.Filter()
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return errors.WithStack(err)
}
