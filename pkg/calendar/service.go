package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/robinjoseph08/golib/logger"
)

// Searcher is the slice of the publication service the calendar needs.
type Searcher interface {
	Search(ctx context.Context, filter publications.Filter, skipPagination bool) (*publications.SearchResult, error)
}

type PublicationCalendar = Result[*publications.HydratedPublication, uuid.UUID]

type Service struct {
	searcher Searcher
}

func NewService(searcher Searcher) *Service {
	return &Service{searcher}
}

// CalendarizeWeek lays out the Sunday to Saturday week containing date.
func (svc *Service) CalendarizeWeek(ctx context.Context, filter publications.Filter, date Date) (*PublicationCalendar, error) {
	return svc.calendarize(ctx, filter, StartOfWeek(date), EndOfWeek(date))
}

// CalendarizeMonth lays out the month containing date, widened to whole
// weeks on both sides.
func (svc *Service) CalendarizeMonth(ctx context.Context, filter publications.Filter, date Date) (*PublicationCalendar, error) {
	return svc.calendarize(ctx, filter, StartOfWeek(StartOfMonth(date)), EndOfWeek(EndOfMonth(date)))
}

func (svc *Service) calendarize(ctx context.Context, filter publications.Filter, start, end Date) (*PublicationCalendar, error) {
	filter.Start = &start.Time
	filter.End = &end.Time

	result, err := svc.searcher.Search(ctx, filter, true)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("calendarized", logger.Data{"start": start.String(), "end": end.String(), "total": result.Total})

	return Calendarize(
		result.Results,
		func(p *publications.HydratedPublication) uuid.UUID { return p.Entity.ID },
		func(p *publications.HydratedPublication) time.Time { return p.Entity.ReleaseDate },
		DefaultChunk,
		start,
		end,
	), nil
}
