package publications

import (
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
)

// SearchQuery is accepted both as query params on GET and as a JSON body on
// POST.
type SearchQuery struct {
	Start     string   `query:"start" json:"start,omitempty" validate:"omitempty,date"`
	End       string   `query:"end" json:"end,omitempty" validate:"omitempty,date"`
	Publisher []string `query:"publisher" json:"publisher,omitempty" validate:"omitempty,dive,uuid"`
	Released  *bool    `query:"released" json:"released,omitempty"`
	Format    []int    `query:"format" json:"format,omitempty" validate:"omitempty,dive,min=0,max=2"`
	ISBN      []string `query:"isbn" json:"isbn,omitempty" validate:"omitempty,dive,isbn"`
	Search    *string  `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=100"`
	Asc       bool     `query:"asc" json:"asc,omitempty"`
	Page      int      `query:"page" json:"page,omitempty"`
	Size      int      `query:"size" json:"size,omitempty"`
}

// Filter converts validated params into a search filter.
func (q SearchQuery) Filter() (Filter, error) {
	f := Filter{
		Released: q.Released,
		ISBNs:    q.ISBN,
		Asc:      q.Asc,
		Page:     q.Page,
		Size:     q.Size,
	}

	if q.Start != "" {
		start, err := time.Parse(time.DateOnly, q.Start)
		if err != nil {
			return f, errcodes.ValidationError(`"start" should be in the format of YYYY-MM-DD`)
		}
		f.Start = &start
	}
	if q.End != "" {
		end, err := time.Parse(time.DateOnly, q.End)
		if err != nil {
			return f, errcodes.ValidationError(`"end" should be in the format of YYYY-MM-DD`)
		}
		f.End = &end
	}
	for _, raw := range q.Publisher {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errcodes.ValidationError(`"publisher" is not a valid ID`)
		}
		f.PublisherIDs = append(f.PublisherIDs, id)
	}
	for _, format := range q.Format {
		f.Formats = append(f.Formats, models.Format(format))
	}
	if q.Search != nil {
		f.Search = *q.Search
	}

	return f, nil
}
