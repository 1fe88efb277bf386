package publications

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter narrows a publication search. Zero values leave a dimension
// unfiltered.
type Filter struct {
	Start        *time.Time
	End          *time.Time
	PublisherIDs []uuid.UUID
	Released     *bool
	Formats      []models.Format
	ISBNs        []string
	Search       string
	Asc          bool
	Page         int
	Size         int
}

// Pagination returns the page and size a search actually uses. When
// skipPagination is set the page is always 1 and size is unbounded (0). A
// zero size is treated as unset and gets DefaultPageSize.
func (f Filter) Pagination(skipPagination bool) (page, size int) {
	if skipPagination {
		return 1, 0
	}

	page = f.Page
	if page < 1 {
		page = 1
	}

	size = f.Size
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

// normalizedISBNs strips hyphens and drops anything empty.
func (f Filter) normalizedISBNs() []string {
	isbns := make([]string, 0, len(f.ISBNs))
	for _, isbn := range f.ISBNs {
		if n := models.NormalizeISBN(isbn); n != nil {
			isbns = append(isbns, *n)
		}
	}
	return isbns
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (f Filter) search() string {
	return strings.TrimSpace(f.Search)
}
