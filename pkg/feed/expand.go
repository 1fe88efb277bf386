package feed

import (
	"iter"

	"github.com/lnrelease/lnc/pkg/models"
)

// Expand returns one staging row per format bit set on n. A novel with no
// defined bits yields no rows.
func Expand(n *Novel) []*models.NovelStaging {
	formats := n.Format.Split()
	rows := make([]*models.NovelStaging, 0, len(formats))
	for _, format := range formats {
		rows = append(rows, &models.NovelStaging{
			Series:        n.Series,
			SeriesSlug:    n.SeriesSlug,
			Publisher:     n.Publisher,
			PublisherSlug: n.PublisherSlug,
			URL:           n.URL,
			Title:         n.Title,
			Volume:        n.Volume,
			Format:        format,
			ISBN:          n.ISBN,
			ReleaseDate:   n.ReleaseDate,
			Hash:          models.PublicationHash(n.SeriesSlug, n.Volume, n.Title, n.PublisherSlug, format),
		})
	}
	return rows
}

// ExpandAll expands every novel of seq, passing the first decode error
// through and stopping.
func ExpandAll(seq iter.Seq2[*Novel, error]) iter.Seq2[*models.NovelStaging, error] {
	return func(yield func(*models.NovelStaging, error) bool) {
		for n, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range Expand(n) {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}
