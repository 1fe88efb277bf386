package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// NovelStaging is one denormalized feed row per discrete format. The table is
// truncated before every load and only read by the merge.
type NovelStaging struct {
	bun.BaseModel `bun:"table:novel_staging,alias:ns"`

	ID            int64     `bun:",pk,autoincrement" json:"-"`
	Series        string    `json:"series"`
	SeriesSlug    string    `json:"series_slug"`
	Publisher     string    `json:"publisher"`
	PublisherSlug string    `json:"publisher_slug"`
	URL           string    `bun:"url" json:"url"`
	Title         string    `json:"title"`
	Volume        string    `bun:"volume" json:"volume"`
	Format        Format    `bun:"format" json:"format"`
	ISBN          *string   `bun:"isbn" json:"isbn,omitempty"`
	ReleaseDate   time.Time `json:"release_date"`
	Hash          string    `json:"hash"`
}

// PublicationHash fingerprints the identity of a publication. ISBN and URL are
// left out so that corrections to them update the existing row.
func PublicationHash(seriesSlug, volume, title, publisherSlug string, format Format) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		seriesSlug,
		volume,
		title,
		publisherSlug,
		strconv.Itoa(int(format)),
	}, "\x1f")))
	return hex.EncodeToString(sum[:])
}
