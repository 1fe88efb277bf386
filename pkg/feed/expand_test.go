package feed

import (
	"testing"
	"time"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func novel(format models.FormatFlags) *Novel {
	isbn := "9798855407150"
	return &Novel{
		Series:        "Overlord",
		SeriesSlug:    "overlord",
		Publisher:     "Yen Press",
		PublisherSlug: "yen-press",
		URL:           "https://example.com",
		Title:         "Overlord, Vol. 16",
		Volume:        "16",
		Format:        format,
		ISBN:          &isbn,
		ReleaseDate:   time.Date(2024, 7, 23, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpand_PhysicalAndDigital(t *testing.T) {
	rows := Expand(novel(models.FlagPhysicalAndDigital))
	require.Len(t, rows, 2)

	assert.Equal(t, models.FormatPhysical, rows[0].Format)
	assert.Equal(t, models.FormatDigital, rows[1].Format)
	assert.NotEqual(t, rows[0].Hash, rows[1].Hash)

	a, b := *rows[0], *rows[1]
	a.Format, b.Format = 0, 0
	a.Hash, b.Hash = "", ""
	assert.Equal(t, a, b)
}

func TestExpand_SingleAndUndefinedBits(t *testing.T) {
	rows := Expand(novel(models.FlagAudio | 8))
	require.Len(t, rows, 1)
	assert.Equal(t, models.FormatAudio, rows[0].Format)

	assert.Empty(t, Expand(novel(0)))
	assert.Empty(t, Expand(novel(16)))
}

func TestExpandAll(t *testing.T) {
	doc, err := DecodeBytes([]byte(sampleFeed))
	require.NoError(t, err)

	var rows []*models.NovelStaging
	for row, err := range ExpandAll(doc.Novels()) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	// physical + physical/digital + audio
	assert.Len(t, rows, 4)
}

func TestExpandAll_PropagatesError(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"series": [["a", "A"]], "publishers": ["P"], "data": [[0]]}`))
	require.NoError(t, err)

	var gotErr error
	for _, err := range ExpandAll(doc.Novels()) {
		gotErr = err
	}
	var serr *StructuralError
	require.ErrorAs(t, gotErr, &serr)
}
