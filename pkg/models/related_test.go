package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHydrate(t *testing.T) {
	publisher := &Publisher{ID: uuid.New(), Name: "Yen Press"}
	series := &Series{ID: uuid.New(), Title: "Overlord"}
	volume := &Volume{ID: uuid.New(), SeriesID: series.ID, Title: "Overlord Vol. 1"}
	publication := &Publication{ID: uuid.New(), VolumeID: volume.ID, PublisherID: publisher.ID}

	var missing *Series
	h := Hydrate(publication, publisher, volume, series, publisher, missing)

	assert.Same(t, publication, h.Entity)
	assert.Len(t, h.Related, 3)
	assert.Equal(t, RelationPublisher, h.Related[0].Type)
	assert.Equal(t, RelationVolume, h.Related[1].Type)
	assert.Equal(t, RelationSeries, h.Related[2].Type)
	assert.Same(t, series, h.Find(RelationSeries))
	assert.Nil(t, h.Find(RelationPublication))
}

func TestHydrate_NoRelations(t *testing.T) {
	h := Hydrate(&Series{ID: uuid.New()})
	assert.NotNil(t, h.Related)
	assert.Empty(t, h.Related)
}
