package search

import "github.com/lnrelease/lnc/pkg/models"

type GlobalSearchQuery struct {
	Query string `query:"q" json:"q" mod:"trim" validate:"required,min=1,max=100"`
	Limit int    `query:"limit" json:"limit" default:"5" validate:"min=1,max=20"`
}

// GlobalSearchResponse holds a handful of matches per entity type for
// typeahead display.
type GlobalSearchResponse struct {
	Series     []*models.Series    `json:"series"`
	Volumes    []*models.Volume    `json:"volumes"`
	Publishers []*models.Publisher `json:"publishers"`
}
