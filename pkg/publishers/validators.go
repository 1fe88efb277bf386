package publishers

type ListPublishersQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=100"`
}

// UpdatePublisherPayload sets the display extras the feed doesn't carry. An
// empty string clears the field.
type UpdatePublisherPayload struct {
	IconURL *string `json:"icon_url,omitempty" mod:"trim" validate:"omitempty,url"`
	Website *string `json:"website,omitempty" mod:"trim" validate:"omitempty,url"`
}
