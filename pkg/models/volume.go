package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Volume struct {
	bun.BaseModel `bun:"table:volumes,alias:v"`

	ID        uuid.UUID  `bun:",pk" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `bun:",soft_delete,nullzero" json:"-"`
	SeriesID  uuid.UUID  `json:"series_id"`
	Volume    string     `bun:"volume" json:"volume"`
	Title     string     `bun:",nullzero" json:"title"`
}

func (v *Volume) RelationType() string { return RelationVolume }

func (v *Volume) RelationID() uuid.UUID { return v.ID }
