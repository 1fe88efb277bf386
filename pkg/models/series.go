package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID        uuid.UUID  `bun:",pk" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `bun:",soft_delete,nullzero" json:"-"`
	Slug      string     `bun:",nullzero" json:"slug"`
	Title     string     `bun:",nullzero" json:"title"`
}

func (s *Series) RelationType() string { return RelationSeries }

func (s *Series) RelationID() uuid.UUID { return s.ID }
