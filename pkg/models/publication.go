package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Publication struct {
	bun.BaseModel `bun:"table:publications,alias:p"`

	ID          uuid.UUID  `bun:",pk" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `bun:",soft_delete,nullzero" json:"-"`
	VolumeID    uuid.UUID  `json:"volume_id"`
	PublisherID uuid.UUID  `json:"publisher_id"`
	Format      Format     `bun:"format" json:"format"`
	ISBN        *string    `bun:"isbn" json:"isbn,omitempty"`
	URL         *string    `bun:"url" json:"url,omitempty"`
	ReleaseDate time.Time  `json:"release_date"`
	Hash        string     `bun:",nullzero" json:"-"`
}

func (p *Publication) RelationType() string { return RelationPublication }

func (p *Publication) RelationID() uuid.UUID { return p.ID }
