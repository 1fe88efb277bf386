package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Publisher struct {
	bun.BaseModel `bun:"table:publishers,alias:pub"`

	ID        uuid.UUID  `bun:",pk" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `bun:",soft_delete,nullzero" json:"-"`
	Slug      string     `bun:",nullzero" json:"slug"`
	Name      string     `bun:",nullzero" json:"name"`
	IconURL   *string    `bun:"icon_url" json:"icon_url,omitempty"`
	Website   *string    `bun:"website" json:"website,omitempty"`
}

// Normalize fills in the slug from the name when it hasn't been set.
func (p *Publisher) Normalize() {
	if p.Slug == "" {
		p.Slug = GenerateSlug(p.Name)
	} else {
		p.Slug = GenerateSlug(p.Slug)
	}
}

func (p *Publisher) RelationType() string { return RelationPublisher }

func (p *Publisher) RelationID() uuid.UUID { return p.ID }
