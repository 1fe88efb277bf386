package models

import "github.com/google/uuid"

const (
	RelationPublication = "publication"
	RelationPublisher   = "publisher"
	RelationSeries      = "series"
	RelationVolume      = "volume"
)

// Relatable is anything that can be attached to another entity as a related
// entry.
type Relatable interface {
	RelationType() string
	RelationID() uuid.UUID
}

type Relationship struct {
	Type string    `json:"type"`
	Data Relatable `json:"data"`
}

type Hydrated[T any] struct {
	Entity  T              `json:"entity"`
	Related []Relationship `json:"related"`
}

// Hydrate attaches the related entities to entity, skipping nils and any
// entity already attached under the same type and id.
func Hydrate[T any](entity T, related ...Relatable) *Hydrated[T] {
	h := &Hydrated[T]{
		Entity:  entity,
		Related: make([]Relationship, 0, len(related)),
	}
	type key struct {
		t  string
		id uuid.UUID
	}
	seen := make(map[key]struct{}, len(related))
	for _, r := range related {
		if r == nil || isNilRelatable(r) {
			continue
		}
		k := key{r.RelationType(), r.RelationID()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		h.Related = append(h.Related, Relationship{Type: k.t, Data: r})
	}
	return h
}

func isNilRelatable(r Relatable) bool {
	switch v := r.(type) {
	case *Publisher:
		return v == nil
	case *Series:
		return v == nil
	case *Volume:
		return v == nil
	case *Publication:
		return v == nil
	}
	return false
}

// Find returns the first related entity of the given type.
func (h *Hydrated[T]) Find(relationType string) Relatable {
	for _, r := range h.Related {
		if r.Type == relationType {
			return r.Data
		}
	}
	return nil
}
