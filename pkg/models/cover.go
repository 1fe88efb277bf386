package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Cover struct {
	bun.BaseModel `bun:"table:covers,alias:c"`

	ID           uuid.UUID  `bun:",pk" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `bun:",soft_delete,nullzero" json:"-"`
	ISBN         string     `bun:"isbn,nullzero" json:"isbn"`
	CoverURL     *string    `bun:"cover_url" json:"cover_url,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	LastFailedAt *time.Time `json:"last_failed_at,omitempty"`
	FailedReason *string    `json:"failed_reason,omitempty"`
	FailedCount  int        `json:"failed_count"`
	FileName     *string    `json:"file_name,omitempty"`
	URLHash      *string    `bun:"url_hash" json:"url_hash,omitempty"`
	ImageWidth   *int       `json:"image_width,omitempty"`
	ImageHeight  *int       `json:"image_height,omitempty"`
	ImageSize    *int64     `json:"image_size,omitempty"`
	MimeType     *string    `json:"mime_type,omitempty"`
}
