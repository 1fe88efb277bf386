package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeRefresh = "refresh"
	JobTypeCovers  = "covers"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	ProcessID  *string     `json:"process_id,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeRefresh:
		job.DataParsed = &JobRefreshData{}
	case JobTypeCovers:
		job.DataParsed = &JobCoversData{}
	default:
		return errors.Errorf("unknown job type %q", job.Type)
	}

	if job.Data == "" {
		return nil
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// MarshalData serializes DataParsed into Data.
func (job *Job) MarshalData() error {
	if job.DataParsed == nil {
		return nil
	}
	data, err := json.Marshal(job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	job.Data = string(data)
	return nil
}

type JobRefreshData struct {
	Success      bool   `json:"success"`
	Cancelled    bool   `json:"cancelled,omitempty"`
	Description  string `json:"description,omitempty"`
	Novels       int    `json:"novels"`
	Staged       int    `json:"staged"`
	Publishers   int    `json:"publishers"`
	Series       int    `json:"series"`
	Volumes      int    `json:"volumes"`
	Publications int    `json:"publications"`
	Updated      int    `json:"updated"`
}

type JobCoversData struct {
	Total     int  `json:"total"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled,omitempty"`
}
