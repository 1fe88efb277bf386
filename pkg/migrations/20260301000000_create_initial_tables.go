package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// uuidDefault produces a random version 4 UUID in its canonical text form.
const uuidDefault = `(lower(
	hex(randomblob(4)) || '-' ||
	hex(randomblob(2)) || '-4' ||
	substr(hex(randomblob(2)), 2) || '-' ||
	substr('89ab', 1 + (abs(random()) % 4), 1) ||
	substr(hex(randomblob(2)), 2) || '-' ||
	hex(randomblob(6))
))`

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE publishers (
				id TEXT PRIMARY KEY NOT NULL DEFAULT ` + uuidDefault + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				slug TEXT NOT NULL,
				name TEXT NOT NULL,
				icon_url TEXT,
				website TEXT
			)`,
			`CREATE UNIQUE INDEX ux_publishers_slug ON publishers (slug)`,

			`CREATE TABLE series (
				id TEXT PRIMARY KEY NOT NULL DEFAULT ` + uuidDefault + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				slug TEXT NOT NULL,
				title TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_series_slug ON series (slug)`,

			`CREATE TABLE volumes (
				id TEXT PRIMARY KEY NOT NULL DEFAULT ` + uuidDefault + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				series_id TEXT NOT NULL REFERENCES series (id),
				volume TEXT NOT NULL,
				title TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_volumes_series_volume_title ON volumes (series_id, volume, title)`,

			`CREATE TABLE publications (
				id TEXT PRIMARY KEY NOT NULL DEFAULT ` + uuidDefault + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				volume_id TEXT NOT NULL REFERENCES volumes (id),
				publisher_id TEXT NOT NULL REFERENCES publishers (id),
				format INTEGER NOT NULL,
				isbn TEXT,
				url TEXT,
				release_date TIMESTAMPTZ NOT NULL,
				hash TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_publications_hash ON publications (hash)`,
			`CREATE INDEX ix_publications_release_date ON publications (release_date)`,
			`CREATE INDEX ix_publications_volume_id ON publications (volume_id)`,
			`CREATE INDEX ix_publications_publisher_id ON publications (publisher_id)`,
			`CREATE INDEX ix_publications_isbn ON publications (isbn)`,

			`CREATE TABLE novel_staging (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				series TEXT NOT NULL,
				series_slug TEXT NOT NULL,
				publisher TEXT NOT NULL,
				publisher_slug TEXT NOT NULL,
				url TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL,
				volume TEXT NOT NULL,
				format INTEGER NOT NULL,
				isbn TEXT,
				release_date TIMESTAMPTZ NOT NULL,
				hash TEXT NOT NULL
			)`,

			`CREATE TABLE covers (
				id TEXT PRIMARY KEY NOT NULL DEFAULT ` + uuidDefault + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMPTZ,
				isbn TEXT NOT NULL,
				cover_url TEXT,
				error_message TEXT,
				last_failed_at TIMESTAMPTZ,
				failed_reason TEXT,
				failed_count INTEGER NOT NULL DEFAULT 0,
				file_name TEXT,
				url_hash TEXT,
				image_width INTEGER,
				image_height INTEGER,
				image_size INTEGER,
				mime_type TEXT
			)`,
			`CREATE UNIQUE INDEX ux_covers_isbn ON covers (isbn)`,

			`CREATE TABLE jobs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				type TEXT NOT NULL,
				status TEXT NOT NULL,
				data TEXT,
				process_id TEXT,
				finished_at TIMESTAMPTZ
			)`,
			`CREATE INDEX ix_jobs_type_status ON jobs (type, status)`,
		}

		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{"jobs", "covers", "novel_staging", "publications", "volumes", "series", "publishers"}
		for _, table := range tables {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
