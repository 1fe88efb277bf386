package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE VIRTUAL TABLE series_fts USING fts5(
				title,
				content='series',
				content_rowid='rowid',
				tokenize='porter unicode61'
			)`,
			`CREATE TRIGGER series_fts_insert AFTER INSERT ON series BEGIN
				INSERT INTO series_fts (rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER series_fts_delete AFTER DELETE ON series BEGIN
				INSERT INTO series_fts (series_fts, rowid, title) VALUES ('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER series_fts_update AFTER UPDATE OF title ON series BEGIN
				INSERT INTO series_fts (series_fts, rowid, title) VALUES ('delete', old.rowid, old.title);
				INSERT INTO series_fts (rowid, title) VALUES (new.rowid, new.title);
			END`,

			`CREATE VIRTUAL TABLE volumes_fts USING fts5(
				title,
				content='volumes',
				content_rowid='rowid',
				tokenize='porter unicode61'
			)`,
			`CREATE TRIGGER volumes_fts_insert AFTER INSERT ON volumes BEGIN
				INSERT INTO volumes_fts (rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER volumes_fts_delete AFTER DELETE ON volumes BEGIN
				INSERT INTO volumes_fts (volumes_fts, rowid, title) VALUES ('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER volumes_fts_update AFTER UPDATE OF title ON volumes BEGIN
				INSERT INTO volumes_fts (volumes_fts, rowid, title) VALUES ('delete', old.rowid, old.title);
				INSERT INTO volumes_fts (rowid, title) VALUES (new.rowid, new.title);
			END`,
		}

		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`DROP TRIGGER IF EXISTS volumes_fts_update`,
			`DROP TRIGGER IF EXISTS volumes_fts_delete`,
			`DROP TRIGGER IF EXISTS volumes_fts_insert`,
			`DROP TABLE IF EXISTS volumes_fts`,
			`DROP TRIGGER IF EXISTS series_fts_update`,
			`DROP TRIGGER IF EXISTS series_fts_delete`,
			`DROP TRIGGER IF EXISTS series_fts_insert`,
			`DROP TABLE IF EXISTS series_fts`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
