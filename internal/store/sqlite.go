package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/scout-cli/internal/metrics"
	"github.com/sells-group/scout-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One writer at a time; upserts rely on it for read-then-write.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS entities (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT NOT NULL DEFAULT '',
	website            TEXT UNIQUE,
	summary            TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	founders           TEXT NOT NULL DEFAULT '[]',
	funding_stage      TEXT NOT NULL DEFAULT '',
	last_funding_round TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	links              TEXT NOT NULL DEFAULT '[]',
	raw_notes          TEXT NOT NULL DEFAULT '',
	raw_data           TEXT NOT NULL DEFAULT '{}',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content_text TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	http_status  INTEGER NOT NULL DEFAULT 0,
	referer_url  TEXT,
	created_at   DATETIME NOT NULL,
	UNIQUE (url, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_entities_updated_at ON entities(updated_at);
CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteEntityColumns = `id, name, COALESCE(website, ''), summary, industry, location, founders,
	funding_stage, last_funding_round, contact_email, links, raw_notes, raw_data, created_at, updated_at`

func (s *SQLiteStore) UpsertEntity(ctx context.Context, p *model.EntityProfile) (int64, error) {
	if p == nil {
		return 0, storageErr("upsert entity", errors.New("nil profile"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("upsert entity", eris.Wrap(err, "sqlite: begin tx"))
	}
	defer tx.Rollback() //nolint:errcheck

	var existing *model.EntityProfile
	website := strings.TrimSpace(p.Website)
	if website != "" {
		row := tx.QueryRowContext(ctx,
			`SELECT `+sqliteEntityColumns+` FROM entities WHERE website = ?`, website)
		existing, err = scanEntity(row)
		if err != nil {
			return 0, storageErr("upsert entity", err)
		}
	}

	var id int64
	op := "insert"
	if existing != nil {
		op = "merge"
		merged := MergeProfile(*existing, *p, s.now())
		if err := sqliteUpdateEntity(ctx, tx, merged); err != nil {
			return 0, storageErr("upsert entity", err)
		}
		id = merged.ID
	} else {
		id, err = sqliteInsertEntity(ctx, tx, newProfile(*p, s.now()))
		if err != nil {
			return 0, storageErr("upsert entity", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("upsert entity", eris.Wrap(err, "sqlite: commit"))
	}
	metrics.ObserveEntityUpsert(op)
	zap.L().Debug("store: entity upserted",
		zap.Int64("id", id), zap.String("website", website), zap.String("op", op))
	return id, nil
}

func sqliteInsertEntity(ctx context.Context, tx *sql.Tx, p model.EntityProfile) (int64, error) {
	js, err := marshalProfile(p)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO entities (name, website, summary, industry, location, founders, funding_stage,
			last_funding_round, contact_email, links, raw_notes, raw_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, nullableWebsite(p.Website), p.Summary, p.Industry, p.Location, string(js.founders),
		p.FundingStage, p.LastFundingRound, p.ContactEmail, string(js.links), p.RawNotes,
		string(js.rawData), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert entity")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	return id, nil
}

func sqliteUpdateEntity(ctx context.Context, tx *sql.Tx, p model.EntityProfile) error {
	js, err := marshalProfile(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE entities SET name = ?, summary = ?, industry = ?, location = ?, founders = ?,
			funding_stage = ?, last_funding_round = ?, contact_email = ?, links = ?, raw_notes = ?,
			raw_data = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Summary, p.Industry, p.Location, string(js.founders), p.FundingStage,
		p.LastFundingRound, p.ContactEmail, string(js.links), p.RawNotes, string(js.rawData),
		p.UpdatedAt, p.ID,
	)
	return eris.Wrapf(err, "sqlite: update entity %d", p.ID)
}

func (s *SQLiteStore) InsertPages(ctx context.Context, pages []model.PersistedPage) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("insert pages", eris.Wrap(err, "sqlite: begin tx"))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (url, title, content_text, content_hash, http_status, referer_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url, content_hash) DO NOTHING`)
	if err != nil {
		return 0, storageErr("insert pages", eris.Wrap(err, "sqlite: prepare insert"))
	}
	defer stmt.Close() //nolint:errcheck

	now := s.now().UTC()
	inserted := 0
	for _, pg := range pages {
		res, err := stmt.ExecContext(ctx,
			pg.URL, pg.Title, pg.Text, pg.ContentHash, pg.StatusCode, nullableString(pg.Referer), now)
		if err != nil {
			return 0, storageErr("insert pages", eris.Wrapf(err, "sqlite: insert page %s", pg.URL))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, storageErr("insert pages", eris.Wrap(err, "sqlite: rows affected"))
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("insert pages", eris.Wrap(err, "sqlite: commit"))
	}
	metrics.ObservePagesInserted(inserted)
	return inserted, nil
}

func (s *SQLiteStore) GetEntity(ctx context.Context, id int64) (*model.EntityProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteEntityColumns+` FROM entities WHERE id = ?`, id)
	p, err := scanEntity(row)
	return p, eris.Wrapf(err, "sqlite: get entity %d", id)
}

func (s *SQLiteStore) GetEntityByWebsite(ctx context.Context, website string) (*model.EntityProfile, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteEntityColumns+` FROM entities WHERE website = ?`, website)
	p, err := scanEntity(row)
	return p, eris.Wrapf(err, "sqlite: get entity by website %s", website)
}

func (s *SQLiteStore) ListEntities(ctx context.Context, filter EntityFilter) ([]model.EntityProfile, error) {
	filter = filter.normalized()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteEntityColumns+` FROM entities ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entities")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.EntityProfile{}
	for rows.Next() {
		p, err := scanEntity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list entities")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list entities")
}

func (s *SQLiteStore) ListPages(ctx context.Context, url string) ([]model.PersistedPage, error) {
	query := `SELECT id, url, title, content_text, content_hash, http_status, COALESCE(referer_url, ''), created_at FROM pages`
	var args []any
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pages")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.PersistedPage{}
	for rows.Next() {
		var pg model.PersistedPage
		if err := rows.Scan(&pg.ID, &pg.URL, &pg.Title, &pg.Text, &pg.ContentHash,
			&pg.StatusCode, &pg.Referer, &pg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan page")
		}
		out = append(out, pg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list pages")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*model.EntityProfile, error) {
	var (
		p                        model.EntityProfile
		founders, links, rawData string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Website, &p.Summary, &p.Industry, &p.Location, &founders,
		&p.FundingStage, &p.LastFundingRound, &p.ContactEmail, &links, &p.RawNotes, &rawData,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan entity")
	}
	if err := unmarshalProfile(&p, []byte(founders), []byte(links), []byte(rawData)); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
