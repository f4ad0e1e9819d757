package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/db"
	"github.com/sells-group/scout-cli/internal/metrics"
	"github.com/sells-group/scout-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = min(minConns, maxConns)
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, pool.Close), nil
}

func newPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS entities (
	id                 BIGSERIAL PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	website            TEXT UNIQUE,
	summary            TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	founders           JSONB NOT NULL DEFAULT '[]',
	funding_stage      TEXT NOT NULL DEFAULT '',
	last_funding_round TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	links              JSONB NOT NULL DEFAULT '[]',
	raw_notes          TEXT NOT NULL DEFAULT '',
	raw_data           JSONB NOT NULL DEFAULT '{}',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pages (
	id           BIGSERIAL PRIMARY KEY,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content_text TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	http_status  INTEGER NOT NULL DEFAULT 0,
	referer_url  TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (url, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_entities_updated_at ON entities(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

const pgEntityColumns = `id, name, COALESCE(website, ''), summary, industry, location, founders,
	funding_stage, last_funding_round, contact_email, links, raw_notes, raw_data, created_at, updated_at`

const pgSelectEntityForUpdate = `SELECT ` + pgEntityColumns + ` FROM entities WHERE website = $1 FOR UPDATE`

func (s *PostgresStore) UpsertEntity(ctx context.Context, p *model.EntityProfile) (int64, error) {
	if p == nil {
		return 0, storageErr("upsert entity", errors.New("nil profile"))
	}
	website := strings.TrimSpace(p.Website)

	var (
		id int64
		op string
	)
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var existing *model.EntityProfile
		if website != "" {
			var err error
			existing, err = pgScanEntity(tx.QueryRow(ctx, pgSelectEntityForUpdate, website))
			if err != nil {
				return err
			}
		}

		if existing == nil {
			var inserted bool
			var err error
			id, inserted, err = pgInsertEntity(ctx, tx, newProfile(*p, s.now()))
			if err != nil {
				return err
			}
			if inserted {
				op = "insert"
				return nil
			}
			// Lost a race with a concurrent insert for the same website.
			existing, err = pgScanEntity(tx.QueryRow(ctx, pgSelectEntityForUpdate, website))
			if err != nil {
				return err
			}
			if existing == nil {
				return eris.Errorf("postgres: entity %s vanished after conflict", website)
			}
		}

		op = "merge"
		merged := MergeProfile(*existing, *p, s.now())
		id = merged.ID
		return pgUpdateEntity(ctx, tx, merged)
	})
	if err != nil {
		return 0, storageErr("upsert entity", err)
	}

	metrics.ObserveEntityUpsert(op)
	zap.L().Debug("store: entity upserted",
		zap.Int64("id", id), zap.String("website", website), zap.String("op", op))
	return id, nil
}

func pgInsertEntity(ctx context.Context, tx pgx.Tx, p model.EntityProfile) (int64, bool, error) {
	js, err := marshalProfile(p)
	if err != nil {
		return 0, false, err
	}
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO entities (name, website, summary, industry, location, founders, funding_stage,
			last_funding_round, contact_email, links, raw_notes, raw_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (website) DO NOTHING
		RETURNING id`,
		p.Name, nullableWebsite(p.Website), p.Summary, p.Industry, p.Location, string(js.founders),
		p.FundingStage, p.LastFundingRound, p.ContactEmail, string(js.links), p.RawNotes,
		string(js.rawData), p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "postgres: insert entity")
	}
	return id, true, nil
}

func pgUpdateEntity(ctx context.Context, tx pgx.Tx, p model.EntityProfile) error {
	js, err := marshalProfile(p)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE entities SET name = $1, summary = $2, industry = $3, location = $4, founders = $5,
			funding_stage = $6, last_funding_round = $7, contact_email = $8, links = $9, raw_notes = $10,
			raw_data = $11, updated_at = $12
		WHERE id = $13`,
		p.Name, p.Summary, p.Industry, p.Location, string(js.founders), p.FundingStage,
		p.LastFundingRound, p.ContactEmail, string(js.links), p.RawNotes, string(js.rawData),
		p.UpdatedAt, p.ID,
	)
	return eris.Wrapf(err, "postgres: update entity %d", p.ID)
}

func (s *PostgresStore) InsertPages(ctx context.Context, pages []model.PersistedPage) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	inserted := 0
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, pg := range pages {
			tag, err := tx.Exec(ctx,
				`INSERT INTO pages (url, title, content_text, content_hash, http_status, referer_url, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (url, content_hash) DO NOTHING`,
				pg.URL, pg.Title, pg.Text, pg.ContentHash, pg.StatusCode, nullableString(pg.Referer), now,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: insert page %s", pg.URL)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("insert pages", err)
	}
	metrics.ObservePagesInserted(inserted)
	return inserted, nil
}

func (s *PostgresStore) GetEntity(ctx context.Context, id int64) (*model.EntityProfile, error) {
	p, err := pgScanEntity(s.pool.QueryRow(ctx,
		`SELECT `+pgEntityColumns+` FROM entities WHERE id = $1`, id))
	return p, eris.Wrapf(err, "postgres: get entity %d", id)
}

func (s *PostgresStore) GetEntityByWebsite(ctx context.Context, website string) (*model.EntityProfile, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return nil, nil
	}
	p, err := pgScanEntity(s.pool.QueryRow(ctx,
		`SELECT `+pgEntityColumns+` FROM entities WHERE website = $1`, website))
	return p, eris.Wrapf(err, "postgres: get entity by website %s", website)
}

func (s *PostgresStore) ListEntities(ctx context.Context, filter EntityFilter) ([]model.EntityProfile, error) {
	filter = filter.normalized()
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgEntityColumns+` FROM entities ORDER BY updated_at DESC, id DESC LIMIT $1 OFFSET $2`,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entities")
	}
	defer rows.Close()

	out := []model.EntityProfile{}
	for rows.Next() {
		p, err := pgScanEntity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list entities")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list entities")
}

func (s *PostgresStore) ListPages(ctx context.Context, url string) ([]model.PersistedPage, error) {
	query := `SELECT id, url, title, content_text, content_hash, http_status, COALESCE(referer_url, ''), created_at FROM pages`
	var args []any
	if url != "" {
		query += ` WHERE url = $1`
		args = append(args, url)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pages")
	}
	defer rows.Close()

	out := []model.PersistedPage{}
	for rows.Next() {
		var pg model.PersistedPage
		if err := rows.Scan(&pg.ID, &pg.URL, &pg.Title, &pg.Text, &pg.ContentHash,
			&pg.StatusCode, &pg.Referer, &pg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan page")
		}
		out = append(out, pg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list pages")
}

func pgScanEntity(row pgx.Row) (*model.EntityProfile, error) {
	var (
		p                        model.EntityProfile
		founders, links, rawData []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Website, &p.Summary, &p.Industry, &p.Location, &founders,
		&p.FundingStage, &p.LastFundingRound, &p.ContactEmail, &links, &p.RawNotes, &rawData,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan entity")
	}
	if err := unmarshalProfile(&p, founders, links, rawData); err != nil {
		return nil, err
	}
	return &p, nil
}
