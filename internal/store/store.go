package store

import (
	"context"
	"fmt"

	"github.com/sells-group/scout-cli/internal/model"
)

// EntityFilter pages through stored entities, newest update first.
type EntityFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (f EntityFilter) normalized() EntityFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Store persists crawled pages and entity profiles.
type Store interface {
	// UpsertEntity inserts p, or merges it into the entity that already has
	// p's website, and returns the entity ID.
	UpsertEntity(ctx context.Context, p *model.EntityProfile) (int64, error)
	// InsertPages stores pages whose (url, content hash) pair is new and
	// returns how many were inserted.
	InsertPages(ctx context.Context, pages []model.PersistedPage) (int, error)

	// Lookups return nil, nil when nothing matches.
	GetEntity(ctx context.Context, id int64) (*model.EntityProfile, error)
	GetEntityByWebsite(ctx context.Context, website string) (*model.EntityProfile, error)
	ListEntities(ctx context.Context, filter EntityFilter) ([]model.EntityProfile, error)
	ListPages(ctx context.Context, url string) ([]model.PersistedPage, error)

	Migrate(ctx context.Context) error
	Close() error
}

// StorageError reports a failed write or constraint violation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
