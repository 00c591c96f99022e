package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func isUniqueViolationError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

type linkDB struct {
	ID             int64  `db:"id"`
	Slug           string `db:"slug"`
	DestinationURL string `db:"destination_url"`
	ClickCount     int64  `db:"click_count"`
	CreatedAt      int64  `db:"created_at"` // unix milliseconds
}

func (l *linkDB) toEntity() *entity.Link {
	return &entity.Link{
		ID:             l.ID,
		Slug:           l.Slug,
		DestinationURL: l.DestinationURL,
		ClickCount:     l.ClickCount,
		CreatedAt:      time.UnixMilli(l.CreatedAt).UTC(),
	}
}

type LinkRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *LinkRepository) Save(ctx context.Context, slug, destinationURL string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.Save"
	const query = `INSERT INTO links(slug, destination_url, created_at) VALUES (?, ?, ?)
		RETURNING id, slug, destination_url, click_count, created_at`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, slug, destinationURL, r.now().UnixMilli()); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugTaken)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveBySlug(ctx context.Context, slug string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RetrieveBySlug"
	const query = `SELECT id, slug, destination_url, click_count, created_at FROM links WHERE slug = ?`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) IncrementClickCount(ctx context.Context, slug string) error {
	const op = "adapter.repository.sqlite.LinkRepository.IncrementClickCount"
	const query = `UPDATE links SET click_count = click_count + 1 WHERE slug = ?`

	res, err := r.db.ExecContext(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("%s: failed to update links table row: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}
