package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type linkDB struct {
	ID             int64     `db:"id"`
	Slug           string    `db:"slug"`
	DestinationURL string    `db:"destination_url"`
	ClickCount     int64     `db:"click_count"`
	CreatedAt      time.Time `db:"created_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	return &entity.Link{
		ID:             l.ID,
		Slug:           l.Slug,
		DestinationURL: l.DestinationURL,
		ClickCount:     l.ClickCount,
		CreatedAt:      l.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Save(ctx context.Context, slug, destinationURL string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const query = `INSERT INTO links(slug, destination_url) VALUES ($1, $2)
		RETURNING id, slug, destination_url, click_count, created_at`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, slug, destinationURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugTaken)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveBySlug(ctx context.Context, slug string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveBySlug"
	const query = `SELECT id, slug, destination_url, click_count, created_at FROM links WHERE slug = $1`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return link.toEntity(), nil
}

// IncrementClickCount adds one to the click counter in a single statement, so
// concurrent visits never lose updates.
func (r *LinkRepository) IncrementClickCount(ctx context.Context, slug string) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementClickCount"
	const query = `UPDATE links SET click_count = click_count + 1 WHERE slug = $1`

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
