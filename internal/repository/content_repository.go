package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// ContentFilter narrows content listings.
type ContentFilter struct {
	// Access restricts results to one tier when set.
	Access *domain.AccessTier
	// SlugContains matches slugs containing the given key.
	SlugContains string
	Limit        int
	Offset       int
}

// ContentRepository defines persistence access for content items.
type ContentRepository interface {
	Create(ctx context.Context, content *domain.Content) error
	Update(ctx context.Context, content *domain.Content) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Content, error)
	List(ctx context.Context, filter ContentFilter) ([]domain.Content, error)
}

type contentRepository struct {
	pool Pool
}

// NewContentRepository returns a Postgres-backed implementation.
func NewContentRepository(pool Pool) ContentRepository {
	return &contentRepository{pool: pool}
}

const contentColumns = `id, title, description, access, slug, average_rating::float8, created_at, updated_at`

func (r *contentRepository) Create(ctx context.Context, content *domain.Content) error {
	const query = `
        INSERT INTO contents (title, description, access, slug)
        VALUES ($1, $2, $3, $4)
        RETURNING id, average_rating::float8, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		content.Title,
		content.Description,
		content.Access,
		content.Slug,
	).Scan(&content.ID, &content.AverageRating, &content.CreatedAt, &content.UpdatedAt)
	return translate(err)
}

func (r *contentRepository) Update(ctx context.Context, content *domain.Content) error {
	const query = `
        UPDATE contents SET title=$1, description=$2, access=$3, slug=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING average_rating::float8, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		content.Title,
		content.Description,
		content.Access,
		content.Slug,
		content.ID,
	).Scan(&content.AverageRating, &content.CreatedAt, &content.UpdatedAt)
	return translate(err)
}

func (r *contentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM contents WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id=$1`
	content, err := scanContent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return content, nil
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter) ([]domain.Content, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Access != nil {
		args = append(args, *filter.Access)
		clauses = append(clauses, fmt.Sprintf("access=$%d", len(args)))
	}
	if filter.SlugContains != "" {
		args = append(args, filter.SlugContains)
		clauses = append(clauses, fmt.Sprintf("strpos(slug, $%d) > 0", len(args)))
	}

	query := `SELECT ` + contentColumns + ` FROM contents`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	contents := make([]domain.Content, 0)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, *content)
	}
	return contents, rows.Err()
}

func scanContent(row pgx.Row) (*domain.Content, error) {
	var content domain.Content
	if err := row.Scan(
		&content.ID,
		&content.Title,
		&content.Description,
		&content.Access,
		&content.Slug,
		&content.AverageRating,
		&content.CreatedAt,
		&content.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &content, nil
}
