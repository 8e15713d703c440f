package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/nekogravitycat/bay-booking-backend/internal/db"
)

// Repository stores closures and event blocks.
type Repository interface {
	ListClosures(ctx context.Context, date time.Time) ([]Closure, error)
	CreateClosure(ctx context.Context, c *Closure) error
	DeleteClosure(ctx context.Context, id string) (*Closure, error)

	ListBlocks(ctx context.Context, date time.Time) ([]Block, error)
	CreateBlock(ctx context.Context, b *Block) error
	DeleteBlock(ctx context.Context, id string) (*Block, error)
}

type pgxRepository struct {
	q db.Querier
}

// NewPgxRepository works over a pool or a transaction.
func NewPgxRepository(q db.Querier) Repository {
	return &pgxRepository{q: q}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) ListClosures(ctx context.Context, date time.Time) ([]Closure, error) {
	sql, args, err := psql.Select("id", "resource_id", "closure_date", "start_minute", "end_minute", "title", "created_at").
		From("public.closures").
		Where(squirrel.Eq{"closure_date": date}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list closures query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list closures failed: %w", err)
	}
	defer rows.Close()

	var out []Closure
	for rows.Next() {
		var c Closure
		if err := rows.Scan(&c.ID, &c.ResourceID, &c.Date, &c.Interval.Start, &c.Interval.End, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan closure failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closures failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) CreateClosure(ctx context.Context, c *Closure) error {
	sql, args, err := psql.Insert("public.closures").
		Columns("resource_id", "closure_date", "start_minute", "end_minute", "title").
		Values(c.ResourceID, c.Date, c.Interval.Start, c.Interval.End, c.Title).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create closure query failed: %w", err)
	}
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("create closure failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteClosure(ctx context.Context, id string) (*Closure, error) {
	sql, args, err := psql.Delete("public.closures").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, resource_id, closure_date, start_minute, end_minute, title, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete closure query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("delete closure failed: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("delete closure failed: %w", err)
		}
		return nil, ErrClosureNotFound
	}
	var c Closure
	if err := rows.Scan(&c.ID, &c.ResourceID, &c.Date, &c.Interval.Start, &c.Interval.End, &c.Title, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan closure failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) ListBlocks(ctx context.Context, date time.Time) ([]Block, error) {
	sql, args, err := psql.Select("id", "resource_id", "block_date", "start_minute", "end_minute", "reason", "created_at").
		From("public.availability_blocks").
		Where(squirrel.Eq{"block_date": date}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list blocks query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocks failed: %w", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.Date, &b.Interval.Start, &b.Interval.End, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan block failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) CreateBlock(ctx context.Context, b *Block) error {
	sql, args, err := psql.Insert("public.availability_blocks").
		Columns("resource_id", "block_date", "start_minute", "end_minute", "reason").
		Values(b.ResourceID, b.Date, b.Interval.Start, b.Interval.End, b.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create block query failed: %w", err)
	}
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("create block failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteBlock(ctx context.Context, id string) (*Block, error) {
	sql, args, err := psql.Delete("public.availability_blocks").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, resource_id, block_date, start_minute, end_minute, reason, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete block query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("delete block failed: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("delete block failed: %w", err)
		}
		return nil, ErrBlockNotFound
	}
	var b Block
	if err := rows.Scan(&b.ID, &b.ResourceID, &b.Date, &b.Interval.Start, &b.Interval.End, &b.Reason, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan block failed: %w", err)
	}
	return &b, nil
}
