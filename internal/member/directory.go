package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/bay-booking-backend/internal/db"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/retry"
)

// Directory looks members up by email or by free-text search.
// Lookups are idempotent reads and are retried with bounded backoff.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*Member, error)
	Search(ctx context.Context, query string, limit int) ([]*Member, error)
}

type pgxDirectory struct {
	q      db.Querier
	policy retry.Policy
}

func NewPgxDirectory(q db.Querier, policy retry.Policy) Directory {
	return &pgxDirectory{q: q, policy: policy}
}

func (d *pgxDirectory) GetByEmail(ctx context.Context, email string) (*Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}

	const query = `
		SELECT id, email, name, tier, is_active, created_at
		FROM public.members
		WHERE lower(email) = $1 AND is_active = true
	`
	var m Member
	err := retry.Do(ctx, d.policy, func(ctx context.Context) error {
		err := d.q.QueryRow(ctx, query, email).
			Scan(&m.ID, &m.Email, &m.Name, &m.Tier, &m.IsActive, &m.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return retry.Permanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperror.TransientIO(collaborator, err)
	}
	return &m, nil
}

func (d *pgxDirectory) Search(ctx context.Context, query string, limit int) ([]*Member, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("id", "email", "name", "tier", "is_active", "created_at").
		From("public.members").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Or{
			squirrel.Expr("lower(email) LIKE ?", pattern),
			squirrel.Expr("lower(name) LIKE ?", pattern),
		}).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build member search query failed: %w", err)
	}

	var out []*Member
	err = retry.Do(ctx, d.policy, func(ctx context.Context) error {
		out = out[:0]
		rows, err := d.q.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m Member
			if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Tier, &m.IsActive, &m.CreatedAt); err != nil {
				return retry.Permanent(fmt.Errorf("scan member failed: %w", err))
			}
			out = append(out, &m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperror.TransientIO(collaborator, err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
