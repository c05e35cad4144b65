package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

const releaseRequestColumns = `id, hold_id, requested_by, reason, result, resolved_at, created_at`

type ReleaseRequestRepository struct {
	pool *pgxpool.Pool
}

func NewReleaseRequestRepository(pool *pgxpool.Pool) *ReleaseRequestRepository {
	return &ReleaseRequestRepository{pool: pool}
}

func (r *ReleaseRequestRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReleaseRequestRepository) Create(ctx context.Context, req domain.ReleaseRequest) error {
	const stmt = `
INSERT INTO release_requests (id, hold_id, requested_by, reason, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, req.ID, req.HoldID, req.RequestedBy, nullIfEmpty(req.Reason), req.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create release request: %w", err)
	}
	return nil
}

func (r *ReleaseRequestRepository) GetForUpdate(ctx context.Context, id string) (domain.ReleaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM release_requests WHERE id = $1 FOR UPDATE`, releaseRequestColumns)
	return r.scanRequest(r.queryRow(ctx, query, id))
}

// Resolve records the outcome only while the request is unresolved; a second
// resolution attempt loses and is told so.
func (r *ReleaseRequestRepository) Resolve(ctx context.Context, id string, result domain.ReleaseResult, resolvedAt time.Time) error {
	const stmt = `
UPDATE release_requests
SET result = $2, resolved_at = $3
WHERE id = $1 AND resolved_at IS NULL`

	tag, err := r.exec(ctx, stmt, id, result, resolvedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("resolve release request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestResolved
	}
	return nil
}

func (r *ReleaseRequestRepository) List(ctx context.Context, filter app.ReleaseRequestFilter) ([]domain.ReleaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM release_requests WHERE 1=1`, releaseRequestColumns)
	args := []any{}
	if filter.HoldID != "" {
		args = append(args, filter.HoldID)
		query += fmt.Sprintf(` AND hold_id = $%d`, len(args))
	}
	if filter.Unresolved {
		query += ` AND resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`
	query += limitOffset(&args, filter.Limit, filter.Offset)

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list release requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.ReleaseRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate release requests: %w", rows.Err())
	}
	return reqs, nil
}

func (r *ReleaseRequestRepository) scanRequest(row pgx.Row) (domain.ReleaseRequest, error) {
	var req domain.ReleaseRequest
	var reason, result *string
	var resolvedAt *time.Time

	err := row.Scan(&req.ID, &req.HoldID, &req.RequestedBy, &reason, &result, &resolvedAt, &req.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ReleaseRequest{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ReleaseRequest{}, domain.ErrReleaseRequestNotFound
		}
		return domain.ReleaseRequest{}, fmt.Errorf("scan release request: %w", err)
	}
	if reason != nil {
		req.Reason = *reason
	}
	if result != nil {
		req.Result = domain.ReleaseResult(*result)
	}
	if resolvedAt != nil {
		t := resolvedAt.UTC()
		req.ResolvedAt = &t
	}
	return req, nil
}

func (r *ReleaseRequestRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReleaseRequestRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ReleaseRequestRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
