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

const holdColumns = `id, sailing_id, cabin_id, user_id, uc_ref, status, expires_at, extensions, idempotency_key, created_at, updated_at`

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Create inserts a new hold. The partial unique index on (sailing_id,
// cabin_id) WHERE status='active' makes the exclusivity check and the insert
// one atomic step; two concurrent creates cannot both succeed.
func (r *HoldRepository) Create(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, sailing_id, cabin_id, user_id, uc_ref, status, expires_at, extensions, idempotency_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.SailingID,
		hold.CabinID,
		hold.UserID,
		hold.UCRef,
		hold.Status,
		hold.ExpiresAt,
		hold.Extensions,
		nullIfEmpty(hold.IdempotencyKey),
		hold.CreatedAt,
		hold.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "uidx_holds_active" {
				return domain.ErrCabinHeld
			}
			return domain.ErrIdempotencyConflict
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) Get(ctx context.Context, id string) (domain.Hold, error) {
	query := fmt.Sprintf(`SELECT %s FROM holds WHERE id = $1`, holdColumns)
	return r.scanHold(r.queryRow(ctx, query, id))
}

func (r *HoldRepository) GetForUpdate(ctx context.Context, id string) (domain.Hold, error) {
	query := fmt.Sprintf(`SELECT %s FROM holds WHERE id = $1 FOR UPDATE`, holdColumns)
	return r.scanHold(r.queryRow(ctx, query, id))
}

func (r *HoldRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Hold, error) {
	query := fmt.Sprintf(`SELECT %s FROM holds WHERE idempotency_key = $1`, holdColumns)
	hold, err := r.scanHold(r.queryRow(ctx, query, key))
	if err != nil {
		if err == domain.ErrHoldNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &hold, nil
}

// UpdateStatus is the compare-and-set behind every hold transition: the
// write only lands when the row still has the expected status, so a lost
// race surfaces as ErrHoldNotActive instead of a silent overwrite.
func (r *HoldRepository) UpdateStatus(ctx context.Context, id string, from, to domain.HoldStatus, now time.Time) error {
	const stmt = `UPDATE holds SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, id, from, to, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update hold status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotActive
	}
	return nil
}

func (r *HoldRepository) MarkExtended(ctx context.Context, id string, expiresAt, now time.Time) error {
	const stmt = `
UPDATE holds
SET expires_at = $2, extensions = extensions + 1, updated_at = $3
WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, id, expiresAt, now)
	if err != nil {
		return fmt.Errorf("extend hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotActive
	}
	return nil
}

// ExpireDue transitions all lapsed active holds in one set-based statement,
// using the same predicate as the inline lazy checks.
func (r *HoldRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	const stmt = `
UPDATE holds
SET status = 'expired', updated_at = $1
WHERE status = 'active' AND expires_at < $1`

	tag, err := r.exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *HoldRepository) List(ctx context.Context, filter app.HoldFilter) ([]domain.Hold, error) {
	query := fmt.Sprintf(`SELECT %s FROM holds WHERE 1=1`, holdColumns)
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.SailingID != "" {
		args = append(args, filter.SailingID)
		query += fmt.Sprintf(` AND sailing_id = $%d`, len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	query += limitOffset(&args, filter.Limit, filter.Offset)

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		hold, err := r.scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holds: %w", rows.Err())
	}
	return holds, nil
}

func (r *HoldRepository) scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	var key *string
	err := row.Scan(
		&h.ID,
		&h.SailingID,
		&h.CabinID,
		&h.UserID,
		&h.UCRef,
		&h.Status,
		&h.ExpiresAt,
		&h.Extensions,
		&key,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("scan hold: %w", err)
	}
	if key != nil {
		h.IdempotencyKey = *key
	}
	return h, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func limitOffset(args *[]any, limit, offset int) string {
	clause := ""
	if limit > 0 {
		*args = append(*args, limit)
		clause += fmt.Sprintf(` LIMIT $%d`, len(*args))
	}
	if offset > 0 {
		*args = append(*args, offset)
		clause += fmt.Sprintf(` OFFSET $%d`, len(*args))
	}
	return clause
}
