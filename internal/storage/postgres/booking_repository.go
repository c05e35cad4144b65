package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

const bookingColumns = `id, sailing_id, cabin_id, user_id, uc_ref, snapshot, status, idempotency_key,
cancellation_policy_id, cancellation_charge, cancellation_reason, cancelled_at, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Create inserts a booking with its pricing snapshot. Exclusivity against
// other active bookings rides on the partial unique index uidx_bookings_active.
func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	snapshot, err := json.Marshal(booking.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	const stmt = `
INSERT INTO bookings (id, sailing_id, cabin_id, user_id, uc_ref, snapshot, status, idempotency_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.exec(ctx, stmt,
		booking.ID,
		booking.SailingID,
		booking.CabinID,
		booking.UserID,
		booking.UCRef,
		snapshot,
		booking.Status,
		nullIfEmpty(booking.IdempotencyKey),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "uidx_bookings_active" {
				return domain.ErrCabinBooked
			}
			return domain.ErrIdempotencyConflict
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (domain.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	return r.scanBooking(r.queryRow(ctx, query, id))
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1 FOR UPDATE`, bookingColumns)
	return r.scanBooking(r.queryRow(ctx, query, id))
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE idempotency_key = $1`, bookingColumns)
	booking, err := r.scanBooking(r.queryRow(ctx, query, key))
	if err != nil {
		if err == domain.ErrBookingNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// MarkCancelled writes the cancellation metadata only while the booking is
// still active, so concurrent cancellations resolve to one winner.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id string, c domain.Cancellation, now time.Time) error {
	const stmt = `
UPDATE bookings
SET status = 'cancelled',
    cancellation_policy_id = $2,
    cancellation_charge = $3,
    cancellation_reason = $4,
    cancelled_at = $5,
    updated_at = $6
WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, id, c.PolicyID, c.Charge, nullIfEmpty(c.Reason), c.CancelledAt, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotActive
	}
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter app.BookingFilter) ([]domain.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE 1=1`, bookingColumns)
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
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bookings: %w", rows.Err())
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	var snapshot []byte
	var key, policyID, reason *string
	var charge decimal.NullDecimal
	var cancelledAt *time.Time

	err := row.Scan(
		&b.ID,
		&b.SailingID,
		&b.CabinID,
		&b.UserID,
		&b.UCRef,
		&snapshot,
		&b.Status,
		&key,
		&policyID,
		&charge,
		&reason,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("scan booking: %w", err)
	}

	if err := json.Unmarshal(snapshot, &b.Snapshot); err != nil {
		return domain.Booking{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if key != nil {
		b.IdempotencyKey = *key
	}
	if cancelledAt != nil {
		c := domain.Cancellation{CancelledAt: cancelledAt.UTC()}
		if policyID != nil {
			c.PolicyID = *policyID
		}
		if charge.Valid {
			c.Charge = charge.Decimal
		}
		if reason != nil {
			c.Reason = *reason
		}
		b.Cancellation = &c
	}
	return b, nil
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
