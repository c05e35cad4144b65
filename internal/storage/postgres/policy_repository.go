package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areebimran2/CS-CAS/internal/domain"
)

// PolicyRepository reads the externally managed policy tables: the reserve
// settings singleton and the cancellation policies with their tiers. The
// selling engine never writes these.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// GetActiveReservePolicy returns the most recently created reserve settings
// row. Settings are stored in minutes, as the admin flow writes them.
func (r *PolicyRepository) GetActiveReservePolicy(ctx context.Context) (domain.ReservePolicy, error) {
	const query = `
SELECT id, max_hold_minutes, reminder_scheduled_minutes, allow_extensions, max_extensions, extension_minutes, created_at
FROM reserve_settings
ORDER BY created_at DESC
LIMIT 1`

	var p domain.ReservePolicy
	var maxHoldMinutes, extensionMinutes int
	var reminderMinutes []int32

	err := r.queryRow(ctx, query).Scan(
		&p.ID,
		&maxHoldMinutes,
		&reminderMinutes,
		&p.AllowExtensions,
		&p.MaxExtensions,
		&extensionMinutes,
		&p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ReservePolicy{}, domain.ErrReservePolicyNotFound
		}
		return domain.ReservePolicy{}, fmt.Errorf("get reserve policy: %w", err)
	}

	p.MaxHoldDuration = time.Duration(maxHoldMinutes) * time.Minute
	p.ExtensionDuration = time.Duration(extensionMinutes) * time.Minute
	p.ReminderOffsets = make([]time.Duration, 0, len(reminderMinutes))
	for _, m := range reminderMinutes {
		p.ReminderOffsets = append(p.ReminderOffsets, time.Duration(m)*time.Minute)
	}
	return p, nil
}

// GetCancellationPolicy loads a policy with its tiers ordered by min_days.
func (r *PolicyRepository) GetCancellationPolicy(ctx context.Context, id string) (domain.CancellationPolicy, error) {
	const policyQuery = `
SELECT id, name, non_refundable, created_at
FROM cancellation_policies
WHERE id = $1`

	var p domain.CancellationPolicy
	err := r.queryRow(ctx, policyQuery, id).Scan(&p.ID, &p.Name, &p.NonRefundable, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CancellationPolicy{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.CancellationPolicy{}, domain.ErrCancellationPolicyNotFound
		}
		return domain.CancellationPolicy{}, fmt.Errorf("get cancellation policy: %w", err)
	}

	const tierQuery = `
SELECT id, min_days, max_days, charge_type, value
FROM cancellation_policy_tiers
WHERE policy_id = $1
ORDER BY min_days ASC`

	rows, err := r.query(ctx, tierQuery, id)
	if err != nil {
		return domain.CancellationPolicy{}, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.CancellationPolicyTier
		if err := rows.Scan(&t.ID, &t.MinDays, &t.MaxDays, &t.ChargeType, &t.Value); err != nil {
			return domain.CancellationPolicy{}, fmt.Errorf("scan tier: %w", err)
		}
		p.Tiers = append(p.Tiers, t)
	}
	if rows.Err() != nil {
		return domain.CancellationPolicy{}, fmt.Errorf("iterate tiers: %w", rows.Err())
	}
	return p, nil
}

func (r *PolicyRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PolicyRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
