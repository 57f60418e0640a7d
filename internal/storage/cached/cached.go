// Package cached decorates any storage backend with a Redis cache for
// totals snapshots. Cache failures degrade to the inner backend and
// never fail the call.
package cached

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelasco/payplan/internal/plan"
)

var _ plan.Store = (*Store)(nil)

type Store struct {
	inner plan.Store
	rdb   *redis.Client
	ttl   time.Duration
}

func New(inner plan.Store, rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Store{inner: inner, rdb: rdb, ttl: ttl}
}

func totalsKey(planID string) string {
	return "payplan:totals:" + planID
}

func (s *Store) PaymentTotals(ctx context.Context, planID string) (*plan.TotalsSnapshot, error) {
	raw, err := s.rdb.Get(ctx, totalsKey(planID)).Result()
	if err == nil {
		var totals plan.TotalsSnapshot
		if err := json.Unmarshal([]byte(raw), &totals); err == nil {
			return &totals, nil
		}

		slog.Warn("cached totals are unreadable, falling through", "planId", planID)
	}

	totals, err := s.inner.PaymentTotals(ctx, planID)
	if err != nil || totals == nil {
		return totals, err
	}

	s.put(ctx, planID, *totals)

	return totals, nil
}

func (s *Store) SavePaymentTotals(ctx context.Context, planID string, totals plan.TotalsSnapshot) error {
	if err := s.inner.SavePaymentTotals(ctx, planID, totals); err != nil {
		return err
	}

	s.put(ctx, planID, totals)

	return nil
}

// SavePaymentStatus invalidates the cached snapshot: the sequence just
// changed, so the snapshot is stale until someone recomputes it.
func (s *Store) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus) error {
	if err := s.inner.SavePaymentStatus(ctx, planID, statuses); err != nil {
		return err
	}

	s.invalidate(ctx, planID)

	return nil
}

func (s *Store) DeletePaymentData(ctx context.Context, planID string) error {
	err := s.inner.DeletePaymentData(ctx, planID)

	s.invalidate(ctx, planID)

	return err
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	err := s.inner.DeletePlan(ctx, id)

	s.invalidate(ctx, id)

	return err
}

func (s *Store) put(ctx context.Context, planID string, totals plan.TotalsSnapshot) {
	raw, err := json.Marshal(totals)
	if err != nil {
		return
	}

	if err := s.rdb.Set(ctx, totalsKey(planID), raw, s.ttl).Err(); err != nil {
		slog.Warn("caching totals failed", "planId", planID, "error", err)
	}
}

func (s *Store) invalidate(ctx context.Context, planID string) {
	if err := s.rdb.Del(ctx, totalsKey(planID)).Err(); err != nil {
		slog.Warn("invalidating cached totals failed", "planId", planID, "error", err)
	}
}

func (s *Store) Plans(ctx context.Context) ([]plan.Plan, error) {
	return s.inner.Plans(ctx)
}

func (s *Store) SavePlan(ctx context.Context, p plan.Plan) error {
	return s.inner.SavePlan(ctx, p)
}

func (s *Store) SavePlans(ctx context.Context, plans []plan.Plan) error {
	return s.inner.SavePlans(ctx, plans)
}

func (s *Store) ActivePlanID(ctx context.Context) (string, error) {
	return s.inner.ActivePlanID(ctx)
}

func (s *Store) SetActivePlanID(ctx context.Context, id string) error {
	return s.inner.SetActivePlanID(ctx, id)
}

func (s *Store) ClearActivePlanID(ctx context.Context) error {
	return s.inner.ClearActivePlanID(ctx)
}

func (s *Store) ActivePlan(ctx context.Context) (*plan.Plan, error) {
	return s.inner.ActivePlan(ctx)
}

func (s *Store) PaymentStatus(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	return s.inner.PaymentStatus(ctx, planID)
}
