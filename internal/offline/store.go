package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avelasco/payplan/internal/plan"
)

var _ plan.Store = (*SyncedStore)(nil)

// SyncedStore decorates a backend so its five replayable mutations run
// through the engine. Reads and the device-local pointer ops pass
// straight through: they are session state and cheap to redo.
type SyncedStore struct {
	inner  plan.Store
	engine *Engine
}

// Store returns the engine's offline-aware view of the backend it
// replays against.
func (e *Engine) Store() *SyncedStore {
	return &SyncedStore{inner: e.store, engine: e}
}

func newOperation(opType OpType, data any) (Operation, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Operation{}, fmt.Errorf("encoding %s payload: %w", opType, err)
	}

	return Operation{
		ID:        uuid.NewString(),
		Type:      opType,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *SyncedStore) SavePlan(ctx context.Context, p plan.Plan) error {
	op, err := newOperation(OpSavePlan, p)
	if err != nil {
		return err
	}

	return s.engine.Execute(ctx, op, func(ctx context.Context) error {
		return s.inner.SavePlan(ctx, p)
	})
}

func (s *SyncedStore) SavePlans(ctx context.Context, plans []plan.Plan) error {
	op, err := newOperation(OpSavePlans, plans)
	if err != nil {
		return err
	}

	return s.engine.Execute(ctx, op, func(ctx context.Context) error {
		return s.inner.SavePlans(ctx, plans)
	})
}

func (s *SyncedStore) DeletePlan(ctx context.Context, id string) error {
	op, err := newOperation(OpDeletePlan, planRef{PlanID: id})
	if err != nil {
		return err
	}

	return s.engine.Execute(ctx, op, func(ctx context.Context) error {
		return s.inner.DeletePlan(ctx, id)
	})
}

func (s *SyncedStore) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus) error {
	op, err := newOperation(OpSavePaymentStatus, statusData{PlanID: planID, Status: statuses})
	if err != nil {
		return err
	}

	return s.engine.Execute(ctx, op, func(ctx context.Context) error {
		return s.inner.SavePaymentStatus(ctx, planID, statuses)
	})
}

func (s *SyncedStore) SavePaymentTotals(ctx context.Context, planID string, totals plan.TotalsSnapshot) error {
	op, err := newOperation(OpSavePaymentTotals, totalsData{PlanID: planID, Totals: totals})
	if err != nil {
		return err
	}

	return s.engine.Execute(ctx, op, func(ctx context.Context) error {
		return s.inner.SavePaymentTotals(ctx, planID, totals)
	})
}

func (s *SyncedStore) Plans(ctx context.Context) ([]plan.Plan, error) {
	return s.inner.Plans(ctx)
}

func (s *SyncedStore) ActivePlanID(ctx context.Context) (string, error) {
	return s.inner.ActivePlanID(ctx)
}

func (s *SyncedStore) SetActivePlanID(ctx context.Context, id string) error {
	return s.inner.SetActivePlanID(ctx, id)
}

func (s *SyncedStore) ClearActivePlanID(ctx context.Context) error {
	return s.inner.ClearActivePlanID(ctx)
}

func (s *SyncedStore) ActivePlan(ctx context.Context) (*plan.Plan, error) {
	return s.inner.ActivePlan(ctx)
}

func (s *SyncedStore) PaymentStatus(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	return s.inner.PaymentStatus(ctx, planID)
}

func (s *SyncedStore) PaymentTotals(ctx context.Context, planID string) (*plan.TotalsSnapshot, error) {
	return s.inner.PaymentTotals(ctx, planID)
}

func (s *SyncedStore) DeletePaymentData(ctx context.Context, planID string) error {
	return s.inner.DeletePaymentData(ctx, planID)
}
