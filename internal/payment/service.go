// Package payment computes paid/remaining totals for a plan's per-month
// status sequence, with a cache-first short-circuit through stored
// snapshots.
package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avelasco/payplan/internal/plan"
)

type Service struct {
	store plan.Store
}

func NewService(store plan.Store) *Service {
	return &Service{store: store}
}

// PaymentStatusFor returns the stored per-month status sequence for a
// plan, empty when none was recorded.
func (s *Service) PaymentStatusFor(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	statuses, err := s.store.PaymentStatus(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("loading payment status: %w", err)
	}

	return statuses, nil
}

// PaidMonthsCount counts the paid entries in the stored status sequence,
// accepting the legacy paid spelling.
func (s *Service) PaidMonthsCount(ctx context.Context, planID string) (int, error) {
	statuses, err := s.store.PaymentStatus(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("loading payment status: %w", err)
	}

	count := 0

	for _, st := range statuses {
		if st.IsPaid() {
			count++
		}
	}

	return count, nil
}

// PlanPaymentStatus returns the totals for a plan. A stored snapshot wins
// unconditionally — it is not validated against the status sequence, so
// callers must invalidate it on every status mutation. Without a
// snapshot the totals are computed from the status sequence and the
// plan's amounts; an unknown plan id yields zero totals rather than an
// error, since callers probe speculatively.
func (s *Service) PlanPaymentStatus(ctx context.Context, planID string, allPlans []plan.Plan) (plan.TotalsSnapshot, error) {
	cached, err := s.store.PaymentTotals(ctx, planID)
	if err != nil {
		slog.Warn("reading cached totals failed, recomputing", "op", "PlanPaymentStatus", "planId", planID, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	statuses, err := s.store.PaymentStatus(ctx, planID)
	if err != nil {
		return plan.TotalsSnapshot{}, fmt.Errorf("loading payment status: %w", err)
	}

	if len(statuses) == 0 {
		return plan.TotalsSnapshot{}, nil
	}

	for i := range allPlans {
		if allPlans[i].ID == planID {
			return ComputeTotals(allPlans[i], statuses), nil
		}
	}

	return plan.TotalsSnapshot{}, nil
}

// ComputeTotals derives a snapshot from a status sequence. The last
// monthly installment absorbs the division remainder so a fully paid
// plan always sums to TotalAmount exactly.
func ComputeTotals(p plan.Plan, statuses []plan.PaymentStatus) plan.TotalsSnapshot {
	var paid int64

	for i, st := range statuses {
		if st.IsPaid() {
			paid += p.InstallmentAmount(i)
		}
	}

	return plan.TotalsSnapshot{
		TotalPaid: paid,
		Remaining: p.TotalAmount - paid,
	}
}

// SaveOptions carries the optional inputs to SavePaymentStatus. Totals
// take precedence when supplied; otherwise AllPlans enables derivation.
type SaveOptions struct {
	Totals   *plan.TotalsSnapshot
	AllPlans []plan.Plan
}

// SavePaymentStatus always persists the status sequence. Totals are
// persisted only when supplied or derivable from AllPlans; with neither,
// the snapshot is left alone and keeping it in sync stays the caller's
// responsibility.
func (s *Service) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus, opts SaveOptions) error {
	if err := s.store.SavePaymentStatus(ctx, planID, statuses); err != nil {
		return fmt.Errorf("saving payment status: %w", err)
	}

	totals := opts.Totals

	if totals == nil && opts.AllPlans != nil {
		for i := range opts.AllPlans {
			if opts.AllPlans[i].ID == planID {
				derived := ComputeTotals(opts.AllPlans[i], statuses)
				totals = &derived

				break
			}
		}
	}

	if totals == nil {
		return nil
	}

	if err := s.store.SavePaymentTotals(ctx, planID, *totals); err != nil {
		return fmt.Errorf("saving payment totals: %w", err)
	}

	return nil
}

// ClearPaymentRecords drops the status sequence and totals for a plan.
func (s *Service) ClearPaymentRecords(ctx context.Context, planID string) error {
	return s.store.DeletePaymentData(ctx, planID)
}

// Toggle is a checkbox-like record used for immediate UI feedback.
type Toggle struct {
	Amount int64
	Paid   bool
}

// TotalsFromToggles computes a snapshot directly from toggle records
// without consulting storage.
func TotalsFromToggles(toggles []Toggle) plan.TotalsSnapshot {
	var paid, total int64

	for _, t := range toggles {
		total += t.Amount
		if t.Paid {
			paid += t.Amount
		}
	}

	return plan.TotalsSnapshot{TotalPaid: paid, Remaining: total - paid}
}
