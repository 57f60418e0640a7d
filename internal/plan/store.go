package plan

import "context"

//go:generate mockgen -source=store.go -destination=store_mock.go -package=plan

// Store is the capability set every storage backend implements. Three
// backends speak this contract over different media: the device-local
// store, the HTTP API, and the hosted Postgres database.
//
// The active-plan pointer is device/session state: even remote backends
// keep it in the device-local store rather than round-tripping it.
type Store interface {
	Plans(ctx context.Context) ([]Plan, error)
	// SavePlan upserts a single plan by id.
	SavePlan(ctx context.Context, p Plan) error
	// SavePlans bulk-upserts the full collection.
	SavePlans(ctx context.Context, plans []Plan) error
	// DeletePlan removes the plan and its payment data.
	DeletePlan(ctx context.Context, id string) error

	// ActivePlanID returns the stored pointer, or "" when unset.
	ActivePlanID(ctx context.Context) (string, error)
	SetActivePlanID(ctx context.Context, id string) error
	ClearActivePlanID(ctx context.Context) error
	// ActivePlan resolves the pointer against the collection, falling
	// back to the isActive flag, then the last plan, then nil.
	ActivePlan(ctx context.Context) (*Plan, error)

	// PaymentStatus returns the ordered per-month sequence, empty if
	// none recorded.
	PaymentStatus(ctx context.Context, planID string) ([]PaymentStatus, error)
	// SavePaymentStatus replaces the full sequence.
	SavePaymentStatus(ctx context.Context, planID string, statuses []PaymentStatus) error
	PaymentTotals(ctx context.Context, planID string) (*TotalsSnapshot, error)
	SavePaymentTotals(ctx context.Context, planID string, totals TotalsSnapshot) error
	// DeletePaymentData removes status and totals, best-effort.
	DeletePaymentData(ctx context.Context, planID string) error
}
