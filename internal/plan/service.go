package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	maxNameLength = 80
	maxAmount     = 100_000_000_000_00 // cents
	maxMonths     = 480

	// DefaultMaxPlans caps the collection size when no limit is
	// configured.
	DefaultMaxPlans = 20
)

// ValidationError reports bad input on a specific field. It is surfaced
// immediately and never retried or queued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Service implements the plan business rules over any storage backend:
// creation with sibling deactivation, partial updates, delete with
// cascade and successor election, and active-plan switching.
type Service struct {
	store    Store
	maxPlans int
}

func NewService(store Store, maxPlans int) *Service {
	if maxPlans <= 0 {
		maxPlans = DefaultMaxPlans
	}

	return &Service{store: store, maxPlans: maxPlans}
}

type CreateParams struct {
	Name        string
	TotalAmount int64
	Term        MonthTerm
	Owner       DebtOwner
}

// Create validates and persists a new plan as the active one. The whole
// collection is rewritten in a single save so sibling deactivation and
// the append land together.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Plan, error) {
	name, err := validateName(params.Name)
	if err != nil {
		return nil, err
	}

	if err := validateAmount(params.TotalAmount); err != nil {
		return nil, err
	}

	if err := validateTerm(params.Term); err != nil {
		return nil, err
	}

	plans, err := s.store.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}

	if len(plans) >= s.maxPlans {
		return nil, &ValidationError{
			Field:   "plans",
			Message: fmt.Sprintf("plan limit of %d reached", s.maxPlans),
		}
	}

	for i := range plans {
		plans[i].Active = false
	}

	p := Plan{
		ID:             uuid.NewString(),
		Name:           name,
		TotalAmount:    params.TotalAmount,
		Term:           params.Term,
		MonthlyPayment: MonthlyPaymentFor(params.TotalAmount, params.Term),
		Owner:          params.Owner.Normalize(),
		CreatedAt:      time.Now().UTC(),
		Active:         true,
	}
	plans = append(plans, p)

	if err := s.store.SavePlans(ctx, plans); err != nil {
		return nil, fmt.Errorf("saving plans: %w", err)
	}

	if err := s.store.SetActivePlanID(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("saving active plan id: %w", err)
	}

	return &p, nil
}

type UpdateParams struct {
	Name        *string
	TotalAmount *int64
	Term        *MonthTerm
	Owner       *DebtOwner
}

// Update merges the given fields into an existing plan and persists the
// full collection. Name and amount are re-validated when changed; the
// monthly payment is re-derived when the amount or term changes.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Plan, error) {
	plans, err := s.store.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}

	idx := indexOf(plans, id)
	if idx < 0 {
		return nil, fmt.Errorf("updating plan %s: %w", id, ErrNotFound)
	}

	p := &plans[idx]

	if params.Name != nil {
		name, err := validateName(*params.Name)
		if err != nil {
			return nil, err
		}

		p.Name = name
	}

	if params.TotalAmount != nil {
		if err := validateAmount(*params.TotalAmount); err != nil {
			return nil, err
		}

		p.TotalAmount = *params.TotalAmount
	}

	if params.Term != nil {
		if err := validateTerm(*params.Term); err != nil {
			return nil, err
		}

		p.Term = *params.Term
	}

	if params.TotalAmount != nil || params.Term != nil {
		p.MonthlyPayment = MonthlyPaymentFor(p.TotalAmount, p.Term)
	}

	if params.Owner != nil {
		p.Owner = params.Owner.Normalize()
	}

	if err := s.store.SavePlans(ctx, plans); err != nil {
		return nil, fmt.Errorf("saving plans: %w", err)
	}

	updated := plans[idx]

	return &updated, nil
}

// Delete removes a plan and its payment data. When the deleted plan was
// active, the most-recently-created survivor is promoted; when none
// remain the active pointer is cleared. When it was not active, the
// surviving set is re-asserted to carry exactly one active flag, guarding
// against drift between the flag and the stored pointer.
func (s *Service) Delete(ctx context.Context, id string) error {
	plans, err := s.store.Plans(ctx)
	if err != nil {
		return fmt.Errorf("loading plans: %w", err)
	}

	idx := indexOf(plans, id)
	if idx < 0 {
		return fmt.Errorf("deleting plan %s: %w", id, ErrNotFound)
	}

	wasActive := plans[idx].Active

	// Payment data goes first so a failure here never leaves orphaned
	// records behind a deleted plan.
	if err := s.store.DeletePaymentData(ctx, id); err != nil {
		return fmt.Errorf("deleting payment data: %w", err)
	}

	if err := s.store.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}

	remaining := append(plans[:idx:idx], plans[idx+1:]...)

	if len(remaining) == 0 {
		if err := s.store.ClearActivePlanID(ctx); err != nil {
			return fmt.Errorf("clearing active plan id: %w", err)
		}

		return nil
	}

	var successor string

	if wasActive {
		successor = mostRecent(remaining).ID
	} else {
		activeID, err := s.store.ActivePlanID(ctx)
		if err != nil {
			return fmt.Errorf("loading active plan id: %w", err)
		}

		if prev := ResolveActive(remaining, activeID); prev != nil {
			successor = prev.ID
		}
	}

	for i := range remaining {
		remaining[i].Active = remaining[i].ID == successor
	}

	if err := s.store.SavePlans(ctx, remaining); err != nil {
		return fmt.Errorf("saving plans: %w", err)
	}

	if successor == "" {
		if err := s.store.ClearActivePlanID(ctx); err != nil {
			return fmt.Errorf("clearing active plan id: %w", err)
		}

		return nil
	}

	if err := s.store.SetActivePlanID(ctx, successor); err != nil {
		return fmt.Errorf("saving active plan id: %w", err)
	}

	return nil
}

// SwitchTo activates the target plan and deactivates every other one.
// The collection write lands before the pointer write; there is no
// rollback if the pointer write then fails, and reads tolerate the
// disagreement by falling back to the collection flags.
func (s *Service) SwitchTo(ctx context.Context, id string) (*Plan, error) {
	plans, err := s.store.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}

	idx := indexOf(plans, id)
	if idx < 0 {
		return nil, fmt.Errorf("switching to plan %s: %w", id, ErrNotFound)
	}

	for i := range plans {
		plans[i].Active = i == idx
	}

	if err := s.store.SavePlans(ctx, plans); err != nil {
		return nil, fmt.Errorf("saving plans: %w", err)
	}

	if err := s.store.SetActivePlanID(ctx, id); err != nil {
		return nil, fmt.Errorf("saving active plan id: %w", err)
	}

	target := plans[idx]

	return &target, nil
}

// Active resolves the currently active plan, or nil when no plans exist.
func (s *Service) Active(ctx context.Context) (*Plan, error) {
	return s.store.ActivePlan(ctx)
}

// List returns the full plan collection.
func (s *Service) List(ctx context.Context) ([]Plan, error) {
	return s.store.Plans(ctx)
}

// ResolveActive applies the shared active-plan resolution order to an
// in-memory collection: pointer match, then active flag, then last plan.
func ResolveActive(plans []Plan, activeID string) *Plan {
	if len(plans) == 0 {
		return nil
	}

	if activeID != "" {
		if idx := indexOf(plans, activeID); idx >= 0 {
			return &plans[idx]
		}
	}

	for i := range plans {
		if plans[i].Active {
			return &plans[i]
		}
	}

	return &plans[len(plans)-1]
}

func indexOf(plans []Plan, id string) int {
	for i := range plans {
		if plans[i].ID == id {
			return i
		}
	}

	return -1
}

func mostRecent(plans []Plan) *Plan {
	sorted := make([]Plan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	return &sorted[0]
}

func validateName(name string) (string, error) {
	name = sanitizeName(name)
	if name == "" {
		return "", &ValidationError{Field: "planName", Message: "must not be empty"}
	}

	if len(name) > maxNameLength {
		return "", &ValidationError{
			Field:   "planName",
			Message: fmt.Sprintf("must be at most %d characters", maxNameLength),
		}
	}

	return name, nil
}

// sanitizeName strips control characters and markup delimiters before the
// name is stored or rendered.
func sanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			return -1
		}

		return r
	}, name)

	return strings.TrimSpace(cleaned)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return &ValidationError{Field: "totalAmount", Message: "must be positive"}
	}

	if amount > maxAmount {
		return &ValidationError{Field: "totalAmount", Message: "exceeds the maximum supported amount"}
	}

	return nil
}

func validateTerm(term MonthTerm) error {
	// Only OneTime itself is the sentinel; a negative count is bad input,
	// not a one-time plan.
	if term < OneTime {
		return &ValidationError{
			Field:   "numberOfMonths",
			Message: "must not be negative",
		}
	}

	if term.IsOneTime() {
		return nil
	}

	if term > maxMonths {
		return &ValidationError{
			Field:   "numberOfMonths",
			Message: fmt.Sprintf("must be at most %d", maxMonths),
		}
	}

	return nil
}
