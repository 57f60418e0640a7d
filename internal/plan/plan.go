package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a plan id does not exist in the collection.
var ErrNotFound = errors.New("plan not found")

// DebtOwner indicates the direction of the obligation.
type DebtOwner string

const (
	OwnerSelf  DebtOwner = "self"  // money I owe
	OwnerOther DebtOwner = "other" // money owed to me
)

// Normalize maps the zero value to OwnerSelf. Plans persisted before the
// owner field existed carry no value and must read as self-owned.
func (o DebtOwner) Normalize() DebtOwner {
	if o == "" {
		return OwnerSelf
	}

	return o
}

// PaymentStatus is the per-month state of an installment.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"

	// statusPaidLegacy is accepted on read only; older data stored the
	// paid marker in Spanish.
	statusPaidLegacy PaymentStatus = "pagado"
)

// IsPaid reports whether the status counts as paid, including the legacy
// spelling.
func (s PaymentStatus) IsPaid() bool {
	return s == StatusPaid || s == statusPaidLegacy
}

// MonthTerm is the number of monthly installments of a plan. The zero
// value is the one-time sentinel: a single installment of the full amount.
type MonthTerm int

// OneTime marks a plan paid in a single installment.
const OneTime MonthTerm = 0

func (t MonthTerm) IsOneTime() bool { return t <= 0 }

// Installments returns the number of payment slots: 1 for one-time plans,
// otherwise the month count.
func (t MonthTerm) Installments() int {
	if t.IsOneTime() {
		return 1
	}

	return int(t)
}

// MarshalJSON writes the legacy wire form: the string "one-time" for
// single-installment plans, a plain number otherwise.
func (t MonthTerm) MarshalJSON() ([]byte, error) {
	if t.IsOneTime() {
		return json.Marshal("one-time")
	}

	return json.Marshal(int(t))
}

func (t *MonthTerm) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = MonthTerm(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid month term %s", data)
	}

	if s != "one-time" {
		return fmt.Errorf("invalid month term %q", s)
	}

	*t = OneTime

	return nil
}

// Plan is a payment obligation: a fixed total split over N monthly
// installments, or a single one-time installment.
//
// JSON tags match the original stored format so data written by earlier
// versions of the app keeps loading.
type Plan struct {
	ID             string    `json:"id"`
	Name           string    `json:"planName"`
	TotalAmount    int64     `json:"totalAmount"` // cents
	Term           MonthTerm `json:"numberOfMonths"`
	MonthlyPayment int64     `json:"monthlyPayment"` // cents, fixed at creation
	Owner          DebtOwner `json:"debtOwner,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Active         bool      `json:"isActive"`
}

// InstallmentAmount returns the amount due for the installment at the
// given zero-based index. Monthly payments truncate on division, so the
// last installment absorbs the remainder and the series sums to
// TotalAmount exactly.
func (p Plan) InstallmentAmount(index int) int64 {
	if p.Term.IsOneTime() {
		return p.TotalAmount
	}

	months := int64(p.Term.Installments())
	if int64(index) == months-1 {
		return p.TotalAmount - p.MonthlyPayment*(months-1)
	}

	return p.MonthlyPayment
}

// TotalsSnapshot is a denormalized projection of a plan's payment status.
// It is a cache: the status sequence plus the plan's amounts can always
// regenerate it, and callers must invalidate it on every status mutation.
type TotalsSnapshot struct {
	TotalPaid int64 `json:"totalPaid"`
	Remaining int64 `json:"remaining"`
}

// MonthlyPaymentFor derives the fixed per-month amount stored on a plan
// at creation.
func MonthlyPaymentFor(total int64, term MonthTerm) int64 {
	if term.IsOneTime() {
		return total
	}

	return total / int64(term.Installments())
}
