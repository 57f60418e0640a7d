// Package hosted implements the storage contract on a hosted Postgres
// database. Column naming is snake_case on the wire and translated to
// the domain model in the scan helpers.
package hosted

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
	"github.com/avelasco/payplan/internal/storage/local"
)

var _ plan.Store = (*Store)(nil)

// Store is the hosted backend. The device store holds the active-plan
// pointer; it may be nil when running server-side, where the pointer
// routes are never exposed.
type Store struct {
	db     *sql.DB
	device *local.Store
}

func New(db *sql.DB, device *local.Store) *Store {
	return &Store{db: db, device: device}
}

// Migrate creates the schema when missing.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id              TEXT PRIMARY KEY,
			plan_name       TEXT NOT NULL,
			total_amount    BIGINT NOT NULL,
			number_of_months INTEGER NOT NULL,
			monthly_payment BIGINT NOT NULL,
			debt_owner      TEXT NOT NULL DEFAULT 'self',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active       BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS plan_payments (
			plan_id     TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
			month_index INTEGER NOT NULL,
			status      TEXT NOT NULL,
			paid_at     TIMESTAMPTZ,
			PRIMARY KEY (plan_id, month_index)
		)`,
		`CREATE TABLE IF NOT EXISTS plan_totals (
			plan_id    TEXT PRIMARY KEY REFERENCES plans(id) ON DELETE CASCADE,
			total_paid BIGINT NOT NULL,
			remaining  BIGINT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectPlanColumns = `
	id, plan_name, total_amount, number_of_months, monthly_payment, debt_owner, created_at, is_active
`

func scanPlan(s scanner) (plan.Plan, error) {
	var (
		p      plan.Plan
		months int
		owner  string
	)

	if err := s.Scan(
		&p.ID, &p.Name, &p.TotalAmount, &months, &p.MonthlyPayment, &owner, &p.CreatedAt, &p.Active,
	); err != nil {
		return plan.Plan{}, err
	}

	p.Term = plan.MonthTerm(months)
	p.Owner = plan.DebtOwner(owner).Normalize()

	return p, nil
}

func (s *Store) Plans(ctx context.Context) ([]plan.Plan, error) {
	query := `SELECT ` + selectPlanColumns + ` FROM plans ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storage.NewError(storage.KindInternal, "Plans", "listing plans", err)
	}
	defer rows.Close()

	plans := []plan.Plan{}

	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, storage.NewError(storage.KindInternal, "Plans", "scanning plan", err)
		}

		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.NewError(storage.KindInternal, "Plans", "iterating plans", err)
	}

	return plans, nil
}

func (s *Store) SavePlan(ctx context.Context, p plan.Plan) error {
	return s.upsertPlan(ctx, s.db, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsertPlan(ctx context.Context, db execer, p plan.Plan) error {
	query := `
		INSERT INTO plans (id, plan_name, total_amount, number_of_months, monthly_payment, debt_owner, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			plan_name = EXCLUDED.plan_name,
			total_amount = EXCLUDED.total_amount,
			number_of_months = EXCLUDED.number_of_months,
			monthly_payment = EXCLUDED.monthly_payment,
			debt_owner = EXCLUDED.debt_owner,
			is_active = EXCLUDED.is_active
	`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, query,
		p.ID, p.Name, p.TotalAmount, int(p.Term), p.MonthlyPayment, string(p.Owner.Normalize()), createdAt, p.Active,
	)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePlan", "upserting plan", err)
	}

	return nil
}

func (s *Store) SavePlans(ctx context.Context, plans []plan.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePlans", "beginning transaction", err)
	}
	defer tx.Rollback()

	for _, p := range plans {
		if err := s.upsertPlan(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewError(storage.KindInternal, "SavePlans", "committing", err)
	}

	return nil
}

// DeletePlan removes the plan row; payments and totals go with it via
// the referential cascade.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id); err != nil {
		return storage.NewError(storage.KindInternal, "DeletePlan", "deleting plan", err)
	}

	return nil
}

func (s *Store) ActivePlanID(ctx context.Context) (string, error) {
	if s.device == nil {
		return "", nil
	}

	return s.device.ActivePlanID(ctx)
}

func (s *Store) SetActivePlanID(ctx context.Context, id string) error {
	if s.device == nil {
		return storage.NewError(storage.KindConfig, "SetActivePlanID", "no device store attached", nil)
	}

	return s.device.SetActivePlanID(ctx, id)
}

func (s *Store) ClearActivePlanID(ctx context.Context) error {
	if s.device == nil {
		return storage.NewError(storage.KindConfig, "ClearActivePlanID", "no device store attached", nil)
	}

	return s.device.ClearActivePlanID(ctx)
}

func (s *Store) ActivePlan(ctx context.Context) (*plan.Plan, error) {
	plans, err := s.Plans(ctx)
	if err != nil {
		slog.Warn("resolving active plan failed, degrading to none", "op", "ActivePlan", "error", err)
		return nil, nil
	}

	activeID, err := s.ActivePlanID(ctx)
	if err != nil {
		activeID = ""
	}

	return plan.ResolveActive(plans, activeID), nil
}

func (s *Store) PaymentStatus(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	query := `SELECT month_index, status FROM plan_payments WHERE plan_id = $1 ORDER BY month_index ASC`

	rows, err := s.db.QueryContext(ctx, query, planID)
	if err != nil {
		slog.Warn("reading payment status failed, degrading to empty",
			"op", "PaymentStatus", "planId", planID, "error", err)

		return []plan.PaymentStatus{}, nil
	}
	defer rows.Close()

	type row struct {
		index  int
		status plan.PaymentStatus
	}

	var entries []row

	size := 0

	for rows.Next() {
		var r row
		if err := rows.Scan(&r.index, &r.status); err != nil {
			return nil, storage.NewError(storage.KindInternal, "PaymentStatus", "scanning payment row", err)
		}

		entries = append(entries, r)

		if r.index+1 > size {
			size = r.index + 1
		}
	}

	if err := rows.Err(); err != nil {
		return nil, storage.NewError(storage.KindInternal, "PaymentStatus", "iterating payment rows", err)
	}

	statuses := make([]plan.PaymentStatus, size)
	for i := range statuses {
		statuses[i] = plan.StatusPending
	}

	for _, e := range entries {
		if e.index >= 0 {
			statuses[e.index] = e.status
		}
	}

	return statuses, nil
}

// SavePaymentStatus is a full replace: delete then insert inside one
// transaction.
func (s *Store) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentStatus", "beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_payments WHERE plan_id = $1`, planID); err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentStatus", "clearing payment rows", err)
	}

	query := `INSERT INTO plan_payments (plan_id, month_index, status, paid_at) VALUES ($1, $2, $3, $4)`

	for i, st := range statuses {
		var paidAt *time.Time

		if st.IsPaid() {
			now := time.Now().UTC()
			paidAt = &now
		}

		if _, err := tx.ExecContext(ctx, query, planID, i, string(st), paidAt); err != nil {
			return storage.NewError(storage.KindInternal, "SavePaymentStatus", "inserting payment row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentStatus", "committing", err)
	}

	return nil
}

func (s *Store) PaymentTotals(ctx context.Context, planID string) (*plan.TotalsSnapshot, error) {
	var totals plan.TotalsSnapshot

	err := s.db.QueryRowContext(ctx,
		`SELECT total_paid, remaining FROM plan_totals WHERE plan_id = $1`, planID,
	).Scan(&totals.TotalPaid, &totals.Remaining)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		slog.Warn("reading totals failed, degrading to absent",
			"op", "PaymentTotals", "planId", planID, "error", err)

		return nil, nil
	}

	return &totals, nil
}

func (s *Store) SavePaymentTotals(ctx context.Context, planID string, totals plan.TotalsSnapshot) error {
	query := `
		INSERT INTO plan_totals (plan_id, total_paid, remaining)
		VALUES ($1, $2, $3)
		ON CONFLICT (plan_id) DO UPDATE SET
			total_paid = EXCLUDED.total_paid,
			remaining = EXCLUDED.remaining
	`

	if _, err := s.db.ExecContext(ctx, query, planID, totals.TotalPaid, totals.Remaining); err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentTotals", "upserting totals", err)
	}

	return nil
}

// DeletePaymentData removes payment rows and the totals snapshot,
// best-effort.
func (s *Store) DeletePaymentData(ctx context.Context, planID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plan_payments WHERE plan_id = $1`, planID); err != nil {
		slog.Warn("deleting payment rows failed", "op", "DeletePaymentData", "planId", planID, "error", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM plan_totals WHERE plan_id = $1`, planID); err != nil {
		slog.Warn("deleting totals failed", "op", "DeletePaymentData", "planId", planID, "error", err)
	}

	return nil
}
