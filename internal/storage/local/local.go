// Package local implements the storage contract on a device-local SQLite
// file holding namespaced JSON values in a single key/value table.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
)

// Namespaced keys of the device store. The sync queue and the auth token
// share the same medium through the raw item accessors.
const (
	keyPlans      = "payplan.plans"
	keyActivePlan = "payplan.activePlan"
	keyTheme      = "payplan.theme"
	keyAuthToken  = "payplan.authToken"
	prefixStatus  = "payplan.paymentStatus."
	prefixTotals  = "payplan.paymentTotals."
)

// DefaultMaxValueBytes caps a single serialized value. Oversized writes
// are rejected before they reach the driver.
const DefaultMaxValueBytes = 1 << 20

var _ plan.Store = (*Store)(nil)

type Options struct {
	MaxValueBytes int
}

// Store is the device-local backend. It also backs the active-plan
// pointer and credentials for the remote and hosted backends.
type Store struct {
	db       *sql.DB
	maxValue int
}

// Open creates the parent directory, opens the SQLite file and ensures
// the kv table exists.
func Open(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening device store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	maxValue := opts.MaxValueBytes
	if maxValue <= 0 {
		maxValue = DefaultMaxValueBytes
	}

	return &Store{db: db, maxValue: maxValue}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Item returns the raw value for a key, or nil when absent.
func (s *Store) Item(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, storage.NewError(storage.KindInternal, "Item", fmt.Sprintf("reading %s", key), err)
	}

	return value, nil
}

// PutItem writes a raw value, enforcing the serialized-size cap and
// mapping full-disk failures to the quota error kind.
func (s *Store) PutItem(ctx context.Context, key string, value []byte) error {
	if len(value) > s.maxValue {
		return storage.NewError(storage.KindQuotaExceeded, "PutItem",
			fmt.Sprintf("value for %s is %d bytes, cap is %d", key, len(value), s.maxValue), nil)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		if isFullErr(err) {
			return storage.NewError(storage.KindQuotaExceeded, "PutItem",
				fmt.Sprintf("device store full writing %s", key), err)
		}

		return storage.NewError(storage.KindInternal, "PutItem", fmt.Sprintf("writing %s", key), err)
	}

	return nil
}

func (s *Store) DeleteItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return storage.NewError(storage.KindInternal, "DeleteItem", fmt.Sprintf("deleting %s", key), err)
	}

	return nil
}

func isFullErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database or disk is full")
}

func (s *Store) Plans(ctx context.Context) ([]plan.Plan, error) {
	raw, err := s.Item(ctx, keyPlans)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return []plan.Plan{}, nil
	}

	var plans []plan.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		// Unlike the per-plan records, a corrupted plan collection is
		// escalated: degrading it to empty would look like data loss.
		return nil, storage.NewError(storage.KindCorruptData, "Plans", "plan collection is unreadable", err)
	}

	return plans, nil
}

func (s *Store) SavePlan(ctx context.Context, p plan.Plan) error {
	plans, err := s.Plans(ctx)
	if err != nil {
		return err
	}

	replaced := false

	for i := range plans {
		if plans[i].ID == p.ID {
			plans[i] = p
			replaced = true

			break
		}
	}

	if !replaced {
		plans = append(plans, p)
	}

	return s.SavePlans(ctx, plans)
}

func (s *Store) SavePlans(ctx context.Context, plans []plan.Plan) error {
	raw, err := json.Marshal(plans)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePlans", "encoding plan collection", err)
	}

	return s.PutItem(ctx, keyPlans, raw)
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	plans, err := s.Plans(ctx)
	if err != nil {
		return err
	}

	kept := plans[:0]

	for _, p := range plans {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	if err := s.SavePlans(ctx, kept); err != nil {
		return err
	}

	return s.DeletePaymentData(ctx, id)
}

func (s *Store) ActivePlanID(ctx context.Context) (string, error) {
	raw, err := s.Item(ctx, keyActivePlan)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func (s *Store) SetActivePlanID(ctx context.Context, id string) error {
	return s.PutItem(ctx, keyActivePlan, []byte(id))
}

func (s *Store) ClearActivePlanID(ctx context.Context) error {
	return s.DeleteItem(ctx, keyActivePlan)
}

func (s *Store) ActivePlan(ctx context.Context) (*plan.Plan, error) {
	plans, err := s.Plans(ctx)
	if err != nil {
		return nil, err
	}

	activeID, err := s.ActivePlanID(ctx)
	if err != nil {
		slog.Warn("reading active plan id failed", "op", "ActivePlan", "error", err)

		activeID = ""
	}

	return plan.ResolveActive(plans, activeID), nil
}

func (s *Store) PaymentStatus(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	raw, err := s.Item(ctx, prefixStatus+planID)
	if err != nil || raw == nil {
		return []plan.PaymentStatus{}, err
	}

	var statuses []plan.PaymentStatus
	if err := json.Unmarshal(raw, &statuses); err != nil {
		slog.Warn("stored payment status is unreadable, treating as empty",
			"op", "PaymentStatus", "planId", planID, "error", err)

		return []plan.PaymentStatus{}, nil
	}

	return statuses, nil
}

func (s *Store) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus) error {
	raw, err := json.Marshal(statuses)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentStatus", "encoding payment status", err)
	}

	return s.PutItem(ctx, prefixStatus+planID, raw)
}

func (s *Store) PaymentTotals(ctx context.Context, planID string) (*plan.TotalsSnapshot, error) {
	raw, err := s.Item(ctx, prefixTotals+planID)
	if err != nil || raw == nil {
		return nil, err
	}

	var totals plan.TotalsSnapshot
	if err := json.Unmarshal(raw, &totals); err != nil {
		slog.Warn("stored totals are unreadable, treating as absent",
			"op", "PaymentTotals", "planId", planID, "error", err)

		return nil, nil
	}

	return &totals, nil
}

func (s *Store) SavePaymentTotals(ctx context.Context, planID string, totals plan.TotalsSnapshot) error {
	raw, err := json.Marshal(totals)
	if err != nil {
		return storage.NewError(storage.KindInternal, "SavePaymentTotals", "encoding totals", err)
	}

	return s.PutItem(ctx, prefixTotals+planID, raw)
}

// DeletePaymentData removes the status sequence and totals snapshot.
// Best-effort: partial failures are logged, never returned.
func (s *Store) DeletePaymentData(ctx context.Context, planID string) error {
	if err := s.DeleteItem(ctx, prefixStatus+planID); err != nil {
		slog.Warn("deleting payment status failed", "op", "DeletePaymentData", "planId", planID, "error", err)
	}

	if err := s.DeleteItem(ctx, prefixTotals+planID); err != nil {
		slog.Warn("deleting payment totals failed", "op", "DeletePaymentData", "planId", planID, "error", err)
	}

	return nil
}

// Theme returns the stored UI theme preference, or "" when unset.
func (s *Store) Theme(ctx context.Context) (string, error) {
	raw, err := s.Item(ctx, keyTheme)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.PutItem(ctx, keyTheme, []byte(theme))
}

// Token returns the stored API credential, or "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	raw, err := s.Item(ctx, keyAuthToken)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.PutItem(ctx, keyAuthToken, []byte(token))
}

func (s *Store) ClearToken(ctx context.Context) error {
	return s.DeleteItem(ctx, keyAuthToken)
}
