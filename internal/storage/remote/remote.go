// Package remote implements the storage contract against the payplan
// HTTP API. Responses use the {success, data, error, message} envelope;
// auth is a bearer token kept in the device store and injected per
// request.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avelasco/payplan/internal/httpclient"
	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
	"github.com/avelasco/payplan/internal/storage/local"
)

var _ plan.Store = (*Store)(nil)

// Store talks to the remote API for plan and payment data. The
// active-plan pointer stays on the device: it is session state, not
// domain state.
type Store struct {
	client *httpclient.Client
	device *local.Store
}

// New wires the auth interceptors into the client: the request
// interceptor injects the stored bearer token, the response interceptor
// clears the stored credential when the server answers 401.
func New(client *httpclient.Client, device *local.Store) *Store {
	s := &Store{client: client, device: device}

	client.OnRequest(func(req *http.Request) error {
		token, err := device.Token(req.Context())
		if err != nil {
			slog.Warn("reading stored credential failed", "op", "remote.request", "error", err)
			return nil
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		return nil
	})

	client.OnResponse(func(resp *http.Response) error {
		if resp.StatusCode == http.StatusUnauthorized {
			if err := device.ClearToken(resp.Request.Context()); err != nil {
				slog.Warn("clearing expired credential failed", "op", "remote.response", "error", err)
			} else {
				slog.Info("credential expired, cleared local session")
			}
		}

		return nil
	})

	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// call performs a request and unpacks the envelope into out.
func (s *Store) call(ctx context.Context, method, path string, body, out any) error {
	var env envelope

	if err := s.client.Do(ctx, method, path, body, &env); err != nil {
		return err
	}

	if !env.Success {
		return fmt.Errorf("api error: %s", env.Error)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding api data: %w", err)
		}
	}

	return nil
}

// writeErr maps a failed write to the uniform storage error taxonomy.
func writeErr(op string, err error) error {
	kind := storage.KindInternal
	if storage.IsNetwork(err) {
		kind = storage.KindNetwork
	}

	return storage.NewError(kind, op, "remote write failed", err)
}

func (s *Store) Plans(ctx context.Context) ([]plan.Plan, error) {
	var plans []plan.Plan
	if err := s.call(ctx, http.MethodGet, "/plans", nil, &plans); err != nil {
		kind := storage.KindInternal
		if storage.IsNetwork(err) {
			kind = storage.KindNetwork
		}

		return nil, storage.NewError(kind, "Plans", "listing plans", err)
	}

	if plans == nil {
		plans = []plan.Plan{}
	}

	return plans, nil
}

// SavePlan upserts: the update route rejects unknown ids, so a 404
// falls back to the bulk route, which preserves client-assigned ids.
func (s *Store) SavePlan(ctx context.Context, p plan.Plan) error {
	err := s.call(ctx, http.MethodPut, "/plans/"+url.PathEscape(p.ID), p, nil)
	if err == nil {
		return nil
	}

	if !notFound(err) {
		return writeErr("SavePlan", err)
	}

	if err := s.call(ctx, http.MethodPost, "/plans/bulk", bulkRequest{Plans: []plan.Plan{p}}, nil); err != nil {
		return writeErr("SavePlan", err)
	}

	return nil
}

type bulkRequest struct {
	Plans []plan.Plan `json:"plans"`
}

func (s *Store) SavePlans(ctx context.Context, plans []plan.Plan) error {
	if err := s.call(ctx, http.MethodPost, "/plans/bulk", bulkRequest{Plans: plans}, nil); err != nil {
		return writeErr("SavePlans", err)
	}

	return nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	// Payment data is cascaded server-side.
	if err := s.call(ctx, http.MethodDelete, "/plans/"+url.PathEscape(id), nil, nil); err != nil {
		return writeErr("DeletePlan", err)
	}

	return nil
}

func (s *Store) ActivePlanID(ctx context.Context) (string, error) {
	return s.device.ActivePlanID(ctx)
}

func (s *Store) SetActivePlanID(ctx context.Context, id string) error {
	return s.device.SetActivePlanID(ctx, id)
}

func (s *Store) ClearActivePlanID(ctx context.Context) error {
	return s.device.ClearActivePlanID(ctx)
}

// ActivePlan degrades to nil when the plan list cannot be fetched so the
// UI stays usable offline.
func (s *Store) ActivePlan(ctx context.Context) (*plan.Plan, error) {
	plans, err := s.Plans(ctx)
	if err != nil {
		slog.Warn("resolving active plan failed, degrading to none", "op", "ActivePlan", "error", err)
		return nil, nil
	}

	activeID, err := s.device.ActivePlanID(ctx)
	if err != nil {
		activeID = ""
	}

	return plan.ResolveActive(plans, activeID), nil
}

// statusEntry is the wire form of one month's payment state.
type statusEntry struct {
	MonthIndex int                `json:"monthIndex"`
	Status     plan.PaymentStatus `json:"status"`
	Amount     int64              `json:"amount,omitempty"`
	PaidAt     *time.Time         `json:"paidAt,omitempty"`
}

type statusPayload struct {
	Status []statusEntry `json:"status"`
}

func (s *Store) PaymentStatus(ctx context.Context, planID string) ([]plan.PaymentStatus, error) {
	var payload statusPayload
	if err := s.call(ctx, http.MethodGet, "/plans/"+url.PathEscape(planID)+"/payments", nil, &payload); err != nil {
		if notFound(err) {
			return []plan.PaymentStatus{}, nil
		}

		slog.Warn("reading payment status failed, degrading to empty",
			"op", "PaymentStatus", "planId", planID, "error", err)

		return []plan.PaymentStatus{}, nil
	}

	return entriesToStatuses(payload.Status), nil
}

func (s *Store) SavePaymentStatus(ctx context.Context, planID string, statuses []plan.PaymentStatus) error {
	payload := statusPayload{Status: make([]statusEntry, len(statuses))}
	now := time.Now().UTC()
	amounts := s.installmentAmounts(ctx, planID, len(statuses))

	for i, st := range statuses {
		entry := statusEntry{MonthIndex: i, Status: st}
		if amounts != nil {
			entry.Amount = amounts[i]
		}
		if st.IsPaid() {
			entry.PaidAt = &now
		}

		payload.Status[i] = entry
	}

	if err := s.call(ctx, http.MethodPut, "/plans/"+url.PathEscape(planID)+"/payments", payload, nil); err != nil {
		return writeErr("SavePaymentStatus", err)
	}

	return nil
}

// installmentAmounts resolves the per-month amounts for the wire body.
// Amount is optional on the wire, so a failed plan lookup returns nil
// and the entries go out without it.
func (s *Store) installmentAmounts(ctx context.Context, planID string, months int) []int64 {
	plans, err := s.Plans(ctx)
	if err != nil {
		slog.Warn("resolving installment amounts failed, omitting",
			"op", "SavePaymentStatus", "planId", planID, "error", err)
		return nil
	}

	for _, p := range plans {
		if p.ID != planID {
			continue
		}

		amounts := make([]int64, months)
		for i := range amounts {
			amounts[i] = p.InstallmentAmount(i)
		}

		return amounts
	}

	return nil
}

func (s *Store) PaymentTotals(ctx context.Context, planID string) (*plan.TotalsSnapshot, error) {
	var totals *plan.TotalsSnapshot
	if err := s.call(ctx, http.MethodGet, "/plans/"+url.PathEscape(planID)+"/totals", nil, &totals); err != nil {
		if notFound(err) {
			return nil, nil
		}

		slog.Warn("reading totals failed, degrading to absent",
			"op", "PaymentTotals", "planId", planID, "error", err)

		return nil, nil
	}

	return totals, nil
}

func (s *Store) SavePaymentTotals(ctx context.Context, planID string, totals plan.TotalsSnapshot) error {
	if err := s.call(ctx, http.MethodPut, "/plans/"+url.PathEscape(planID)+"/totals", totals, nil); err != nil {
		return writeErr("SavePaymentTotals", err)
	}

	return nil
}

// DeletePaymentData is best-effort: the server treats it the same way.
func (s *Store) DeletePaymentData(ctx context.Context, planID string) error {
	if err := s.call(ctx, http.MethodDelete, "/plans/"+url.PathEscape(planID)+"/payments", nil, nil); err != nil {
		slog.Warn("deleting payment data failed", "op", "DeletePaymentData", "planId", planID, "error", err)
	}

	return nil
}

// entriesToStatuses densifies wire entries into the ordered sequence,
// filling gaps with pending.
func entriesToStatuses(entries []statusEntry) []plan.PaymentStatus {
	size := 0

	for _, e := range entries {
		if e.MonthIndex+1 > size {
			size = e.MonthIndex + 1
		}
	}

	statuses := make([]plan.PaymentStatus, size)
	for i := range statuses {
		statuses[i] = plan.StatusPending
	}

	for _, e := range entries {
		if e.MonthIndex >= 0 {
			statuses[e.MonthIndex] = e.Status
		}
	}

	return statuses
}

func notFound(err error) bool {
	var httpErr *httpclient.HTTPError

	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}
