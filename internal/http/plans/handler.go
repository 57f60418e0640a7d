package plans

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelasco/payplan/internal/plan"
)

// Handler serves the plan wire contract on top of any storage backend.
// Business rules (sibling deactivation, successor election) live in the
// client-side engines; the server is a thin persistence collaborator.
type Handler struct {
	store plan.Store
}

func NewHandler(store plan.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/bulk", h.bulkUpsert)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/payments", h.getPayments)
	r.Put("/{id}/payments", h.savePayments)
	r.Delete("/{id}/payments", h.deletePayments)
	r.Get("/{id}/totals", h.getTotals)
	r.Put("/{id}/totals", h.saveTotals)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	plans, err := h.store.Plans(r.Context())
	if err != nil {
		internalError(w, "list plans", err)
		return
	}

	respond(w, http.StatusOK, plans)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.findPlan(r, id)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}

		internalError(w, "get plan", err)

		return
	}

	respond(w, http.StatusOK, p)
}

type createPlanRequest struct {
	Name        string         `json:"planName"`
	TotalAmount int64          `json:"totalAmount"`
	Term        plan.MonthTerm `json:"numberOfMonths"`
	Owner       plan.DebtOwner `json:"debtOwner"`
	Active      bool           `json:"isActive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if req.Name == "" || req.TotalAmount <= 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "planName and a positive totalAmount are required")
		return
	}

	if req.Term < 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "numberOfMonths must not be negative")
		return
	}

	p := plan.Plan{
		ID:             uuid.NewString(),
		Name:           req.Name,
		TotalAmount:    req.TotalAmount,
		Term:           req.Term,
		MonthlyPayment: plan.MonthlyPaymentFor(req.TotalAmount, req.Term),
		Owner:          req.Owner.Normalize(),
		CreatedAt:      time.Now().UTC(),
		Active:         req.Active,
	}

	if err := h.store.SavePlan(r.Context(), p); err != nil {
		internalError(w, "create plan", err)
		return
	}

	respond(w, http.StatusCreated, p)
}

type bulkUpsertRequest struct {
	Plans []plan.Plan `json:"plans"`
}

func (h *Handler) bulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req bulkUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := h.store.SavePlans(r.Context(), req.Plans); err != nil {
		internalError(w, "bulk upsert plans", err)
		return
	}

	respond(w, http.StatusOK, nil)
}

type updatePlanRequest struct {
	Name        *string         `json:"planName"`
	TotalAmount *int64          `json:"totalAmount"`
	Term        *plan.MonthTerm `json:"numberOfMonths"`
	Owner       *plan.DebtOwner `json:"debtOwner"`
	Active      *bool           `json:"isActive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if req.Term != nil && *req.Term < 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "numberOfMonths must not be negative")
		return
	}

	p, err := h.findPlan(r, id)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}

		internalError(w, "update plan", err)

		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}

	if req.TotalAmount != nil {
		p.TotalAmount = *req.TotalAmount
	}

	if req.Term != nil {
		p.Term = *req.Term
	}

	if req.TotalAmount != nil || req.Term != nil {
		p.MonthlyPayment = plan.MonthlyPaymentFor(p.TotalAmount, p.Term)
	}

	if req.Owner != nil {
		p.Owner = req.Owner.Normalize()
	}

	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.store.SavePlan(r.Context(), p); err != nil {
		internalError(w, "update plan", err)
		return
	}

	respond(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.findPlan(r, id); err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}

		internalError(w, "delete plan", err)

		return
	}

	if err := h.store.DeletePlan(r.Context(), id); err != nil {
		internalError(w, "delete plan", err)
		return
	}

	respond(w, http.StatusOK, nil)
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

func (h *Handler) getPayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	statuses, err := h.store.PaymentStatus(r.Context(), id)
	if err != nil {
		internalError(w, "get payment status", err)
		return
	}

	entries := make([]statusEntry, len(statuses))
	for i, st := range statuses {
		entries[i] = statusEntry{MonthIndex: i, Status: st}
	}

	respond(w, http.StatusOK, statusPayload{Status: entries})
}

func (h *Handler) savePayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	size := 0

	for _, e := range payload.Status {
		if e.MonthIndex+1 > size {
			size = e.MonthIndex + 1
		}
	}

	statuses := make([]plan.PaymentStatus, size)
	for i := range statuses {
		statuses[i] = plan.StatusPending
	}

	for _, e := range payload.Status {
		if e.MonthIndex >= 0 {
			statuses[e.MonthIndex] = e.Status
		}
	}

	if err := h.store.SavePaymentStatus(r.Context(), id, statuses); err != nil {
		internalError(w, "save payment status", err)
		return
	}

	respond(w, http.StatusOK, nil)
}

func (h *Handler) deletePayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeletePaymentData(r.Context(), id); err != nil {
		internalError(w, "delete payment data", err)
		return
	}

	respond(w, http.StatusOK, nil)
}

func (h *Handler) getTotals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	totals, err := h.store.PaymentTotals(r.Context(), id)
	if err != nil {
		internalError(w, "get totals", err)
		return
	}

	respond(w, http.StatusOK, totals)
}

func (h *Handler) saveTotals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var totals plan.TotalsSnapshot
	if err := json.NewDecoder(r.Body).Decode(&totals); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := h.store.SavePaymentTotals(r.Context(), id, totals); err != nil {
		internalError(w, "save totals", err)
		return
	}

	respond(w, http.StatusOK, nil)
}

func (h *Handler) findPlan(r *http.Request, id string) (plan.Plan, error) {
	all, err := h.store.Plans(r.Context())
	if err != nil {
		return plan.Plan{}, err
	}

	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}

	return plan.Plan{}, plan.ErrNotFound
}

func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error("request failed", "op", op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal", "Something went wrong. Please try again.")
}
