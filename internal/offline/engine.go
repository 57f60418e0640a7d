// Package offline keeps mutations from being lost when the device has no
// connectivity. Mutating backend calls run through the engine: while
// offline they are queued instead of attempted, and network-shaped
// failures while online are queued for replay after being surfaced to
// the caller. The durable queue is drained in FIFO order when
// connectivity returns, with bounded retries per operation.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
)

// State is the engine's externally visible condition. checking is always
// transient: a drain enters it and leaves it on completion.
type State string

const (
	StateOnline   State = "online"
	StateOffline  State = "offline"
	StateChecking State = "checking"
)

// ErrQueued signals that the mutation was not attempted but recorded for
// later replay — deferred, not failed. Callers distinguish it from real
// failures with errors.Is.
var ErrQueued = errors.New("queued for later sync")

// DefaultMaxRetries bounds replay attempts per queued operation. Past
// it the operation is dropped and logged: an accepted data-loss boundary,
// not a bug.
const DefaultMaxRetries = 3

// Listener observes state transitions. Listeners run synchronously in
// registration order; a panicking listener is logged and skipped.
type Listener func(State)

// Engine is the sync state machine. The replay target is the undecorated
// backend: replays must not re-enter the queue path.
type Engine struct {
	store      plan.Store
	queue      *Queue
	maxRetries int

	mu        sync.Mutex
	online    bool
	syncing   bool
	listeners []Listener
}

func NewEngine(store plan.Store, queue *Queue, maxRetries int) *Engine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Engine{
		store:      store,
		queue:      queue,
		maxRetries: maxRetries,
		online:     true,
	}
}

// State reports checking while a drain is in flight, otherwise the
// connectivity-implied state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.syncing:
		return StateChecking
	case e.online:
		return StateOnline
	default:
		return StateOffline
	}
}

// Online reports current connectivity.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.online
}

// SetOnline feeds a connectivity event into the machine. The
// offline-to-online transition triggers an automatic drain.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.mu.Lock()

	if e.online == online {
		e.mu.Unlock()
		return
	}

	e.online = online
	e.mu.Unlock()

	if online {
		e.notify(StateOnline)

		if err := e.Sync(ctx); err != nil {
			slog.Error("automatic queue drain failed", "op", "SetOnline", "error", err)
		}

		return
	}

	e.notify(StateOffline)
}

// Subscribe registers a listener for every subsequent state transition.
func (e *Engine) Subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners = append(e.listeners, fn)
}

func (e *Engine) notify(state State) {
	e.mu.Lock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("sync listener panicked", "state", state, "panic", r)
				}
			}()
			fn(state)
		}()
	}
}

// Execute runs a mutation with offline insurance. Online: the operation
// is attempted; a network-shaped failure is queued for replay and still
// returned — the queue is a safety net, not a way to make the call look
// successful. Offline: the operation is never attempted; it is queued
// and an ErrQueued-wrapping error is returned so the caller can tell
// "deferred" from "failed". Validation and not-found errors propagate
// without queuing.
func (e *Engine) Execute(ctx context.Context, op Operation, fn func(context.Context) error) error {
	if !e.Online() {
		if err := e.queue.Append(ctx, op); err != nil {
			return fmt.Errorf("queueing %s: %w", op.Type, err)
		}

		return fmt.Errorf("%s deferred while offline: %w", op.Type, ErrQueued)
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}

	if storage.IsNetwork(err) {
		if qErr := e.queue.Append(ctx, op); qErr != nil {
			slog.Error("queueing failed operation", "type", op.Type, "error", qErr)
		} else {
			slog.Info("operation queued for retry", "type", op.Type, "id", op.ID)
		}
	}

	return err
}

// Sync drains the queue in insertion order. No-op while offline or when
// a drain is already running. Each failed replay increments the
// operation's retry counter; at the maximum the operation is dropped and
// logged permanently.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()

	if !e.online || e.syncing {
		e.mu.Unlock()
		return nil
	}

	e.syncing = true
	e.mu.Unlock()

	e.notify(StateChecking)

	defer func() {
		e.mu.Lock()
		e.syncing = false
		online := e.online
		e.mu.Unlock()

		if online {
			e.notify(StateOnline)
		} else {
			e.notify(StateOffline)
		}
	}()

	ops, err := e.queue.Load(ctx)
	if err != nil {
		return err
	}

	if len(ops) == 0 {
		return nil
	}

	remaining := make([]Operation, 0, len(ops))

	for _, op := range ops {
		err := e.replay(ctx, op)
		if err == nil {
			continue
		}

		op.Retries++

		if op.Retries >= e.maxRetries {
			slog.Error("dropping queued operation after max retries",
				"type", op.Type, "id", op.ID, "retries", op.Retries, "error", err)

			continue
		}

		slog.Warn("queued operation failed, will retry",
			"type", op.Type, "id", op.ID, "retries", op.Retries, "error", err)
		remaining = append(remaining, op)
	}

	return e.queue.Save(ctx, remaining)
}

func (e *Engine) replay(ctx context.Context, op Operation) error {
	switch op.Type {
	case OpSavePlan:
		var p plan.Plan
		if err := unmarshalOp(op, &p); err != nil {
			return err
		}

		return e.store.SavePlan(ctx, p)

	case OpSavePlans:
		var plans []plan.Plan
		if err := unmarshalOp(op, &plans); err != nil {
			return err
		}

		return e.store.SavePlans(ctx, plans)

	case OpDeletePlan:
		var data planRef
		if err := unmarshalOp(op, &data); err != nil {
			return err
		}

		return e.store.DeletePlan(ctx, data.PlanID)

	case OpSavePaymentStatus:
		var data statusData
		if err := unmarshalOp(op, &data); err != nil {
			return err
		}

		return e.store.SavePaymentStatus(ctx, data.PlanID, data.Status)

	case OpSavePaymentTotals:
		var data totalsData
		if err := unmarshalOp(op, &data); err != nil {
			return err
		}

		return e.store.SavePaymentTotals(ctx, data.PlanID, data.Totals)

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

func unmarshalOp(op Operation, out any) error {
	if err := json.Unmarshal(op.Data, out); err != nil {
		return fmt.Errorf("decoding %s payload: %w", op.Type, err)
	}

	return nil
}

type planRef struct {
	PlanID string `json:"planId"`
}

type statusData struct {
	PlanID string               `json:"planId"`
	Status []plan.PaymentStatus `json:"status"`
}

type totalsData struct {
	PlanID string              `json:"planId"`
	Totals plan.TotalsSnapshot `json:"totals"`
}
