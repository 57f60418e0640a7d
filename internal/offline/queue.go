package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// queueKey is the device-store key holding the durable queue, a JSON
// array of operations.
const queueKey = "payplan.syncQueue"

// DefaultQueueMax bounds the durable queue; beyond it the oldest entries
// are evicted so the local footprint stays fixed.
const DefaultQueueMax = 100

// OpType names a replayable mutation.
type OpType string

const (
	OpSavePlan          OpType = "savePlan"
	OpSavePlans         OpType = "savePlans"
	OpDeletePlan        OpType = "deletePlan"
	OpSavePaymentStatus OpType = "savePaymentStatus"
	OpSavePaymentTotals OpType = "savePaymentTotals"
)

// Operation is one queued mutation. Retries counts failed replay
// attempts; at the maximum the operation is dropped for good.
type Operation struct {
	ID        string          `json:"id"`
	Type      OpType          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Retries   int             `json:"retries"`
}

// ItemStore is the device-store slice the queue persists through.
type ItemStore interface {
	Item(ctx context.Context, key string) ([]byte, error)
	PutItem(ctx context.Context, key string, value []byte) error
}

// Queue is the durable FIFO backing the sync engine. It survives a
// restart and is size-capped with oldest-first eviction.
type Queue struct {
	store ItemStore
	max   int
}

func NewQueue(store ItemStore, max int) *Queue {
	if max <= 0 {
		max = DefaultQueueMax
	}

	return &Queue{store: store, max: max}
}

// Load returns the queued operations in insertion order. A corrupt
// stored queue degrades to empty: losing queued retries is preferable to
// wedging every future mutation.
func (q *Queue) Load(ctx context.Context) ([]Operation, error) {
	raw, err := q.store.Item(ctx, queueKey)
	if err != nil {
		return nil, fmt.Errorf("loading sync queue: %w", err)
	}

	if raw == nil {
		return []Operation{}, nil
	}

	var ops []Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		slog.Warn("stored sync queue is unreadable, starting empty", "error", err)
		return []Operation{}, nil
	}

	return ops, nil
}

// Save persists the queue, evicting the oldest entries beyond the cap.
func (q *Queue) Save(ctx context.Context, ops []Operation) error {
	if len(ops) > q.max {
		dropped := len(ops) - q.max
		slog.Warn("sync queue over capacity, evicting oldest entries", "dropped", dropped, "cap", q.max)
		ops = ops[dropped:]
	}

	raw, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encoding sync queue: %w", err)
	}

	if err := q.store.PutItem(ctx, queueKey, raw); err != nil {
		return fmt.Errorf("saving sync queue: %w", err)
	}

	return nil
}

// Append adds one operation at the tail.
func (q *Queue) Append(ctx context.Context, op Operation) error {
	ops, err := q.Load(ctx)
	if err != nil {
		return err
	}

	return q.Save(ctx, append(ops, op))
}
