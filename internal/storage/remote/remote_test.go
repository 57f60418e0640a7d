package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco/payplan/internal/httpclient"
	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage"
	"github.com/avelasco/payplan/internal/storage/local"
	"github.com/avelasco/payplan/internal/storage/remote"
)

func newFixture(t *testing.T, handler http.Handler) (*remote.Store, *local.Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	device, err := local.Open(filepath.Join(t.TempDir(), "device.db"), local.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { device.Close() })

	client := httpclient.New(httpclient.Options{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     0,
		RetryBaseDelay: time.Millisecond,
	})

	return remote.New(client, device), device
}

func writeEnvelope(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestStore_Plans(t *testing.T) {
	store, device := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plans", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))

		writeEnvelope(w, []plan.Plan{{ID: "p1", Name: "Car loan"}})
	}))

	ctx := context.Background()
	require.NoError(t, device.SetToken(ctx, "token-abc"))

	plans, err := store.Plans(ctx)

	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Car loan", plans[0].Name)
}

func TestStore_Plans_NullDataYieldsEmpty(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil)
	}))

	plans, err := store.Plans(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestStore_Plans_NetworkFailureKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	device, err := local.Open(filepath.Join(t.TempDir(), "device.db"), local.Options{})
	require.NoError(t, err)
	defer device.Close()

	client := httpclient.New(httpclient.Options{
		BaseURL:        srv.URL,
		Timeout:        time.Second,
		RetryBaseDelay: time.Millisecond,
	})
	store := remote.New(client, device)

	_, err = store.Plans(context.Background())

	require.Error(t, err)
	assert.Equal(t, storage.KindNetwork, storage.KindOf(err))
	assert.True(t, storage.IsNetwork(err))
}

func TestStore_Plans_EnvelopeFailure(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "boom"})
	}))

	_, err := store.Plans(context.Background())

	require.Error(t, err)
	assert.Equal(t, storage.KindInternal, storage.KindOf(err))
}

func TestStore_UnauthorizedClearsToken(t *testing.T) {
	store, device := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unauthorized"})
	}))

	ctx := context.Background()
	require.NoError(t, device.SetToken(ctx, "expired-token"))

	_, err := store.Plans(ctx)
	require.Error(t, err)

	token, err := device.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_SavePlans(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/plans/bulk", r.URL.Path)

		var body struct {
			Plans []plan.Plan `json:"plans"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Plans, 2)

		writeEnvelope(w, nil)
	}))

	err := store.SavePlans(context.Background(), []plan.Plan{{ID: "p1"}, {ID: "p2"}})

	assert.NoError(t, err)
}

func TestStore_SavePlan_Upsert(t *testing.T) {
	t.Run("KnownIDUpdatesInPlace", func(t *testing.T) {
		store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/plans/p1", r.URL.Path)

			writeEnvelope(w, nil)
		}))

		err := store.SavePlan(context.Background(), plan.Plan{ID: "p1", Name: "Car loan"})

		assert.NoError(t, err)
	})

	t.Run("UnknownIDFallsBackToBulk", func(t *testing.T) {
		var bulkHit bool
		store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			bulkHit = true
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/plans/bulk", r.URL.Path)

			var body struct {
				Plans []plan.Plan `json:"plans"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Plans, 1)
			assert.Equal(t, "p9", body.Plans[0].ID)

			writeEnvelope(w, nil)
		}))

		err := store.SavePlan(context.Background(), plan.Plan{ID: "p9", Name: "New debt"})

		require.NoError(t, err)
		assert.True(t, bulkHit)
	})

	t.Run("ServerErrorSurfaces", func(t *testing.T) {
		var requests int
		store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusInternalServerError)
		}))

		err := store.SavePlan(context.Background(), plan.Plan{ID: "p1"})

		require.Error(t, err)
		assert.Equal(t, 1, requests)
	})
}

func TestStore_PaymentStatus_Densifies(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plans/p1/payments", r.URL.Path)

		writeEnvelope(w, map[string]any{
			"status": []map[string]any{
				{"monthIndex": 2, "status": "paid"},
				{"monthIndex": 0, "status": "pagado"},
			},
		})
	}))

	statuses, err := store.PaymentStatus(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].IsPaid())
	assert.Equal(t, plan.StatusPending, statuses[1])
	assert.True(t, statuses[2].IsPaid())
}

func TestStore_PaymentStatus_DegradesOnFailure(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	statuses, err := store.PaymentStatus(context.Background(), "p1")

	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestStore_SavePaymentStatus_WireShape(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/plans" {
			writeEnvelope(w, []plan.Plan{
				{ID: "p1", TotalAmount: 10_001, Term: 2, MonthlyPayment: 5_000},
			})
			return
		}

		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/plans/p1/payments", r.URL.Path)

		var payload struct {
			Status []struct {
				MonthIndex int    `json:"monthIndex"`
				Status     string `json:"status"`
				Amount     int64  `json:"amount"`
				PaidAt     *time.Time
			} `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Status, 2)
		assert.Equal(t, 0, payload.Status[0].MonthIndex)
		assert.Equal(t, "paid", payload.Status[0].Status)
		assert.Equal(t, "pending", payload.Status[1].Status)
		assert.Equal(t, int64(5_000), payload.Status[0].Amount)
		assert.Equal(t, int64(5_001), payload.Status[1].Amount)

		writeEnvelope(w, nil)
	}))

	err := store.SavePaymentStatus(context.Background(), "p1",
		[]plan.PaymentStatus{plan.StatusPaid, plan.StatusPending})

	assert.NoError(t, err)
}

func TestStore_SavePaymentStatus_UnknownPlanOmitsAmount(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/plans" {
			writeEnvelope(w, []plan.Plan{})
			return
		}

		var raw map[string][]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Len(t, raw["status"], 1)
		assert.NotContains(t, raw["status"][0], "amount")

		writeEnvelope(w, nil)
	}))

	err := store.SavePaymentStatus(context.Background(), "p1", []plan.PaymentStatus{plan.StatusPaid})

	assert.NoError(t, err)
}

func TestStore_SavePaymentStatus_WriteErrorSurfaces(t *testing.T) {
	store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	err := store.SavePaymentStatus(context.Background(), "p1", []plan.PaymentStatus{plan.StatusPaid})

	require.Error(t, err)
	assert.Equal(t, storage.KindInternal, storage.KindOf(err))
}

func TestStore_PaymentTotals(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, plan.TotalsSnapshot{TotalPaid: 500, Remaining: 1_500})
		}))

		totals, err := store.PaymentTotals(context.Background(), "p1")

		require.NoError(t, err)
		require.NotNil(t, totals)
		assert.Equal(t, int64(500), totals.TotalPaid)
	})

	t.Run("NotFoundDegradesToAbsent", func(t *testing.T) {
		store, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		totals, err := store.PaymentTotals(context.Background(), "p1")

		require.NoError(t, err)
		assert.Nil(t, totals)
	})
}

func TestStore_ActivePlan_DegradesOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	device, err := local.Open(filepath.Join(t.TempDir(), "device.db"), local.Options{})
	require.NoError(t, err)
	defer device.Close()

	client := httpclient.New(httpclient.Options{
		BaseURL:        srv.URL,
		Timeout:        time.Second,
		RetryBaseDelay: time.Millisecond,
	})
	store := remote.New(client, device)

	active, err := store.ActivePlan(context.Background())

	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStore_ActivePlanPointerStaysLocal(t *testing.T) {
	store, device := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("pointer operations must not hit the API")
	}))

	ctx := context.Background()
	require.NoError(t, store.SetActivePlanID(ctx, "p9"))

	id, err := store.ActivePlanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p9", id)

	deviceID, err := device.ActivePlanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p9", deviceID)

	require.NoError(t, store.ClearActivePlanID(ctx))
}
