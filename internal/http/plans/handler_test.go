package plans_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/golang-jwt/jwt/v5"

	apphttp "github.com/avelasco/payplan/internal/http"
	"github.com/avelasco/payplan/internal/http/plans"
	"github.com/avelasco/payplan/internal/plan"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return token
}

func newServer(t *testing.T, store plan.Store) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(apphttp.New(plans.NewHandler(store), testSecret))
	t.Cleanup(srv.Close)

	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return resp, envelope
}

func TestHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().Plans(gomock.Any()).Return([]plan.Plan{
		{ID: "p1", Name: "Car loan", TotalAmount: 1_200_000, Term: plan.MonthTerm(12)},
	}, nil)

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodGet, "/plans/", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, envelope["success"])

	data := envelope["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Car loan", data[0].(map[string]any)["planName"])
}

func TestHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().
		SavePlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p plan.Plan) error {
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, "Car loan", p.Name)
			assert.Equal(t, int64(100_000), p.MonthlyPayment)
			assert.Equal(t, plan.OwnerSelf, p.Owner)
			return nil
		})

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodPost, "/plans/", map[string]any{
		"planName":       "Car loan",
		"totalAmount":    1_200_000,
		"numberOfMonths": 12,
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, envelope["success"])
}

func TestHandler_Create_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newServer(t, plan.NewMockStore(ctrl))
	resp, envelope := doRequest(t, srv, http.MethodPost, "/plans/", map[string]any{
		"planName":    "",
		"totalAmount": 0,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "bad_request", envelope["error"])
}

func TestHandler_Create_NegativeMonthsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newServer(t, plan.NewMockStore(ctrl))
	resp, envelope := doRequest(t, srv, http.MethodPost, "/plans/", map[string]any{
		"planName":       "Phone",
		"totalAmount":    60_000,
		"numberOfMonths": -6,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", envelope["error"])
}

func TestHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().Plans(gomock.Any()).Return([]plan.Plan{{ID: "other"}}, nil)

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodGet, "/plans/missing", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", envelope["error"])
}

func TestHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().Plans(gomock.Any()).Return([]plan.Plan{
		{ID: "p1", Name: "Old", TotalAmount: 12_000, Term: plan.MonthTerm(12), MonthlyPayment: 1_000},
	}, nil)
	store.EXPECT().
		SavePlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p plan.Plan) error {
			assert.Equal(t, "Old", p.Name)
			assert.Equal(t, int64(24_000), p.TotalAmount)
			assert.Equal(t, int64(2_000), p.MonthlyPayment)
			return nil
		})

	srv := newServer(t, store)
	resp, _ := doRequest(t, srv, http.MethodPut, "/plans/p1", map[string]any{
		"totalAmount": 24_000,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().Plans(gomock.Any()).Return([]plan.Plan{{ID: "p1"}}, nil)
	store.EXPECT().DeletePlan(gomock.Any(), "p1").Return(nil)

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodDelete, "/plans/p1", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, envelope["success"])
}

func TestHandler_SavePayments_Densifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().
		SavePaymentStatus(gomock.Any(), "p1", []plan.PaymentStatus{
			plan.StatusPaid, plan.StatusPending, plan.StatusPaid,
		}).
		Return(nil)

	srv := newServer(t, store)
	resp, _ := doRequest(t, srv, http.MethodPut, "/plans/p1/payments", map[string]any{
		"status": []map[string]any{
			{"monthIndex": 0, "status": "paid"},
			{"monthIndex": 2, "status": "paid"},
		},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_GetPayments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().
		PaymentStatus(gomock.Any(), "p1").
		Return([]plan.PaymentStatus{plan.StatusPaid, plan.StatusPending}, nil)

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodGet, "/plans/p1/payments", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := envelope["data"].(map[string]any)
	entries := data["status"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, float64(0), entries[0].(map[string]any)["monthIndex"])
	assert.Equal(t, "paid", entries[0].(map[string]any)["status"])
}

func TestHandler_Totals(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().
		SavePaymentTotals(gomock.Any(), "p1", plan.TotalsSnapshot{TotalPaid: 500, Remaining: 1_500}).
		Return(nil)
	store.EXPECT().
		PaymentTotals(gomock.Any(), "p1").
		Return(&plan.TotalsSnapshot{TotalPaid: 500, Remaining: 1_500}, nil)

	srv := newServer(t, store)

	resp, _ := doRequest(t, srv, http.MethodPut, "/plans/p1/totals", map[string]any{
		"totalPaid": 500,
		"remaining": 1_500,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doRequest(t, srv, http.MethodGet, "/plans/p1/totals", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(500), data["totalPaid"])
}

func TestHandler_InternalErrorHidesDetail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().Plans(gomock.Any()).Return(nil, assert.AnError)

	srv := newServer(t, store)
	resp, envelope := doRequest(t, srv, http.MethodGet, "/plans/", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", envelope["error"])
	assert.NotContains(t, envelope["message"], assert.AnError.Error())
}

func TestAuth_RejectsBadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newServer(t, plan.NewMockStore(ctrl))

	tests := []struct {
		name  string
		token string
	}{
		{name: "MissingToken", token: ""},
		{
			name: "WrongSecret",
			token: func() string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).
					SignedString([]byte("other-secret"))
				require.NoError(t, err)
				return token
			}(),
		},
		{
			name:  "NoSubject",
			token: signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/plans/", nil)
			require.NoError(t, err)

			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
