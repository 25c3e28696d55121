package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"order-tracker/internal/model"
	"order-tracker/internal/reconcile"
	"order-tracker/internal/testutil"
	"order-tracker/internal/view"
	"order-tracker/internal/worker"

	"github.com/labstack/echo/v4"
)

const buyer = "buyer-1"

func newTestServer(t *testing.T, fake *testutil.FakeStore) *echo.Echo {
	t.Helper()
	log := testutil.NewTestLogger(t)
	reconciler := reconcile.NewReconciler(fake, 5*time.Second, log)
	// A manager that never started: requests take the on-demand path.
	m := worker.NewManager(fake, reconciler, nil, nil, 5*time.Second, 10*time.Second, log)

	e := echo.New()
	NewViewHandler(m, fake, reconciler, log).RegisterRoutes(e)
	return e
}

func driftedStore() *testutil.FakeStore {
	return testutil.NewFakeStore(
		[]model.Batch{
			testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted),
			testutil.MakeBatch("b2", buyer, model.BatchStatusPending),
		},
		[]model.Order{
			testutil.MakeOrder("o1", "b1", buyer, 25, model.OrderStatusPaid),
			testutil.MakeOrder("o2", "b2", buyer, 10, model.OrderStatusPaid),
		},
	)
}

func TestGetView_DerivesOnDemand(t *testing.T) {
	fake := driftedStore()
	e := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers/"+buyer+"/view", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	var v view.DerivedView
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "decode body")
	testutil.AssertEqual(t, v.BuyerID, buyer, "buyer id")
	testutil.AssertEqual(t, v.TotalSpent, 35.0, "total spent")
	testutil.AssertEqual(t, len(v.PastBatches), 1, "past batches")
	testutil.AssertEqual(t, len(v.ActiveBatches), 1, "active batches")

	// A plain view read never heals.
	testutil.AssertEqual(t, fake.WriteCount(), 0, "no writes on GET")
}

func TestRefresh_HealsAndReturnsFreshView(t *testing.T) {
	fake := driftedStore()
	e := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers/"+buyer+"/refresh", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")
	testutil.AssertEqual(t, fake.OrderStatus(t, "o1"), model.OrderStatusPickedUp, "drifted order healed")

	var v view.DerivedView
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "decode body")
	testutil.AssertEqual(t, v.TotalSpent, 35.0, "total spent")
	testutil.AssertEqual(t, v.PastBatches[0].Batch.ID, "b1", "healed batch grouped as past")
}

func TestGetView_StoreUnreachable(t *testing.T) {
	fake := driftedStore()
	fake.FetchOrdersErr = echo.ErrServiceUnavailable
	e := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers/"+buyer+"/view", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	testutil.AssertEqual(t, rec.Code, http.StatusBadGateway, "status code")

	// The body still carries a view the presentation can render.
	var v view.DerivedView
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "decode body")
	testutil.AssertEqual(t, v.BuyerID, buyer, "buyer id")
	testutil.AssertEqual(t, v.TotalOrders, 0, "empty view")
}
