package order

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazar/internal/invalidate"
	"bazar/internal/model"
	"bazar/internal/peers"
	"bazar/internal/replication"
	"bazar/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCatalog is a minimal catalog backend: /info reads and /update writes
// against an in-memory stock table.
type fakeCatalog struct {
	mu        sync.Mutex
	stock     map[int]int
	titles    map[int]string
	failPut   bool
	infoCalls int
	server    *httptest.Server
}

func newFakeCatalog(t *testing.T, stock map[int]int) *fakeCatalog {
	t.Helper()

	fc := &fakeCatalog{
		stock:  stock,
		titles: map[int]string{3: "Xen and the Art of Surviving Undergraduate School"},
	}

	r := mux.NewRouter()
	r.HandleFunc("/info/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(req)["id"])
		fc.mu.Lock()
		defer fc.mu.Unlock()
		fc.infoCalls++
		qty, ok := fc.stock[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"Item not found"}`)
			return
		}
		fmt.Fprintf(w, `{"title":%q,"quantity":%d,"price":75.0}`, fc.titles[id], qty)
	}).Methods(http.MethodGet)
	r.HandleFunc("/update/{id}", func(w http.ResponseWriter, req *http.Request) {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		if fc.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		id, _ := strconv.Atoi(mux.Vars(req)["id"])
		var body struct {
			Quantity int `json:"quantity"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		fc.stock[id] = body.Quantity
		fmt.Fprint(w, `{"message":"Item updated"}`)
	}).Methods(http.MethodPut)

	fc.server = httptest.NewServer(r)
	t.Cleanup(fc.server.Close)
	return fc
}

func (fc *fakeCatalog) quantity(id int) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.stock[id]
}

type orderFixture struct {
	handler     http.Handler
	orders      *store.Orders
	catalog     *fakeCatalog
	invalidated *atomic.Int32
	replicated  *atomic.Int32
}

func newOrderFixture(t *testing.T, stock map[int]int) *orderFixture {
	t.Helper()

	orders, err := store.OpenOrders(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = orders.Close() })

	f := &orderFixture{
		orders:      orders,
		catalog:     newFakeCatalog(t, stock),
		invalidated: &atomic.Int32{},
		replicated:  &atomic.Int32{},
	}

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.invalidated.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.replicated.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(peer.Close)

	notifier := invalidate.NewNotifier(gateway.URL+"/invalidate", testLogger())
	rs := peers.NewReplicaSet("http://self:5002", []string{peer.URL})
	prop := replication.NewPropagator(rs, "/replica_purchase", testLogger())
	pool := peers.NewPool([]string{f.catalog.server.URL})

	orchestrator := NewOrchestrator(orders, pool, notifier, prop, testLogger())
	applier := NewApplier(orders, testLogger())
	f.handler = NewHandler(orders, orchestrator, applier, testLogger()).Routes()
	return f
}

func (f *orderFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func TestPurchaseTwice(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 10})

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPut, "/purchase/3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Purchased item 3"}`, rec.Body.String())
	}

	assert.Equal(t, 8, f.catalog.quantity(3))

	rows := f.orders.Scan()
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].OrderID)
	assert.Equal(t, 2, rows[1].OrderID)
	assert.Equal(t, 3, rows[0].ItemID)
	assert.Equal(t, 1, rows[0].Quantity)

	assert.GreaterOrEqual(t, f.invalidated.Load(), int32(1))
	assert.Eventually(t, func() bool { return f.replicated.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestPurchaseOutOfStock(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 0})

	rec := f.do(http.MethodPut, "/purchase/3", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Item out of stock"}`, rec.Body.String())

	assert.Empty(t, f.orders.Scan())
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, f.replicated.Load(), "no propagation for a failed purchase")
}

func TestPurchaseUnknownItem(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 10})

	rec := f.do(http.MethodPut, "/purchase/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Item not found"}`, rec.Body.String())
	assert.Empty(t, f.orders.Scan())
}

func TestPurchaseInvalidID(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 10})

	t.Run("non-numeric", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/purchase/abc", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid item ID"}`, rec.Body.String())
	})

	t.Run("non-positive", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/purchase/0", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid item ID"}`, rec.Body.String())
	})
}

func TestPurchaseNoCatalogConfigured(t *testing.T) {
	orders, err := store.OpenOrders(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer orders.Close()

	notifier := invalidate.NewNotifier("http://127.0.0.1:1/invalidate", testLogger())
	rs := peers.NewReplicaSet("http://self:5002", nil)
	prop := replication.NewPropagator(rs, "/replica_purchase", testLogger())

	orchestrator := NewOrchestrator(orders, peers.NewPool(nil), notifier, prop, testLogger())
	handler := NewHandler(orders, orchestrator, NewApplier(orders, testLogger()), testLogger()).Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/purchase/3", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"No Catalog Service available"}`, rec.Body.String())
}

func TestPurchaseStockUpdateFails(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 10})
	f.catalog.mu.Lock()
	f.catalog.failPut = true
	f.catalog.mu.Unlock()

	rec := f.do(http.MethodPut, "/purchase/3", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to update stock"}`, rec.Body.String())

	assert.Empty(t, f.orders.Scan(), "aborted purchase must not record an order")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, f.replicated.Load())
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t, map[int]int{3: 10})

	t.Run("empty", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/orders", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("after purchases", func(t *testing.T) {
		require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/purchase/3", "").Code)

		rec := f.do(http.MethodGet, "/orders", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, 3, rows[0].ItemID)
		assert.NotEmpty(t, rows[0].Timestamp)
	})
}

func TestReplicaPurchase(t *testing.T) {
	t.Run("records with local id and original timestamp", func(t *testing.T) {
		f := newOrderFixture(t, map[int]int{3: 10})

		rec := f.do(http.MethodPost, "/replica_purchase", `{"item_id":3,"quantity":1,"timestamp":"2026-08-30T10:00:00Z"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Replica purchase recorded"}`, rec.Body.String())

		rows := f.orders.Scan()
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].OrderID)
		assert.Equal(t, "2026-08-30T10:00:00Z", rows[0].Timestamp)

		// Applying must not fan out again.
		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, f.replicated.Load())
	})

	t.Run("incomplete payload", func(t *testing.T) {
		f := newOrderFixture(t, map[int]int{3: 10})

		rec := f.do(http.MethodPost, "/replica_purchase", `{"item_id":3}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Incomplete data provided."}`, rec.Body.String())
	})

	t.Run("duplicate delivery applies twice", func(t *testing.T) {
		f := newOrderFixture(t, map[int]int{3: 10})

		payload := `{"mutation_id":"m-1","item_id":3,"quantity":1,"timestamp":"t"}`
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/replica_purchase", payload).Code)
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/replica_purchase", payload).Code)

		assert.Len(t, f.orders.Scan(), 2, "delivery is at-least-once with no dedup")
	})
}

func TestPurchaseRoundRobinAcrossCatalogs(t *testing.T) {
	orders, err := store.OpenOrders(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer orders.Close()

	c1 := newFakeCatalog(t, map[int]int{3: 10})
	c2 := newFakeCatalog(t, map[int]int{3: 10})

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	notifier := invalidate.NewNotifier(gateway.URL+"/invalidate", testLogger())
	rs := peers.NewReplicaSet("http://self:5002", nil)
	prop := replication.NewPropagator(rs, "/replica_purchase", testLogger())
	pool := peers.NewPool([]string{c1.server.URL, c2.server.URL})

	orchestrator := NewOrchestrator(orders, pool, notifier, prop, testLogger())
	handler := NewHandler(orders, orchestrator, NewApplier(orders, testLogger()), testLogger()).Routes()

	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/purchase/3", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	c1.mu.Lock()
	c2.mu.Lock()
	assert.Equal(t, 2, c1.infoCalls)
	assert.Equal(t, 2, c2.infoCalls)
	c2.mu.Unlock()
	c1.mu.Unlock()
}
