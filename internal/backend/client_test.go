package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesadmin/internal/platform/cache"
	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

type fakeBackend struct {
	itemCalls  atomic.Int32
	lastIdem   atomic.Value
	lastCreate atomic.Value
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		f.itemCalls.Add(1)
		q := r.URL.Query().Get("query")
		items := []map[string]any{{"id": 1, "code": "BRG-1", "name": "Kopi " + q, "price": "25000.00"}}
		_ = json.NewEncoder(w).Encode(items)
	})
	r.Post("/items/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"message":["code must be unique","price must be a number"],"error":"Bad Request"}`))
	})
	r.Delete("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "404" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Item not found"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/sales/code", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("TRX-202610-0007"))
	})
	r.Get("/sales", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"code":"TRX-1","date":"2026-10-01T00:00:00.000Z","totalPayment":"1500.5","customer":{"id":3,"name":"Budi","phone":"0812"},"saleDetail":[{"quantity":2},{"quantity":"3"}]},{"id":2,"code":"TRX-2","date":"2026-10-02T00:00:00.000Z","totalPayment":499.5,"saleDetail":[]}]`))
	})
	r.Post("/sales/create", func(w http.ResponseWriter, r *http.Request) {
		f.lastIdem.Store(r.Header.Get("Idempotency-Key"))
		var req CreateSaleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastCreate.Store(req)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9,"code":"TRX-9","totalPayment":1800}`))
	})
	return r
}

func newTestClient(t *testing.T, opts Options) (*Client, *fakeBackend) {
	t.Helper()
	fake := &fakeBackend{}
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/"
	return NewClient(opts), fake
}

func TestListItemsDecodesStringPrices(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	items, err := client.ListItems(context.Background(), "susu")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kopi susu", items[0].Name)
	assert.Equal(t, 25000.0, items[0].Price.Float64())
	assert.Equal(t, pricing.CatalogItem{ID: 1, Code: "BRG-1", Name: "Kopi susu", Price: 25000}, items[0].CatalogItem())
}

func TestCreateItemSurfacesValidationMessages(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	_, err := client.CreateItem(context.Background(), CreateItemRequest{Name: "Kopi", Code: "BRG-1", Price: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "code must be unique, price must be a number", MessageOr(err, "Terjadi kesalahan"))
}

func TestDeleteItemNotFound(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	err := client.DeleteItem(context.Background(), 404)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Item not found", MessageOr(err, ""))
	assert.NoError(t, client.DeleteItem(context.Background(), 1))
}

func TestNextSaleCodeAcceptsPlainText(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	code, err := client.NextSaleCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TRX-202610-0007", code)
}

func TestListSalesAndAggregates(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	sales, err := client.ListSales(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "Budi", sales[0].CustomerName())
	assert.Equal(t, "", sales[1].CustomerName())
	assert.Equal(t, 5.0, sales[0].ItemCount())
	assert.Equal(t, 2000.0, SumTotalPayment(sales))
}

func TestCreateSaleSendsIdempotencyKey(t *testing.T) {
	client, fake := newTestClient(t, Options{})

	sale, err := client.CreateSale(context.Background(), "draft-1", CreateSaleRequest{
		Date:       "2026-10-17",
		CustomerID: 3,
		Subtotal:   1800,
		Details:    []pricing.Line{pricing.Recompute(pricing.Line{ItemID: 1, UnitPrice: 1000, Quantity: 2, DiscountPercentage: 10})},
	})
	require.NoError(t, err)
	assert.Equal(t, "TRX-9", sale.Code)
	assert.Equal(t, "draft-1", fake.lastIdem.Load())

	sent := fake.lastCreate.Load().(CreateSaleRequest)
	require.Len(t, sent.Details, 1)
	assert.InDelta(t, 1800, sent.Details[0].LineTotal, 1e-9)
	assert.InDelta(t, 900, sent.Details[0].DiscountedUnitPrice, 1e-9)
}

func TestUnreachableBackend(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.ListCustomers(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Terjadi kesalahan", MessageOr(err, "Terjadi kesalahan"))
}

func TestLookupsUseCacheAndWritesInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client, fake := newTestClient(t, Options{Cache: cache.NewLookupCache(rdb, time.Minute)})
	ctx := context.Background()

	_, err := client.ListItems(ctx, "a")
	require.NoError(t, err)
	_, err = client.ListItems(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.itemCalls.Load())

	require.NoError(t, client.DeleteItem(ctx, 1))
	_, err = client.ListItems(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.itemCalls.Load())
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveBackendRequest(op string, status int) {
	o.calls = append(o.calls, op)
}

func TestObserverSeesCalls(t *testing.T) {
	obs := &recordingObserver{}
	client, _ := newTestClient(t, Options{Observer: obs})

	_, _ = client.NextSaleCode(context.Background())
	assert.Equal(t, []string{"sale_code"}, obs.calls)
}

func TestCreateSaleAcceptsDateOnlyEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9,"code":"S9","date":"2024-01-15"}`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Options{BaseURL: srv.URL})

	sale, err := client.CreateSale(context.Background(), "draft-1", CreateSaleRequest{Date: "2024-01-15"})
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, "S9", sale.Code)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), sale.Date.Time)
}

func TestCreateSaleToleratesUndecodableAcknowledgement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`<html>created</html>`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Options{BaseURL: srv.URL})

	sale, err := client.CreateSale(context.Background(), "draft-1", CreateSaleRequest{})
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Zero(t, sale.ID)
}

func TestDateDecoding(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-10-01T07:30:00.000Z"`), &d))
	assert.Equal(t, time.Date(2026, 10, 1, 7, 30, 0, 0, time.UTC), d.Time.UTC())
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"kemarin"`), &d))
}

func TestSharedLookupHonoursEachCallerContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"code":"BRG-1","name":"Kopi","price":1000}]`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})

	shortErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.ListItems(ctx, "a")
		shortErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	items, err := client.ListItems(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.ErrorIs(t, <-shortErr, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}
