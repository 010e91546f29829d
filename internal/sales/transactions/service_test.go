package transactions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

type mockBackend struct {
	code      string
	codeErr   error
	items     []backend.Item
	customers []backend.Customer
	sales     []backend.Sale
}

func (m *mockBackend) NextSaleCode(ctx context.Context) (string, error) {
	return m.code, m.codeErr
}

func (m *mockBackend) ListSales(ctx context.Context, query string) ([]backend.Sale, error) {
	return m.sales, nil
}

func (m *mockBackend) ListItems(ctx context.Context, query string) ([]backend.Item, error) {
	var out []backend.Item
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockBackend) ListCustomers(ctx context.Context, query string) ([]backend.Customer, error) {
	var out []backend.Customer
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, poster Poster) (*Service, *mockBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mb := &mockBackend{
		code: "TRX-202610-0001",
		items: []backend.Item{
			{ID: 1, Code: "BRG-1", Name: "Kopi Arabika", Price: 1000},
			{ID: 2, Code: "BRG-2", Name: "Teh Melati", Price: 500},
		},
		customers: []backend.Customer{{ID: 3, Name: "Budi", Phone: "0812"}},
	}
	store := NewRedisDraftStore(client, time.Hour)
	svc := NewService(mb, store, NewSubmitter(poster, WithGuard(NewRedisGuard(client))), nil)
	return svc, mb, mr
}

func TestServiceDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	poster := &fakePoster{}
	svc, _, mr := newTestService(t, poster)
	owner := "sess-1"

	d, err := svc.Draft(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "TRX-202610-0001", d.Code)
	assert.True(t, mr.Exists(draftKey(owner)))

	again, err := svc.Draft(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)

	_, err = svc.SetDate(ctx, owner, "2026-10-17")
	require.NoError(t, err)
	_, err = svc.SelectCustomer(ctx, owner, 3, "bud")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, 1, "kopi", "2", "10")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, 2, "", "", "")
	require.NoError(t, err)
	d, err = svc.UpdateLine(ctx, owner, 1, "3", "")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(d.Lines))

	view := NewDraftView(d)
	assert.InDelta(t, 500+2700, view.Totals.Subtotal, 1e-9)
	assert.False(t, view.CostInputsDisabled)

	d, err = svc.RemoveLine(ctx, owner, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(d.Lines))

	_, err = svc.SetCostOption(ctx, owner, FieldShippingCost, "abc")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	d, err = svc.Draft(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Input harus berupa angka", d.Validation().Message(FieldShippingCost))

	_, _, err = svc.Submit(ctx, owner)
	require.ErrorAs(t, err, new(*FormError))
	assert.Zero(t, poster.calls)

	_, err = svc.SetCostOption(ctx, owner, FieldShippingCost, "1000")
	require.NoError(t, err)
	_, sale, err := svc.Submit(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3700.0, sale.TotalPayment.Float64())
	assert.False(t, mr.Exists(draftKey(owner)))

	next, err := svc.Draft(ctx, owner)
	require.NoError(t, err)
	assert.NotEqual(t, d.ID, next.ID)
	assert.Empty(t, next.Lines)
}

func TestServiceRejectsUnknownLookups(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, &fakePoster{})

	_, err := svc.SelectCustomer(ctx, "o", 99, "x")
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.AddItem(ctx, "o", 99, "", "1", "0")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.UpdateLine(ctx, "o", 1, "2", "")
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.AddItem(ctx, "o", 1, "", "dua", "0")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "quantity", inputErr.Field)
}

func TestServiceKeepsDraftWhenSubmitFails(t *testing.T) {
	ctx := context.Background()
	poster := &fakePoster{err: errors.New("boom")}
	svc, _, mr := newTestService(t, poster)
	owner := "sess-2"

	_, _ = svc.SetDate(ctx, owner, "2026-10-17")
	_, _ = svc.SelectCustomer(ctx, owner, 3, "")
	before, err := svc.AddItem(ctx, owner, 2, "", "4", "")
	require.NoError(t, err)

	after, _, err := svc.Submit(ctx, owner)
	require.ErrorAs(t, err, new(*SubmitError))
	assert.True(t, mr.Exists(draftKey(owner)))
	assert.Equal(t, before.Lines, after.Lines)

	stored, err := svc.Draft(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before.ID, stored.ID)
	assert.Equal(t, StateEditing, stored.State)
}

func TestServiceStartsDraftWithoutCode(t *testing.T) {
	svc, mb, _ := newTestService(t, &fakePoster{})
	mb.codeErr = errors.New("down")

	d, err := svc.Draft(context.Background(), "o")
	require.NoError(t, err)
	assert.Empty(t, d.Code)
}

func TestServiceRefusesEditsWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	poster := &fakePoster{err: errors.New("boom"), block: make(chan struct{})}
	svc, _, _ := newTestService(t, poster)
	owner := "sess-3"

	_, _ = svc.SetDate(ctx, owner, "2026-10-17")
	_, _ = svc.SelectCustomer(ctx, owner, 3, "")
	_, err := svc.AddItem(ctx, owner, 1, "", "1", "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Submit(ctx, owner)
		done <- err
	}()
	require.Eventually(t, func() bool {
		d, ok, err := svc.store.Load(ctx, owner)
		return err == nil && ok && d.State == StateSubmitting
	}, time.Second, 5*time.Millisecond)

	_, err = svc.SetDate(ctx, owner, "2026-10-18")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = svc.RemoveLine(ctx, owner, 1)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.ErrorIs(t, svc.Discard(ctx, owner), ErrSubmissionInProgress)
	_, _, err = svc.Submit(ctx, owner)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(poster.block)
	require.ErrorAs(t, <-done, new(*SubmitError))

	d, err := svc.SetDate(ctx, owner, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, StateEditing, d.State)
	assert.Nil(t, d.SubmitStartedAt)
	assert.Equal(t, "2026-10-18", d.Date)
	assert.Len(t, d.Lines, 1)
	assert.Equal(t, 1, poster.calls)
}

func TestServiceIgnoresStaleSubmittingMarker(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, &fakePoster{})
	owner := "sess-4"

	d, err := svc.Draft(ctx, owner)
	require.NoError(t, err)
	started := time.Now().Add(-time.Hour)
	d.State = StateSubmitting
	d.SubmitStartedAt = &started
	require.NoError(t, svc.store.Save(ctx, owner, d))

	d, err = svc.SetDate(ctx, owner, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, StateEditing, d.State)
	assert.Nil(t, d.SubmitStartedAt)
}
