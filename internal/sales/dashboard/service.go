// Package dashboard summarises the backend state on the console home page.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

// Backend is the subset of the backend client read by the dashboard.
type Backend interface {
	ListSales(ctx context.Context, query string) ([]backend.Sale, error)
	ListItems(ctx context.Context, query string) ([]backend.Item, error)
	ListCustomers(ctx context.Context, query string) ([]backend.Customer, error)
}

// Summary is the dashboard content.
type Summary struct {
	TransactionCount int
	GrandTotal       float64
	ItemCount        int
	CustomerCount    int
	Recent           []backend.Sale
}

const recentLimit = 5

// Service loads the summary.
type Service struct {
	backend Backend
}

// NewService constructs a Service.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Summary loads transactions, items and customers concurrently. The first
// failing load cancels the others.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var (
		sales     []backend.Sale
		items     []backend.Item
		customers []backend.Customer
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.backend.ListSales(ctx, "")
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = s.backend.ListItems(ctx, "")
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		customers, err = s.backend.ListCustomers(ctx, "")
		if err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	recent := sales
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return Summary{
		TransactionCount: len(sales),
		GrandTotal:       backend.SumTotalPayment(sales),
		ItemCount:        len(items),
		CustomerCount:    len(customers),
		Recent:           recent,
	}, nil
}
