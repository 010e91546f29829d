// Package customers manages customer records kept by the backend.
package customers

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

// Backend is the subset of the backend client used for customers.
type Backend interface {
	ListCustomers(ctx context.Context, query string) ([]backend.Customer, error)
	CreateCustomer(ctx context.Context, req backend.CreateCustomerRequest) (*backend.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

type Service struct {
	backend Backend
}

func NewService(b Backend) *Service {
	return &Service{backend: b}
}

func (s *Service) List(ctx context.Context, query string) ([]backend.Customer, error) {
	customers, err := s.backend.ListCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Service) Create(ctx context.Context, form CustomerForm) (*backend.Customer, error) {
	req, err := form.Request()
	if err != nil {
		return nil, err
	}
	customer, err := s.backend.CreateCustomer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return nil
}
