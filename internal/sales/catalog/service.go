// Package catalog manages the item catalog kept by the backend.
package catalog

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

// Backend is the subset of the backend client used for items.
type Backend interface {
	ListItems(ctx context.Context, query string) ([]backend.Item, error)
	CreateItem(ctx context.Context, req backend.CreateItemRequest) (*backend.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// Service wraps item operations.
type Service struct {
	backend Backend
}

// NewService constructs a Service.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// List searches items by name or code.
func (s *Service) List(ctx context.Context, query string) ([]backend.Item, error) {
	items, err := s.backend.ListItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Create validates form and stores the item.
func (s *Service) Create(ctx context.Context, form ItemForm) (*backend.Item, error) {
	req, err := form.Request()
	if err != nil {
		return nil, err
	}
	item, err := s.backend.CreateItem(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// Delete removes the item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	return nil
}
