package backend

import (
	"context"
	"net/http"
	"strconv"
)

// ListCustomers searches customers by name.
func (c *Client) ListCustomers(ctx context.Context, query string) ([]Customer, error) {
	var customers []Customer
	if err := c.lookup(ctx, "list_customers", withQuery("/customers", query), &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// CreateCustomer adds a customer.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	var customer Customer
	if err := c.mutate(ctx, "create_customer", http.MethodPost, "/customers/create", req, &customer, nil); err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.mutate(ctx, "delete_customer", http.MethodDelete, "/customers/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
