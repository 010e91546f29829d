package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ListSales searches transactions by customer name or transaction code.
func (c *Client) ListSales(ctx context.Context, query string) ([]Sale, error) {
	var sales []Sale
	if err := c.lookup(ctx, "list_sales", withQuery("/sales", query), &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// NextSaleCode returns the display code for a new transaction. The backend
// answers with either a JSON string or plain text.
func (c *Client) NextSaleCode(ctx context.Context) (string, error) {
	raw, err := c.do(ctx, "sale_code", http.MethodGet, "/sales/code", nil, nil)
	if err != nil {
		return "", err
	}
	trimmed := bytes.TrimSpace(raw)
	var code string
	if err := json.Unmarshal(trimmed, &code); err == nil {
		return code, nil
	}
	return strings.TrimSpace(string(trimmed)), nil
}

// CreateSale posts an assembled transaction. idempotencyKey is sent as the
// Idempotency-Key header when non-empty.
func (c *Client) CreateSale(ctx context.Context, idempotencyKey string, req CreateSaleRequest) (*Sale, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	var sale Sale
	if err := c.mutate(ctx, "create_sale", http.MethodPost, "/sales/create", req, &sale, header); err != nil {
		return nil, err
	}
	return &sale, nil
}
