package backend

import (
	"context"
	"net/http"
	"strconv"
)

// ListItems searches the catalog; an empty query lists everything.
func (c *Client) ListItems(ctx context.Context, query string) ([]Item, error) {
	var items []Item
	if err := c.lookup(ctx, "list_items", withQuery("/items", query), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem adds a catalog item.
func (c *Client) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	var item Item
	if err := c.mutate(ctx, "create_item", http.MethodPost, "/items/create", req, &item, nil); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes a catalog item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.mutate(ctx, "delete_item", http.MethodDelete, "/items/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
