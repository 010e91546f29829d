package backend

import (
	"time"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

// Item is a catalog item.
type Item struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     Amount    `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CatalogItem converts the item to the view used when picking line items.
func (i Item) CatalogItem() pricing.CatalogItem {
	return pricing.CatalogItem{ID: i.ID, Code: i.Code, Name: i.Name, Price: i.Price.Float64()}
}

// Customer is a customer record.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaleDetail is a stored line of a sale.
type SaleDetail struct {
	ID                 int64  `json:"id"`
	SaleID             int64  `json:"saleId"`
	ItemID             int64  `json:"itemId"`
	Price              Amount `json:"price"`
	Quantity           Amount `json:"quantity"`
	DiscountPercentage Amount `json:"discountPercentage"`
	DiscountAmount     Amount `json:"discountAmount"`
	DiscountPrice      Amount `json:"discountPrice"`
	TotalAmount        Amount `json:"totalAmount"`
}

// Sale is a stored transaction.
type Sale struct {
	ID           int64        `json:"id"`
	Code         string       `json:"code"`
	Date         Date         `json:"date"`
	CustomerID   int64        `json:"customerId"`
	Subtotal     Amount       `json:"subtotal"`
	Discount     Amount       `json:"discount"`
	ShippingCost Amount       `json:"shippingCost"`
	TotalPayment Amount       `json:"totalPayment"`
	Customer     *Customer    `json:"customer,omitempty"`
	SaleDetail   []SaleDetail `json:"saleDetail"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ItemCount is the total quantity over the sale's details.
func (s Sale) ItemCount() float64 {
	var qty float64
	for _, d := range s.SaleDetail {
		qty += d.Quantity.Float64()
	}
	return qty
}

// CustomerName returns the embedded customer's name or "".
func (s Sale) CustomerName() string {
	if s.Customer == nil {
		return ""
	}
	return s.Customer.Name
}

// SumTotalPayment adds up TotalPayment over sales.
func SumTotalPayment(sales []Sale) float64 {
	var total float64
	for _, s := range sales {
		total += s.TotalPayment.Float64()
	}
	return total
}

// CreateSaleRequest is the body of POST /sales/create.
type CreateSaleRequest struct {
	Date         string         `json:"date"`
	CustomerID   int64          `json:"customerId"`
	Subtotal     float64        `json:"subtotal"`
	Discount     float64        `json:"discount"`
	ShippingCost float64        `json:"shippingCost"`
	TotalPayment float64        `json:"totalPayment"`
	Details      []pricing.Line `json:"details"`
}

// CreateItemRequest is the body of POST /items/create.
type CreateItemRequest struct {
	Name  string  `json:"name"`
	Code  string  `json:"code"`
	Price float64 `json:"price"`
}

// CreateCustomerRequest is the body of POST /customers/create.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
