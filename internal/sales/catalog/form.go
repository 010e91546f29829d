package catalog

import (
	"strings"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
	"github.com/odyssey-erp/salesadmin/internal/shared"
)

var validate = shared.NewValidator()

var itemMessages = map[string]string{
	"code.required":  "Kode barang tidak boleh kosong",
	"code.max":       "Kode barang terlalu panjang",
	"name.required":  "Nama barang tidak boleh kosong",
	"name.max":       "Nama barang terlalu panjang",
	"price.required": "Harga tidak boleh kosong",
	"price.amount":   "Input harus berupa angka",
}

// ItemForm is the operator input for a new item. Price is kept as text so
// it passes the same numeric guard as every other amount field.
type ItemForm struct {
	Code  string `form:"code" json:"code" validate:"required,max=50"`
	Name  string `form:"name" json:"name" validate:"required,max=200"`
	Price string `form:"price" json:"price" validate:"required,amount"`
}

// Normalize trims surrounding whitespace.
func (f ItemForm) Normalize() ItemForm {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
	f.Price = strings.TrimSpace(f.Price)
	return f
}

// Request validates the form and builds the backend payload. Failures are
// reported as shared.FieldErrors.
func (f ItemForm) Request() (backend.CreateItemRequest, error) {
	f = f.Normalize()
	if err := shared.ValidateForm(validate, f, itemMessages); err != nil {
		return backend.CreateItemRequest{}, err
	}
	price, err := pricing.ParseAmount(f.Price)
	if err != nil {
		return backend.CreateItemRequest{}, shared.FieldErrors{"price": itemMessages["price.amount"]}
	}
	return backend.CreateItemRequest{Code: f.Code, Name: f.Name, Price: price}, nil
}
