package customers

import (
	"strings"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/shared"
)

var validate = shared.NewValidator()

var customerMessages = map[string]string{
	"name.required":  "Nama customer tidak boleh kosong",
	"name.max":       "Nama customer terlalu panjang",
	"phone.required": "Data telepon tidak boleh kosong",
	"phone.max":      "Data telepon terlalu panjang",
}

// CustomerForm is the operator input for a new customer.
type CustomerForm struct {
	Name  string `form:"name" json:"name" validate:"required,max=200"`
	Phone string `form:"phone" json:"phone" validate:"required,max=50"`
}

// Request validates the form and builds the backend payload.
func (f CustomerForm) Request() (backend.CreateCustomerRequest, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	if err := shared.ValidateForm(validate, f, customerMessages); err != nil {
		return backend.CreateCustomerRequest{}, err
	}
	return backend.CreateCustomerRequest{Name: f.Name, Phone: f.Phone}, nil
}
