package transactions

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

// Field keys used in ValidationState.
const (
	FieldDate          = "transactionDate"
	FieldCustomer      = "customer"
	FieldCustomerName  = "customer.name"
	FieldCustomerPhone = "customer.phone"
	FieldLineItems     = "lineItems"
	FieldDiscount      = "discount"
	FieldShippingCost  = "shippingCost"
)

const (
	msgDateRequired     = "Tanggal transaksi tidak boleh kosong"
	msgCustomerRequired = "Code customer tidak boleh kosong"
	msgNameRequired     = "Nama customer tidak boleh kosong"
	msgPhoneRequired    = "Data telepon tidak boleh kosong"
	msgLinesRequired    = "Data item tidak boleh kosong"
	msgNotNumeric       = "Input harus berupa angka"

	// MsgFormHasErrors is the aggregate notification for a refused submit.
	MsgFormHasErrors = "Ada kesalahan isian pada form"
)

// ErrUnknownCostField is returned by SetCostOption for fields other than
// discount and shippingCost.
var ErrUnknownCostField = errors.New("transactions: unknown cost field")

// ValidationState maps field keys to messages. ErrorCount is the number of
// non-empty messages.
type ValidationState struct {
	Errors     map[string]string `json:"errors"`
	ErrorCount int               `json:"errorCount"`
}

// Valid reports whether the state allows submission.
func (v ValidationState) Valid() bool {
	return v.ErrorCount == 0
}

// Message returns the error for field or "".
func (v ValidationState) Message(field string) string {
	return v.Errors[field]
}

// InputError reports free-text numeric input that was not committed.
type InputError struct {
	Field string
	Raw   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, msgNotNumeric)
}

func (e *InputError) Unwrap() error {
	return pricing.ErrNotNumeric
}

// ValidateOrder recomputes the full validation state of a draft. Rules are
// independent; pending numeric input errors recorded on the draft are kept
// because the rejected text was never stored.
func ValidateOrder(d OrderDraft) ValidationState {
	errs := make(map[string]string)
	if d.Date == "" {
		errs[FieldDate] = msgDateRequired
	}
	if d.Customer == nil || d.Customer.ID == 0 {
		errs[FieldCustomer] = msgCustomerRequired
	}
	if d.Customer == nil || d.Customer.Name == "" {
		errs[FieldCustomerName] = msgNameRequired
	}
	if d.Customer == nil || d.Customer.Phone == "" {
		errs[FieldCustomerPhone] = msgPhoneRequired
	}
	if len(d.Lines) == 0 {
		errs[FieldLineItems] = msgLinesRequired
	}
	for _, field := range []string{FieldDiscount, FieldShippingCost} {
		if msg := d.Errors[field]; msg != "" {
			errs[field] = msg
		}
	}
	return newValidationState(errs)
}

func newValidationState(errs map[string]string) ValidationState {
	count := 0
	for _, msg := range errs {
		if msg != "" {
			count++
		}
	}
	return ValidationState{Errors: errs, ErrorCount: count}
}

// Validation returns the errors currently displayed on the draft.
func (d OrderDraft) Validation() ValidationState {
	return newValidationState(copyErrors(d.Errors))
}

// SetDate stores the transaction date and clears its error.
func (d OrderDraft) SetDate(date string) OrderDraft {
	d.Date = date
	return d.clearErrors(FieldDate)
}

// SelectCustomer stores the picked customer and clears customer errors.
func (d OrderDraft) SelectCustomer(c CustomerRef) OrderDraft {
	d.Customer = &c
	return d.clearErrors(FieldCustomer, FieldCustomerName, FieldCustomerPhone)
}

// AddLine upserts a line and clears the line items error.
func (d OrderDraft) AddLine(line pricing.Line) OrderDraft {
	d.Lines = UpsertLineItem(d.Lines, line)
	return d.clearErrors(FieldLineItems)
}

// DeleteLine removes the line for itemID.
func (d OrderDraft) DeleteLine(itemID int64) OrderDraft {
	d.Lines = RemoveLineItem(d.Lines, itemID)
	return d
}

// SetCostOption applies operator text to discount or shippingCost. Text that
// fails the numeric guard is rejected: the stored value is left unchanged and
// the field error is recorded on the returned draft alongside an *InputError.
func (d OrderDraft) SetCostOption(field, raw string) (OrderDraft, error) {
	if field != FieldDiscount && field != FieldShippingCost {
		return d, fmt.Errorf("%w: %s", ErrUnknownCostField, field)
	}
	value, err := pricing.ParseAmount(raw)
	if err != nil {
		errs := copyErrors(d.Errors)
		errs[field] = msgNotNumeric
		d.Errors = errs
		return d, &InputError{Field: field, Raw: raw}
	}
	if field == FieldDiscount {
		d.Discount = value
	} else {
		d.ShippingCost = value
	}
	return d.clearErrors(field), nil
}

func (d OrderDraft) clearErrors(fields ...string) OrderDraft {
	if len(d.Errors) == 0 {
		return d
	}
	errs := copyErrors(d.Errors)
	for _, field := range fields {
		delete(errs, field)
	}
	d.Errors = errs
	return d
}

func copyErrors(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
