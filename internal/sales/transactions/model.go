package transactions

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

// ErrNegativeAmount rejects drafts carrying negative amounts.
var ErrNegativeAmount = errors.New("transactions: amount must not be negative")

// State is the submission state of a draft.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
)

// CustomerRef is the customer picked through the lookup dialog.
type CustomerRef struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
}

// OrderDraft is a transaction being assembled by an operator.
type OrderDraft struct {
	ID           string            `json:"id" yaml:"-"`
	Code         string            `json:"code" yaml:"code"`
	Date         string            `json:"date" yaml:"date"`
	Customer     *CustomerRef      `json:"customer,omitempty" yaml:"customer"`
	Lines        []pricing.Line    `json:"lines" yaml:"lines"`
	Discount     float64           `json:"discount" yaml:"discount"`
	ShippingCost float64           `json:"shippingCost" yaml:"shippingCost"`
	State        State             `json:"state" yaml:"-"`
	Errors       map[string]string `json:"errors,omitempty" yaml:"-"`
	CreatedAt    time.Time         `json:"createdAt" yaml:"-"`

	// SubmitStartedAt is set while the stored draft is being posted.
	SubmitStartedAt *time.Time `json:"submitStartedAt,omitempty" yaml:"-"`
}

// Totals aggregates a draft's lines.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	GrandTotal float64 `json:"grandTotal"`
}

// NewDraft starts an empty draft carrying the server-assigned code.
func NewDraft(code string) OrderDraft {
	return OrderDraft{
		ID:        uuid.NewString(),
		Code:      code,
		Lines:     []pricing.Line{},
		State:     StateEditing,
		CreatedAt: time.Now().UTC(),
	}
}

// Totals computes subtotal and grand total for the draft.
func (d OrderDraft) Totals() Totals {
	return ComputeTotals(d.Lines, d.Discount, d.ShippingCost)
}

// Normalize recomputes derived line fields and folds lines sharing an item
// ID into one, the later row winning. Drafts loaded from files or storage
// pass through here before any other operation.
func (d OrderDraft) Normalize() OrderDraft {
	lines := make([]pricing.Line, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = UpsertLineItem(lines, line)
	}
	d.Lines = lines
	if d.State == "" {
		d.State = StateEditing
	}
	return d
}

// CheckAmounts rejects negative prices, quantities, discounts and costs.
// Operator text cannot produce them; drafts read from files can.
func (d OrderDraft) CheckAmounts() error {
	if d.Discount < 0 {
		return fmt.Errorf("%w: discount %v", ErrNegativeAmount, d.Discount)
	}
	if d.ShippingCost < 0 {
		return fmt.Errorf("%w: shippingCost %v", ErrNegativeAmount, d.ShippingCost)
	}
	for _, line := range d.Lines {
		switch {
		case line.UnitPrice < 0:
			return fmt.Errorf("%w: item %d price %v", ErrNegativeAmount, line.ItemID, line.UnitPrice)
		case line.Quantity < 0:
			return fmt.Errorf("%w: item %d quantity %v", ErrNegativeAmount, line.ItemID, line.Quantity)
		case line.DiscountPercentage < 0:
			return fmt.Errorf("%w: item %d discountPercentage %v", ErrNegativeAmount, line.ItemID, line.DiscountPercentage)
		}
	}
	return nil
}

// Submitting reports whether a submit of d started less than window ago.
// Older markers belong to a submit that never finished and are ignored.
func (d OrderDraft) Submitting(now time.Time, window time.Duration) bool {
	if d.State != StateSubmitting || d.SubmitStartedAt == nil {
		return false
	}
	return now.Sub(*d.SubmitStartedAt) < window
}

// Line returns the line for itemID, if present.
func (d OrderDraft) Line(itemID int64) (pricing.Line, bool) {
	for _, line := range d.Lines {
		if line.ItemID == itemID {
			return line, true
		}
	}
	return pricing.Line{}, false
}
