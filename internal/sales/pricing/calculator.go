// Package pricing computes per-line amounts for sales transactions.
package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Field names a user-editable line attribute.
type Field string

const (
	FieldQuantity           Field = "quantity"
	FieldDiscountPercentage Field = "discountPercentage"
)

var (
	// ErrUnknownField is returned by ApplyEdit for fields that cannot be edited.
	ErrUnknownField = errors.New("pricing: field is not editable")
	// ErrNotNumeric is returned when edited text is not a plain decimal number.
	ErrNotNumeric = errors.New("pricing: input harus berupa angka")
)

var numericPattern = regexp.MustCompile(`^\d*\.?\d*$`)

// CatalogItem is the catalog view of an item at selection time.
type CatalogItem struct {
	ID    int64   `json:"id"`
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Amounts holds the derived values of a line.
type Amounts struct {
	DiscountAmount      float64
	DiscountedUnitPrice float64
	LineTotal           float64
}

// Line is one item row of an in-progress transaction.
type Line struct {
	ItemID              int64   `json:"itemId" yaml:"itemId"`
	Code                string  `json:"code" yaml:"code"`
	Name                string  `json:"name" yaml:"name"`
	UnitPrice           float64 `json:"price" yaml:"price"`
	Quantity            float64 `json:"quantity" yaml:"quantity"`
	DiscountPercentage  float64 `json:"discountPercentage" yaml:"discountPercentage"`
	DiscountAmount      float64 `json:"discountAmount" yaml:"-"`
	DiscountedUnitPrice float64 `json:"discountPrice" yaml:"-"`
	LineTotal           float64 `json:"totalAmount" yaml:"-"`
}

// ComputeLine derives discount amount, discounted unit price and line total.
// The percentage is not clamped; values above 100 yield negative totals.
func ComputeLine(unitPrice, quantity, discountPercentage float64) Amounts {
	discountAmount := unitPrice * discountPercentage / 100
	discounted := unitPrice - discountAmount
	return Amounts{
		DiscountAmount:      discountAmount,
		DiscountedUnitPrice: discounted,
		LineTotal:           quantity * discounted,
	}
}

// SelectCatalogItem returns the default line for a freshly picked item.
func SelectCatalogItem(item CatalogItem) Line {
	return Recompute(Line{
		ItemID:             item.ID,
		Code:               item.Code,
		Name:               item.Name,
		UnitPrice:          item.Price,
		Quantity:           1,
		DiscountPercentage: 0,
	})
}

// Recompute returns a copy of line with every derived field refreshed.
func Recompute(line Line) Line {
	amounts := ComputeLine(line.UnitPrice, line.Quantity, line.DiscountPercentage)
	line.DiscountAmount = amounts.DiscountAmount
	line.DiscountedUnitPrice = amounts.DiscountedUnitPrice
	line.LineTotal = amounts.LineTotal
	return line
}

// ApplyEdit sets quantity or discount percentage from operator text and
// recomputes the derived fields in the same step. Empty text counts as zero.
// On error the original line is returned unchanged.
func ApplyEdit(line Line, field Field, raw string) (Line, error) {
	value, err := ParseAmount(raw)
	if err != nil {
		return line, err
	}
	next := line
	switch field {
	case FieldQuantity:
		next.Quantity = value
	case FieldDiscountPercentage:
		next.DiscountPercentage = value
	default:
		return line, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return Recompute(next), nil
}

// ValidNumber reports whether raw is an unsigned decimal such as "12" or "12.5".
// The empty string is accepted as "not yet entered".
func ValidNumber(raw string) bool {
	return numericPattern.MatchString(raw)
}

// ParseAmount converts operator text that passed ValidNumber into a float.
func ParseAmount(raw string) (float64, error) {
	if !ValidNumber(raw) {
		return 0, ErrNotNumeric
	}
	if raw == "" || raw == "." {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return value, nil
}
