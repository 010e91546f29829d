package shared

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

// MsgFormHasErrors is the aggregate notification for a rejected form.
const MsgFormHasErrors = "Ada kesalahan isian pada form"

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return MsgFormHasErrors
}

// NewValidator returns a validator that reports fields by their form tag
// and understands the "amount" rule for free-text numeric input.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return pricing.ValidNumber(fl.Field().String())
	})
	return v
}

// ValidateForm runs v over form and translates failures using messages,
// keyed by "field.tag" or by "field" alone. Unmapped failures fall back to
// the validator text.
func ValidateForm(v *validator.Validate, form any, messages map[string]string) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			out[field] = msg
		} else if msg, ok := messages[field]; ok {
			out[field] = msg
		} else {
			out[field] = fe.Error()
		}
	}
	return out
}
