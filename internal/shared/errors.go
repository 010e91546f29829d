package shared

import (
	"errors"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// MsgGeneric is shown when an error carries nothing an operator can act on.
const MsgGeneric = "Terjadi kesalahan"

// UserSafeMessage returns text suitable for a flash message. Backend
// messages are passed through; anything else collapses to MsgGeneric.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return "Server tidak dapat dihubungi"
	}
	return backend.MessageOr(err, MsgGeneric)
}
