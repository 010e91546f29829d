package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a transaction date the backend may send as an RFC 3339 timestamp
// or echo back as the posted YYYY-MM-DD value.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 timestamps, YYYY-MM-DD, "" and null.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("backend: invalid date %s: %w", data, err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("backend: invalid date %q", s)
}
