package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a money value the backend may encode as a JSON number or as a
// decimal string.
type Amount float64

// UnmarshalJSON accepts 1500, 1500.5, "1500.50" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("backend: invalid amount %q: %w", s, err)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// Float64 returns the amount as float64.
func (a Amount) Float64() float64 {
	return float64(a)
}
