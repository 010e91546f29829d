package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
)

// LoadDraft decodes a YAML draft, rejects negative amounts and recomputes
// derived line fields. Rows repeating an item ID collapse into the last one.
func LoadDraft(r io.Reader) (transactions.OrderDraft, error) {
	var d transactions.OrderDraft
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return transactions.OrderDraft{}, fmt.Errorf("decode draft: empty document")
		}
		return transactions.OrderDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	if err := d.CheckAmounts(); err != nil {
		return transactions.OrderDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return d.Normalize(), nil
}

// LoadDraftFile reads a draft from path, or from stdin when path is "-".
func LoadDraftFile(path string) (transactions.OrderDraft, error) {
	if path == "-" {
		return LoadDraft(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return transactions.OrderDraft{}, fmt.Errorf("open draft: %w", err)
	}
	defer f.Close()
	return LoadDraft(f)
}
