package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
)

const validDraft = `code: TRX-202610-0001
date: "2026-10-17"
customer:
  id: 3
  name: Budi
  phone: "0812"
discount: 50
shippingCost: 0
lines:
  - itemId: 1
    code: BRG-1
    name: Kopi Arabika
    price: 1000
    quantity: 1
  - itemId: 2
    code: BRG-2
    name: Teh Melati
    price: 500
    quantity: 2
    discountPercentage: 20
`

func writeDraft(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type stubBackend struct {
	code      string
	codeErr   error
	createErr error
	requests  []backend.CreateSaleRequest
	keys      []string
}

func (s *stubBackend) NextSaleCode(ctx context.Context) (string, error) {
	return s.code, s.codeErr
}

func (s *stubBackend) CreateSale(ctx context.Context, key string, req backend.CreateSaleRequest) (*backend.Sale, error) {
	s.requests = append(s.requests, req)
	s.keys = append(s.keys, key)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &backend.Sale{ID: 9, Code: s.code}, nil
}

func TestLoadDraftRecomputesDerivedFields(t *testing.T) {
	d, err := LoadDraft(strings.NewReader(validDraft))
	require.NoError(t, err)
	require.Len(t, d.Lines, 2)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 400.0, d.Lines[1].DiscountedUnitPrice)
	assert.Equal(t, 800.0, d.Lines[1].LineTotal)
	assert.Equal(t, 1800.0, d.Totals().Subtotal)
	assert.Equal(t, 1750.0, d.Totals().GrandTotal)
}

func TestLoadDraftRejectsUnknownFields(t *testing.T) {
	_, err := LoadDraft(strings.NewReader("date: \"2026-10-17\"\ntotal: 5\n"))
	require.Error(t, err)

	_, err = LoadDraft(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadDraftFoldsRepeatedItems(t *testing.T) {
	body := `date: "2026-10-17"
lines:
  - itemId: 7
    price: 1000
    quantity: 1
  - itemId: 7
    price: 1000
    quantity: 2
  - itemId: 8
    price: 1000
    quantity: 3
`
	d, err := LoadDraft(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, int64(8), d.Lines[0].ItemID)
	assert.Equal(t, 2.0, d.Lines[1].Quantity)
	assert.Equal(t, 5000.0, d.Totals().Subtotal)
}

func TestLoadDraftRejectsNegativeAmounts(t *testing.T) {
	body := `date: "2026-10-17"
lines:
  - itemId: 8
    price: 1000
    quantity: -3
`
	_, err := LoadDraft(strings.NewReader(body))
	require.ErrorIs(t, err, transactions.ErrNegativeAmount)
}

func TestSubmitCommandRejectsNegativeQuantity(t *testing.T) {
	stub := &stubBackend{code: "TRX-1"}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	draft := strings.Replace(validDraft, "    quantity: 2\n", "    quantity: -2\n", 1)
	stderr := new(bytes.Buffer)
	code := sales.SubmitCommand(context.Background(), SubmitOptions{File: writeDraft(t, draft), Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitInvalid, code)
	assert.Empty(t, stub.requests)
	assert.Contains(t, stderr.String(), "negative")
}

func TestQuoteCommandJSON(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := QuoteCommand(QuoteOptions{File: writeDraft(t, validDraft), JSONOutput: true, Stdout: stdout, Stderr: stderr})
	require.Equal(t, ExitOK, code)
	require.Empty(t, stderr.String())

	var summary QuoteSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.True(t, summary.Valid)
	assert.Equal(t, 1750.0, summary.Totals.GrandTotal)
	assert.Equal(t, 200.0, summary.Lines[1].DiscountAmount)
}

func TestQuoteCommandReportsValidationErrors(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := QuoteCommand(QuoteOptions{File: writeDraft(t, "lines: []\n"), Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, ExitInvalid, code)
	out := stdout.String()
	assert.Contains(t, out, "5 kesalahan")
	assert.Contains(t, out, "Tanggal transaksi tidak boleh kosong")
	assert.Contains(t, out, "Data item tidak boleh kosong")
}

func TestQuoteCommandMissingFile(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := QuoteCommand(QuoteOptions{File: filepath.Join(t.TempDir(), "missing.yaml"), Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitInvalid, code)
	assert.Contains(t, stderr.String(), "open draft")
}

func TestSubmitCommandPostsDraft(t *testing.T) {
	stub := &stubBackend{code: "TRX-202610-0001"}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	code := sales.SubmitCommand(context.Background(), SubmitOptions{File: writeDraft(t, validDraft), Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "Transaksi TRX-202610-0001 berhasil disimpan")

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, int64(3), req.CustomerID)
	assert.Equal(t, 1800.0, req.Subtotal)
	assert.Equal(t, 1750.0, req.TotalPayment)
	assert.NotEmpty(t, stub.keys[0])
}

func TestSubmitCommandInvalidDraftSkipsBackend(t *testing.T) {
	stub := &stubBackend{code: "TRX-1"}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	code := sales.SubmitCommand(context.Background(), SubmitOptions{File: writeDraft(t, "date: \"2026-10-17\"\n"), Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitInvalid, code)
	assert.Empty(t, stub.requests)
	assert.Contains(t, stderr.String(), "Code customer tidak boleh kosong")
}

func TestSubmitCommandBackendFailure(t *testing.T) {
	stub := &stubBackend{code: "TRX-1", createErr: &backend.APIError{Status: 400, Message: "Stok tidak cukup"}}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	code := sales.SubmitCommand(context.Background(), SubmitOptions{File: writeDraft(t, validDraft), Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitBackend, code)
	assert.Contains(t, stderr.String(), "Stok tidak cukup")
}

func TestSubmitCommandFetchesMissingCode(t *testing.T) {
	stub := &stubBackend{codeErr: errors.New("dial tcp: refused")}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	draft := strings.Replace(validDraft, "code: TRX-202610-0001\n", "", 1)
	code := sales.SubmitCommand(context.Background(), SubmitOptions{File: writeDraft(t, draft), Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	assert.Equal(t, ExitBackend, code)
	assert.Empty(t, stub.requests)
}

func TestCodeCommandPrintsNextCode(t *testing.T) {
	stub := &stubBackend{code: "TRX-202610-0002"}
	sales, err := NewSalesCLI(stub, stub)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	require.Equal(t, ExitOK, sales.CodeCommand(context.Background(), stdout, new(bytes.Buffer)))
	assert.Equal(t, "TRX-202610-0002\n", stdout.String())
}

func TestNewSalesCLIRequiresBackend(t *testing.T) {
	_, err := NewSalesCLI(nil, nil)
	assert.Error(t, err)
}
