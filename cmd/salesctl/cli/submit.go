package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
)

// CodeSource hands out transaction codes.
type CodeSource interface {
	NextSaleCode(ctx context.Context) (string, error)
}

// SalesCLI runs commands that talk to the backend.
type SalesCLI struct {
	submitter *transactions.Submitter
	codes     CodeSource
}

// NewSalesCLI wires the CLI onto a backend client.
func NewSalesCLI(poster transactions.Poster, codes CodeSource, opts ...transactions.SubmitterOption) (*SalesCLI, error) {
	if poster == nil || codes == nil {
		return nil, errors.New("salesctl: backend not configured")
	}
	return &SalesCLI{
		submitter: transactions.NewSubmitter(poster, opts...),
		codes:     codes,
	}, nil
}

// SubmitOptions configures the submit command.
type SubmitOptions struct {
	File       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// SubmitCommand validates a draft file and posts it. Validation failures
// exit with ExitInvalid without calling the backend; backend failures exit
// with ExitBackend.
func (c *SalesCLI) SubmitCommand(ctx context.Context, opts SubmitOptions) int {
	d, err := LoadDraftFile(opts.File)
	if err != nil {
		fmt.Fprintln(opts.Stderr, err)
		return ExitInvalid
	}
	if d.Code == "" {
		code, err := c.codes.NextSaleCode(ctx)
		if err != nil {
			fmt.Fprintln(opts.Stderr, "Gagal mengambil kode transaksi:", backend.MessageOr(err, err.Error()))
			return ExitBackend
		}
		d.Code = code
	}

	_, sale, err := c.submitter.Submit(ctx, d)
	var formErr *transactions.FormError
	switch {
	case errors.As(err, &formErr):
		writeQuote(opts.Stderr, Summarize(d))
		return ExitInvalid
	case err != nil:
		fmt.Fprintln(opts.Stderr, err)
		return ExitBackend
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(sale); err != nil {
			fmt.Fprintln(opts.Stderr, err)
		}
		return ExitOK
	}
	code := d.Code
	if sale != nil && sale.Code != "" {
		code = sale.Code
	}
	fmt.Fprintf(opts.Stdout, "Transaksi %s berhasil disimpan\n", code)
	return ExitOK
}

// CodeCommand prints the next transaction code.
func (c *SalesCLI) CodeCommand(ctx context.Context, stdout, stderr io.Writer) int {
	code, err := c.codes.NextSaleCode(ctx)
	if err != nil {
		fmt.Fprintln(stderr, backend.MessageOr(err, err.Error()))
		return ExitBackend
	}
	fmt.Fprintln(stdout, code)
	return ExitOK
}
