package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
	"github.com/odyssey-erp/salesadmin/internal/view"
)

// Exit codes shared by the salesctl commands.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitBackend = 2
)

// QuoteOptions configures the quote command.
type QuoteOptions struct {
	File       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// QuoteSummary is the machine-readable result of a quote.
type QuoteSummary struct {
	Code       string              `json:"code,omitempty"`
	Date       string              `json:"date"`
	Lines      []pricing.Line      `json:"lines"`
	Totals     transactions.Totals `json:"totals"`
	Valid      bool                `json:"valid"`
	ErrorCount int                 `json:"errorCount"`
	Errors     map[string]string   `json:"errors,omitempty"`
}

// Summarize computes totals and validation for d.
func Summarize(d transactions.OrderDraft) QuoteSummary {
	validation := transactions.ValidateOrder(d)
	return QuoteSummary{
		Code:       d.Code,
		Date:       d.Date,
		Lines:      d.Lines,
		Totals:     d.Totals(),
		Valid:      validation.Valid(),
		ErrorCount: validation.ErrorCount,
		Errors:     validation.Errors,
	}
}

// QuoteCommand prints line amounts, totals and validation errors of a draft
// file. It exits with ExitInvalid when the draft would be refused.
func QuoteCommand(opts QuoteOptions) int {
	d, err := LoadDraftFile(opts.File)
	if err != nil {
		fmt.Fprintln(opts.Stderr, err)
		return ExitInvalid
	}
	summary := Summarize(d)
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintln(opts.Stderr, err)
			return ExitInvalid
		}
	} else {
		writeQuote(opts.Stdout, summary)
	}
	if !summary.Valid {
		return ExitInvalid
	}
	return ExitOK
}

func writeQuote(w io.Writer, s QuoteSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KODE\tNAMA\tHARGA\tQTY\tDISKON %\tHARGA DISKON\tTOTAL")
	for _, line := range s.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			line.Code,
			line.Name,
			view.FormatCurrency(line.UnitPrice),
			view.FormatNumber(line.Quantity),
			view.FormatNumber(line.DiscountPercentage),
			view.FormatCurrency(line.DiscountedUnitPrice),
			view.FormatCurrency(line.LineTotal),
		)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Sub Total: %s\n", view.FormatCurrency(s.Totals.Subtotal))
	fmt.Fprintf(w, "Total Bayar: %s\n", view.FormatCurrency(s.Totals.GrandTotal))
	if s.Valid {
		return
	}
	fields := make([]string, 0, len(s.Errors))
	for field := range s.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	fmt.Fprintf(w, "%d kesalahan:\n", s.ErrorCount)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s: %s\n", field, s.Errors[field])
	}
}
