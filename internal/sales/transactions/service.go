package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

const submitWindowSlack = 5 * time.Second

var (
	ErrCustomerNotFound = errors.New("transactions: customer not found")
	ErrItemNotFound     = errors.New("transactions: item not found")
	ErrLineNotFound     = errors.New("transactions: line not found")
)

// Backend is the subset of the backend client used for drafting.
type Backend interface {
	NextSaleCode(ctx context.Context) (string, error)
	ListSales(ctx context.Context, query string) ([]backend.Sale, error)
	ListItems(ctx context.Context, query string) ([]backend.Item, error)
	ListCustomers(ctx context.Context, query string) ([]backend.Customer, error)
}

// DraftView bundles a draft with its derived totals and displayed errors.
type DraftView struct {
	Draft      OrderDraft      `json:"draft"`
	Totals     Totals          `json:"totals"`
	Validation ValidationState `json:"validation"`
	// CostInputsDisabled mirrors the form: discount and shipping cannot be
	// entered before any line contributes to the subtotal.
	CostInputsDisabled bool `json:"costInputsDisabled"`
}

// NewDraftView derives the view of d.
func NewDraftView(d OrderDraft) DraftView {
	totals := d.Totals()
	return DraftView{
		Draft:              d,
		Totals:             totals,
		Validation:         d.Validation(),
		CostInputsDisabled: totals.Subtotal == 0,
	}
}

// Service manages per-session drafts and their submission.
type Service struct {
	backend   Backend
	store     DraftStore
	submitter *Submitter
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(b Backend, store DraftStore, submitter *Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, store: store, submitter: submitter, logger: logger}
}

// ListTransactions searches stored transactions.
func (s *Service) ListTransactions(ctx context.Context, query string) ([]backend.Sale, error) {
	sales, err := s.backend.ListSales(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return sales, nil
}

// SearchItems is the catalog lookup used by the item picker.
func (s *Service) SearchItems(ctx context.Context, query string) ([]backend.Item, error) {
	items, err := s.backend.ListItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// SearchCustomers is the lookup used by the customer picker.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]backend.Customer, error) {
	customers, err := s.backend.ListCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return customers, nil
}

// Draft returns the owner's draft, starting a new one when none exists.
func (s *Service) Draft(ctx context.Context, owner string) (OrderDraft, error) {
	d, ok, err := s.store.Load(ctx, owner)
	if err != nil {
		return OrderDraft{}, err
	}
	if ok {
		return d, nil
	}
	return s.start(ctx, owner)
}

// Discard drops the owner's draft unless a submit of it is in flight.
func (s *Service) Discard(ctx context.Context, owner string) error {
	d, ok, err := s.store.Load(ctx, owner)
	if err != nil {
		return err
	}
	if ok && d.Submitting(time.Now(), s.submitWindow()) {
		return ErrSubmissionInProgress
	}
	return s.store.Delete(ctx, owner)
}

func (s *Service) start(ctx context.Context, owner string) (OrderDraft, error) {
	code, err := s.backend.NextSaleCode(ctx)
	if err != nil {
		// The code is display-only; the draft stays usable without it.
		s.logger.Warn("fetch transaction code", slog.Any("error", err))
	}
	d := NewDraft(code)
	if err := s.store.Save(ctx, owner, d); err != nil {
		return OrderDraft{}, err
	}
	return d, nil
}

// submitWindow is how long a stored submitting marker blocks edits.
func (s *Service) submitWindow() time.Duration {
	return s.submitter.Timeout() + submitWindowSlack
}

func (s *Service) update(ctx context.Context, owner string, fn func(OrderDraft) (OrderDraft, error)) (OrderDraft, error) {
	d, err := s.Draft(ctx, owner)
	if err != nil {
		return OrderDraft{}, err
	}
	if d.Submitting(time.Now(), s.submitWindow()) {
		return d, ErrSubmissionInProgress
	}
	if d.State == StateSubmitting {
		d.State = StateEditing
		d.SubmitStartedAt = nil
	}
	next, fnErr := fn(d)
	if err := s.store.Save(ctx, owner, next); err != nil {
		return d, err
	}
	return next, fnErr
}

// SetDate stores the transaction date.
func (s *Service) SetDate(ctx context.Context, owner, date string) (OrderDraft, error) {
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		return d.SetDate(date), nil
	})
}

// SelectCustomer resolves customerID through the customer lookup and puts it
// on the draft. hint narrows the lookup and may be empty.
func (s *Service) SelectCustomer(ctx context.Context, owner string, customerID int64, hint string) (OrderDraft, error) {
	customer, err := s.findCustomer(ctx, customerID, hint)
	if err != nil {
		return OrderDraft{}, err
	}
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		return d.SelectCustomer(CustomerRef{ID: customer.ID, Name: customer.Name, Phone: customer.Phone}), nil
	})
}

// AddItem resolves itemID through the catalog lookup, applies quantity and
// discount text and upserts the resulting line.
func (s *Service) AddItem(ctx context.Context, owner string, itemID int64, hint, quantity, discount string) (OrderDraft, error) {
	item, err := s.findItem(ctx, itemID, hint)
	if err != nil {
		return OrderDraft{}, err
	}
	line, err := editLine(pricing.SelectCatalogItem(item.CatalogItem()), quantity, discount)
	if err != nil {
		return OrderDraft{}, err
	}
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		return d.AddLine(line), nil
	})
}

// UpdateLine edits quantity and discount of an existing line. The unit price
// fixed at selection time is kept.
func (s *Service) UpdateLine(ctx context.Context, owner string, itemID int64, quantity, discount string) (OrderDraft, error) {
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		line, ok := d.Line(itemID)
		if !ok {
			return d, fmt.Errorf("%w: %d", ErrLineNotFound, itemID)
		}
		edited, err := editLine(line, quantity, discount)
		if err != nil {
			return d, err
		}
		return d.AddLine(edited), nil
	})
}

// RemoveLine deletes the line for itemID; unknown items are ignored.
func (s *Service) RemoveLine(ctx context.Context, owner string, itemID int64) (OrderDraft, error) {
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		return d.DeleteLine(itemID), nil
	})
}

// SetCostOption applies discount or shipping text. Rejected text is
// reported as *InputError and the stored value is unchanged.
func (s *Service) SetCostOption(ctx context.Context, owner, field, raw string) (OrderDraft, error) {
	return s.update(ctx, owner, func(d OrderDraft) (OrderDraft, error) {
		return d.SetCostOption(field, raw)
	})
}

// Submit validates and posts the owner's draft. The draft is discarded on
// success and kept otherwise.
func (s *Service) Submit(ctx context.Context, owner string) (OrderDraft, *backend.Sale, error) {
	d, err := s.Draft(ctx, owner)
	if err != nil {
		return OrderDraft{}, nil, err
	}
	now := time.Now().UTC()
	if d.Submitting(now, s.submitWindow()) {
		return d, nil, ErrSubmissionInProgress
	}
	// Other tabs see the marker and stop editing until the outcome is saved.
	pending := d
	pending.State = StateSubmitting
	pending.SubmitStartedAt = &now
	if err := s.store.Save(ctx, owner, pending); err != nil {
		return d, nil, err
	}

	next, sale, submitErr := s.submitter.Submit(ctx, d)
	if submitErr == nil {
		if err := s.store.Delete(ctx, owner); err != nil {
			s.logger.Warn("discard submitted draft", slog.Any("error", err))
		}
		return next, sale, nil
	}
	if errors.Is(submitErr, ErrSubmissionInProgress) {
		return d, nil, submitErr
	}
	if err := s.store.Save(context.WithoutCancel(ctx), owner, next); err != nil {
		s.logger.Warn("keep draft after failed submit", slog.Any("error", err))
	}
	return next, nil, submitErr
}

func editLine(line pricing.Line, quantity, discount string) (pricing.Line, error) {
	var err error
	if quantity != "" {
		if line, err = pricing.ApplyEdit(line, pricing.FieldQuantity, quantity); err != nil {
			return line, &InputError{Field: string(pricing.FieldQuantity), Raw: quantity}
		}
	}
	if discount != "" {
		if line, err = pricing.ApplyEdit(line, pricing.FieldDiscountPercentage, discount); err != nil {
			return line, &InputError{Field: string(pricing.FieldDiscountPercentage), Raw: discount}
		}
	}
	return line, nil
}

func (s *Service) findCustomer(ctx context.Context, id int64, hint string) (backend.Customer, error) {
	queries := []string{hint}
	if hint != "" {
		queries = append(queries, "")
	}
	for _, q := range queries {
		customers, err := s.backend.ListCustomers(ctx, q)
		if err != nil {
			return backend.Customer{}, fmt.Errorf("lookup customer: %w", err)
		}
		for _, c := range customers {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return backend.Customer{}, fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
}

func (s *Service) findItem(ctx context.Context, id int64, hint string) (backend.Item, error) {
	queries := []string{hint}
	if hint != "" {
		queries = append(queries, "")
	}
	for _, q := range queries {
		items, err := s.backend.ListItems(ctx, q)
		if err != nil {
			return backend.Item{}, fmt.Errorf("lookup item: %w", err)
		}
		for _, item := range items {
			if item.ID == id {
				return item, nil
			}
		}
	}
	return backend.Item{}, fmt.Errorf("%w: %d", ErrItemNotFound, id)
}
