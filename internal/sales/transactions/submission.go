package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

const (
	msgFallback = "Terjadi kesalahan"
	msgTimeout  = "Server tidak merespons, silakan coba lagi"

	defaultSubmitTimeout = 15 * time.Second
)

var (
	// ErrInvalidDraft is wrapped by *FormError.
	ErrInvalidDraft = errors.New("transactions: draft has validation errors")
	// ErrSubmissionInProgress refuses a second submit of a draft still in flight.
	ErrSubmissionInProgress = errors.New("transactions: submission already in progress")
	// ErrAlreadySubmitted refuses a draft that was already accepted.
	ErrAlreadySubmitted = errors.New("transactions: draft already submitted")
	// ErrInvalidTransition guards the submission state machine.
	ErrInvalidTransition = errors.New("transactions: invalid state transition")
)

// FormError is returned when validation blocks a submit.
type FormError struct {
	Validation ValidationState
}

func (e *FormError) Error() string {
	return MsgFormHasErrors
}

func (e *FormError) Unwrap() error {
	return ErrInvalidDraft
}

// SubmitError is returned when the backend refused or never acknowledged
// the transaction. Message is safe to show to the operator.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return "Gagal menyimpan data: " + e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Poster sends an assembled transaction to the backend.
type Poster interface {
	CreateSale(ctx context.Context, idempotencyKey string, req backend.CreateSaleRequest) (*backend.Sale, error)
}

// Guard prevents concurrent submits of the same draft.
type Guard interface {
	Acquire(ctx context.Context, draftID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, draftID string) error
}

// SubmissionObserver records submit outcomes.
type SubmissionObserver interface {
	ObserveSubmission(outcome string)
}

var transitions = map[State][]State{
	StateEditing:    {StateValidating},
	StateValidating: {StateEditing, StateSubmitting},
	StateSubmitting: {StateSubmitted, StateFailed},
	StateFailed:     {StateEditing},
}

func transition(d OrderDraft, to State) (OrderDraft, error) {
	from := d.State
	if from == "" {
		from = StateEditing
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			d.State = to
			return d, nil
		}
	}
	return d, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Submitter drives a draft through validation and submission.
type Submitter struct {
	poster   Poster
	guard    Guard
	timeout  time.Duration
	logger   *slog.Logger
	observer SubmissionObserver
}

// SubmitterOption customises a Submitter.
type SubmitterOption func(*Submitter)

// WithGuard installs a concurrency guard.
func WithGuard(g Guard) SubmitterOption {
	return func(s *Submitter) { s.guard = g }
}

// WithTimeout bounds how long a submit may wait for the backend.
func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver records outcomes, e.g. for metrics.
func WithObserver(o SubmissionObserver) SubmitterOption {
	return func(s *Submitter) { s.observer = o }
}

// NewSubmitter constructs a Submitter posting through poster.
func NewSubmitter(poster Poster, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		poster:  poster,
		guard:   NewLocalGuard(),
		timeout: defaultSubmitTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout is the upper bound of one submit.
func (s *Submitter) Timeout() time.Duration {
	return s.timeout
}

// BuildRequest serialises a draft into the backend payload.
func BuildRequest(d OrderDraft) backend.CreateSaleRequest {
	totals := d.Totals()
	var customerID int64
	if d.Customer != nil {
		customerID = d.Customer.ID
	}
	return backend.CreateSaleRequest{
		Date:         d.Date,
		CustomerID:   customerID,
		Subtotal:     totals.Subtotal,
		Discount:     d.Discount,
		ShippingCost: d.ShippingCost,
		TotalPayment: totals.GrandTotal,
		Details:      d.Lines,
	}
}

// Submit validates the draft and, when valid, posts it. The returned draft
// is always the one the caller should keep: on *FormError it carries the
// fresh validation errors, on *SubmitError it is unchanged apart from state,
// and on success it is in StateSubmitted and may be discarded.
func (s *Submitter) Submit(ctx context.Context, d OrderDraft) (OrderDraft, *backend.Sale, error) {
	if d.State == StateSubmitted {
		return d, nil, ErrAlreadySubmitted
	}
	d.State = StateEditing
	d.SubmitStartedAt = nil
	d = d.Normalize()

	d, err := transition(d, StateValidating)
	if err != nil {
		return d, nil, err
	}
	validation := ValidateOrder(d)
	if !validation.Valid() {
		d.Errors = validation.Errors
		d, _ = transition(d, StateEditing)
		s.record("invalid")
		return d, nil, &FormError{Validation: validation}
	}

	acquired, err := s.guard.Acquire(ctx, d.ID, s.timeout)
	if err != nil {
		d, _ = transition(d, StateEditing)
		return d, nil, fmt.Errorf("acquire submit guard: %w", err)
	}
	if !acquired {
		d, _ = transition(d, StateEditing)
		s.record("duplicate")
		return d, nil, ErrSubmissionInProgress
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), d.ID); err != nil {
			s.logger.Warn("release submit guard", slog.String("draft", d.ID), slog.Any("error", err))
		}
	}()

	d, _ = transition(d, StateSubmitting)
	postCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sale, err := s.poster.CreateSale(postCtx, d.ID, BuildRequest(d))
	if err != nil {
		d, _ = transition(d, StateFailed)
		message := backend.MessageOr(err, msgFallback)
		if errors.Is(err, context.DeadlineExceeded) {
			message = msgTimeout
		}
		s.logger.Error("submit transaction",
			slog.String("draft", d.ID),
			slog.String("code", d.Code),
			slog.Any("error", err),
		)
		d, _ = transition(d, StateEditing)
		s.record("failed")
		return d, nil, &SubmitError{Message: message, Err: err}
	}

	d, _ = transition(d, StateSubmitted)
	s.logger.Info("transaction submitted", slog.String("draft", d.ID), slog.String("code", d.Code))
	s.record("submitted")
	return d, sale, nil
}

func (s *Submitter) record(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSubmission(outcome)
	}
}
