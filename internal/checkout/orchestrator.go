// Package checkout drives the multi-step checkout flow: form editing,
// collect-all validation, the terms-acceptance gate, and the hand-off
// to the payment widget. One orchestrator exists per visitor session
// and allows a single outstanding payment attempt at a time.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
	"github.com/Akashkilledar/trendy-footwear/internal/payments"
	"github.com/Akashkilledar/trendy-footwear/internal/validation"
)

// State enumerates the orchestrator's observable states.
type State string

const (
	// StateEditing means the form is editable and no payment is in flight.
	StateEditing State = "editing"
	// StateAwaitingPayment means the widget holds the flow until its terminal callback.
	StateAwaitingPayment State = "awaiting_payment"
)

var (
	// ErrMissingContext indicates checkout was entered without the
	// upstream subtotal/delivery-charge context. The caller must
	// redirect out of the flow rather than render the form.
	ErrMissingContext = errors.New("checkout: missing entry context")
	// ErrTermsNotAccepted blocks payment until the user consents to the terms.
	ErrTermsNotAccepted = errors.New("checkout: terms and conditions not accepted")
	// ErrPaymentInFlight rejects mutations while a payment attempt is outstanding.
	ErrPaymentInFlight = errors.New("checkout: a payment attempt is already in flight")
	// ErrMissingPaymentID marks a success callback that arrived without a
	// provider transaction identifier; it is surfaced as a failure.
	ErrMissingPaymentID = errors.New("checkout: payment id missing from success callback")
	// ErrUnknownField indicates an edit to a field the form does not have.
	ErrUnknownField = errors.New("checkout: unknown form field")
)

const genericFailureMessage = "Payment failed. Please try again later."

// Entry is the navigation context an upstream view supplies when the
// visitor enters checkout. Nil values mean the visitor bypassed cart
// review.
type Entry struct {
	Subtotal       *decimal.Decimal
	DeliveryCharge *decimal.Decimal
}

// Totals is the derived amount breakdown, recomputed on every call.
type Totals struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
}

// SubmitResult reports the outcome of a submit: either the full field
// error set, or the widget configuration for the initiated payment.
type SubmitResult struct {
	FieldErrors validation.Errors
	SessionID   string
	Widget      payments.WidgetConfig
}

// SuccessOutcome reports the effect of a success callback.
type SuccessOutcome struct {
	// Duplicate is set when the callback arrived after the session was
	// already reset; the call had no observable effect.
	Duplicate bool
	PaymentID string
}

// FailureOutcome carries the user-visible failure message.
type FailureOutcome struct {
	Duplicate bool
	Message   string
}

// Snapshot is a read-only view of orchestrator state for rendering.
type Snapshot struct {
	State         State
	Form          domain.CheckoutForm
	FieldErrors   validation.Errors
	TermsAccepted bool
	Notice        string
	Totals        Totals
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Provider payments.Provider
	Currency string
	Validate func(domain.CheckoutForm) validation.Errors
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// Orchestrator owns the checkout form state for one visitor session.
type Orchestrator struct {
	mu sync.Mutex

	state          State
	begun          bool
	subtotal       decimal.Decimal
	deliveryCharge decimal.Decimal
	form           domain.CheckoutForm
	fieldErrors    validation.Errors
	termsAccepted  bool
	notice         string
	session        *domain.PaymentSession

	provider payments.Provider
	currency string
	validate func(domain.CheckoutForm) validation.Errors
	now      func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// New constructs an Orchestrator validating required dependencies.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Provider == nil {
		return nil, errors.New("checkout: payment provider is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		return nil, errors.New("checkout: currency is required")
	}
	validate := deps.Validate
	if validate == nil {
		validate = validation.Validate
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &Orchestrator{
		state:       StateEditing,
		fieldErrors: make(validation.Errors),
		provider:    deps.Provider,
		currency:    currency,
		validate:    validate,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Begin records the entry context supplied by the upstream cart-review
// view. Entering without a subtotal or delivery charge fails with
// ErrMissingContext before any form state exists.
func (o *Orchestrator) Begin(entry Entry) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateAwaitingPayment {
		return ErrPaymentInFlight
	}
	if entry.Subtotal == nil || entry.DeliveryCharge == nil {
		return ErrMissingContext
	}

	o.begun = true
	o.subtotal = *entry.Subtotal
	o.deliveryCharge = *entry.DeliveryCharge
	o.notice = ""
	return nil
}

// UpdateField assigns one form field and clears that field's error.
func (o *Orchestrator) UpdateField(name, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateAwaitingPayment {
		return ErrPaymentInFlight
	}
	if !o.form.SetField(name, value) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	delete(o.fieldErrors, name)
	return nil
}

// SetTermsAccepted records the terms-acceptance gate.
func (o *Orchestrator) SetTermsAccepted(accepted bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateAwaitingPayment {
		return ErrPaymentInFlight
	}
	o.termsAccepted = accepted
	return nil
}

// Totals derives subtotal + delivery charge. It is recomputed on every
// call and never cached outside the payment session snapshot.
func (o *Orchestrator) Totals() (Totals, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.begun {
		return Totals{}, ErrMissingContext
	}
	return o.totalsLocked(), nil
}

func (o *Orchestrator) totalsLocked() Totals {
	return Totals{
		Subtotal:       o.subtotal,
		DeliveryCharge: o.deliveryCharge,
		Total:          o.subtotal.Add(o.deliveryCharge),
	}
}

// Snapshot returns the current state for rendering.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	errsCopy := make(validation.Errors, len(o.fieldErrors))
	for k, v := range o.fieldErrors {
		errsCopy[k] = v
	}
	snapshot := Snapshot{
		State:         o.state,
		Form:          o.form,
		FieldErrors:   errsCopy,
		TermsAccepted: o.termsAccepted,
		Notice:        o.notice,
	}
	if o.begun {
		snapshot.Totals = o.totalsLocked()
	}
	return snapshot
}

// Submit validates the form and, when valid and the terms are accepted,
// freezes the payment session and hands off to the payment widget. The
// error set always reflects every invalid field in a single pass.
func (o *Orchestrator) Submit(ctx context.Context) (SubmitResult, error) {
	o.mu.Lock()

	if o.state == StateAwaitingPayment {
		o.mu.Unlock()
		return SubmitResult{}, ErrPaymentInFlight
	}
	if !o.begun {
		o.mu.Unlock()
		return SubmitResult{}, ErrMissingContext
	}

	o.notice = ""
	errs := o.validate(o.form)
	o.fieldErrors = errs
	if !errs.IsValid() {
		errsCopy := make(validation.Errors, len(errs))
		for k, v := range errs {
			errsCopy[k] = v
		}
		o.mu.Unlock()
		return SubmitResult{FieldErrors: errsCopy}, nil
	}

	if !o.termsAccepted {
		o.mu.Unlock()
		return SubmitResult{}, ErrTermsNotAccepted
	}

	totals := o.totalsLocked()
	session := domain.PaymentSession{
		ID:        ulid.Make().String(),
		Amount:    totals.Total,
		Currency:  o.currency,
		Billing:   o.form,
		CreatedAt: o.now(),
	}
	request := payments.SessionRequest{
		SessionID: session.ID,
		Amount:    session.AmountMinorUnits(),
		Currency:  session.Currency,
		Receipt:   session.ID,
		Name:      strings.TrimSpace(session.Billing.FirstName + " " + session.Billing.LastName),
		Email:     session.Billing.Email,
		Contact:   session.Billing.PhoneNumber,
		Address:   billingAddress(session.Billing),
	}

	// Block re-submission while the provider call is in progress.
	o.state = StateAwaitingPayment
	o.session = &session
	o.mu.Unlock()

	widget, err := o.provider.BuildSession(ctx, request)
	if err != nil {
		o.mu.Lock()
		o.state = StateEditing
		o.session = nil
		o.notice = genericFailureMessage
		o.mu.Unlock()
		o.logger(ctx, "checkout.payment_session_failed", map[string]any{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return SubmitResult{}, err
	}

	o.logger(ctx, "checkout.payment_initiated", map[string]any{
		"session_id":   session.ID,
		"amount_minor": request.Amount,
		"currency":     request.Currency,
	})
	return SubmitResult{SessionID: session.ID, Widget: widget}, nil
}

// HandleSuccess processes the widget's success callback. A callback
// without a payment id, or with a signature that fails verification, is
// treated as a failure and leaves the form intact. The reset is
// idempotent: a duplicate callback after reset is a no-op.
func (o *Orchestrator) HandleSuccess(ctx context.Context, completion payments.Completion) (SuccessOutcome, error) {
	o.mu.Lock()

	if o.state != StateAwaitingPayment || o.session == nil {
		o.mu.Unlock()
		return SuccessOutcome{Duplicate: true}, nil
	}

	sessionID := o.session.ID

	if strings.TrimSpace(completion.PaymentID) == "" {
		o.failLocked("Something went wrong with your payment. Please try again.")
		o.mu.Unlock()
		o.logger(ctx, "checkout.payment_id_missing", map[string]any{"session_id": sessionID})
		return SuccessOutcome{}, ErrMissingPaymentID
	}

	if err := o.provider.VerifyCompletion(completion); err != nil {
		o.failLocked(genericFailureMessage)
		o.mu.Unlock()
		o.logger(ctx, "checkout.payment_verification_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return SuccessOutcome{}, err
	}

	// Reset: clear the form and terms flag, destroy the session.
	o.form.Reset()
	o.termsAccepted = false
	o.fieldErrors = make(validation.Errors)
	o.session = nil
	o.begun = false
	o.state = StateEditing
	o.notice = ""
	o.mu.Unlock()

	o.logger(ctx, "checkout.payment_succeeded", map[string]any{
		"session_id": sessionID,
		"payment_id": completion.PaymentID,
	})
	return SuccessOutcome{PaymentID: completion.PaymentID}, nil
}

// HandleFailure processes the widget's failure callback (a closed
// widget is reported the same way with an empty reason). Entered fields
// survive so the user can retry without re-typing.
func (o *Orchestrator) HandleFailure(ctx context.Context, reason string) FailureOutcome {
	o.mu.Lock()

	if o.state != StateAwaitingPayment {
		o.mu.Unlock()
		return FailureOutcome{Duplicate: true}
	}

	sessionID := ""
	if o.session != nil {
		sessionID = o.session.ID
	}

	message := strings.TrimSpace(reason)
	if message == "" {
		message = genericFailureMessage
	}
	o.failLocked(message)
	o.mu.Unlock()

	o.logger(ctx, "checkout.payment_failed", map[string]any{
		"session_id": sessionID,
		"reason":     message,
	})
	return FailureOutcome{Message: message}
}

// failLocked returns to Editing keeping the entered form intact.
func (o *Orchestrator) failLocked(message string) {
	o.session = nil
	o.state = StateEditing
	o.notice = message
}

func billingAddress(form domain.CheckoutForm) string {
	parts := make([]string, 0, 5)
	for _, part := range []string{form.Address, form.Town, form.State, form.PostalCode, form.Country} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

// Registry hands out one orchestrator per visitor session.
type Registry struct {
	mu            sync.Mutex
	orchestrators map[string]*Orchestrator
	deps          Deps
}

// NewRegistry constructs a Registry with shared dependencies.
func NewRegistry(deps Deps) (*Registry, error) {
	// Fail fast on bad dependencies instead of at first use.
	if _, err := New(deps); err != nil {
		return nil, err
	}
	return &Registry{
		orchestrators: make(map[string]*Orchestrator),
		deps:          deps,
	}, nil
}

// For returns the orchestrator for the given session id, creating it on
// first use.
func (r *Registry) For(sessionID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	orchestrator, ok := r.orchestrators[sessionID]
	if !ok {
		orchestrator, _ = New(r.deps)
		r.orchestrators[sessionID] = orchestrator
	}
	return orchestrator
}
