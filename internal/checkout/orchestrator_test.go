package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
	"github.com/Akashkilledar/trendy-footwear/internal/payments"
)

type stubProvider struct {
	buildFn  func(context.Context, payments.SessionRequest) (payments.WidgetConfig, error)
	verifyFn func(payments.Completion) error
	requests []payments.SessionRequest
}

func (s *stubProvider) BuildSession(ctx context.Context, req payments.SessionRequest) (payments.WidgetConfig, error) {
	s.requests = append(s.requests, req)
	if s.buildFn != nil {
		return s.buildFn(ctx, req)
	}
	return payments.WidgetConfig{Key: "rzp_test_stub", OrderID: "order_stub", Amount: req.Amount, Currency: req.Currency}, nil
}

func (s *stubProvider) VerifyCompletion(completion payments.Completion) error {
	if s.verifyFn != nil {
		return s.verifyFn(completion)
	}
	return nil
}

func newTestOrchestrator(t *testing.T, provider payments.Provider) *Orchestrator {
	t.Helper()
	orchestrator, err := New(Deps{
		Provider: provider,
		Currency: "INR",
		Clock:    func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return orchestrator
}

func beginWith(t *testing.T, o *Orchestrator, subtotal, delivery string) {
	t.Helper()
	sub := decimal.RequireFromString(subtotal)
	del := decimal.RequireFromString(delivery)
	require.NoError(t, o.Begin(Entry{Subtotal: &sub, DeliveryCharge: &del}))
}

func fillValidForm(t *testing.T, o *Orchestrator) {
	t.Helper()
	fields := map[string]string{
		domain.FieldCountry:     "India",
		domain.FieldFirstName:   "Akash",
		domain.FieldLastName:    "K",
		domain.FieldAddress:     "12 MG Road",
		domain.FieldTown:        "Pune",
		domain.FieldState:       "Maharashtra",
		domain.FieldPostalCode:  "411001",
		domain.FieldPhoneNumber: "9876543210",
		domain.FieldEmail:       "akash@example.com",
	}
	for name, value := range fields {
		require.NoError(t, o.UpdateField(name, value))
	}
}

func TestNewRequiresProviderAndCurrency(t *testing.T) {
	_, err := New(Deps{Currency: "INR"})
	assert.Error(t, err)

	_, err = New(Deps{Provider: &stubProvider{}})
	assert.Error(t, err)
}

func TestBeginRequiresEntryContext(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})

	subtotal := decimal.NewFromInt(1000)
	err := o.Begin(Entry{Subtotal: &subtotal})
	assert.ErrorIs(t, err, ErrMissingContext)

	err = o.Begin(Entry{})
	assert.ErrorIs(t, err, ErrMissingContext)

	_, err = o.Totals()
	assert.ErrorIs(t, err, ErrMissingContext)
}

func TestTotalsDerivedFromEntry(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")

	totals, err := o.Totals()
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.DeliveryCharge.Equal(decimal.NewFromInt(50)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1050)))
}

func TestSubmitCollectsAllFieldErrors(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")

	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.FieldErrors, 9)
	assert.Equal(t, StateEditing, o.Snapshot().State)
}

func TestUpdateFieldClearsOnlyThatError(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")

	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, result.FieldErrors, 9)

	require.NoError(t, o.UpdateField(domain.FieldFirstName, "Akash"))

	snapshot := o.Snapshot()
	assert.NotContains(t, snapshot.FieldErrors, domain.FieldFirstName)
	assert.Contains(t, snapshot.FieldErrors, domain.FieldLastName)
	assert.Len(t, snapshot.FieldErrors, 8)
}

func TestUpdateFieldRejectsUnknownField(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	err := o.UpdateField("cardNumber", "4242")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSubmitBlocksWithoutTermsAcceptance(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)

	result, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrTermsNotAccepted)
	assert.Empty(t, result.FieldErrors)
	assert.Equal(t, StateEditing, o.Snapshot().State)
}

func TestSubmitFreezesAmountInMinorUnits(t *testing.T) {
	provider := &stubProvider{}
	o := newTestOrchestrator(t, provider)
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, provider.requests, 1)

	request := provider.requests[0]
	assert.Equal(t, int64(105000), request.Amount)
	assert.Equal(t, "INR", request.Currency)
	assert.Equal(t, "Akash K", request.Name)
	assert.Equal(t, "akash@example.com", request.Email)
	assert.Equal(t, "9876543210", request.Contact)
	assert.Equal(t, "12 MG Road, Pune, Maharashtra, 411001, India", request.Address)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, int64(105000), result.Widget.Amount)
	assert.Equal(t, StateAwaitingPayment, o.Snapshot().State)
}

func TestSubmitRejectsWhilePaymentInFlight(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	_, err = o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	assert.ErrorIs(t, o.UpdateField(domain.FieldTown, "Mumbai"), ErrPaymentInFlight)
	assert.ErrorIs(t, o.SetTermsAccepted(false), ErrPaymentInFlight)
}

func TestSubmitRollsBackWhenProviderFails(t *testing.T) {
	provider := &stubProvider{
		buildFn: func(context.Context, payments.SessionRequest) (payments.WidgetConfig, error) {
			return payments.WidgetConfig{}, payments.ErrSessionCreation
		},
	}
	o := newTestOrchestrator(t, provider)
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, payments.ErrSessionCreation)

	snapshot := o.Snapshot()
	assert.Equal(t, StateEditing, snapshot.State)
	assert.Equal(t, "Akash", snapshot.Form.FirstName)
	assert.NotEmpty(t, snapshot.Notice)
}

func TestHandleSuccessResetsFormAndIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	completion := payments.Completion{OrderID: "order_stub", PaymentID: "pay_123", Signature: "sig"}
	outcome, err := o.HandleSuccess(context.Background(), completion)
	require.NoError(t, err)
	assert.False(t, outcome.Duplicate)
	assert.Equal(t, "pay_123", outcome.PaymentID)

	snapshot := o.Snapshot()
	assert.Equal(t, StateEditing, snapshot.State)
	assert.True(t, snapshot.Form.IsEmpty())
	assert.False(t, snapshot.TermsAccepted)

	// The widget fired the callback twice; the second is a no-op.
	duplicate, err := o.HandleSuccess(context.Background(), completion)
	require.NoError(t, err)
	assert.True(t, duplicate.Duplicate)
	assert.True(t, o.Snapshot().Form.IsEmpty())
}

func TestHandleSuccessWithoutPaymentIDIsFailure(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	_, err = o.HandleSuccess(context.Background(), payments.Completion{OrderID: "order_stub"})
	assert.ErrorIs(t, err, ErrMissingPaymentID)

	snapshot := o.Snapshot()
	assert.Equal(t, StateEditing, snapshot.State)
	assert.Equal(t, "Akash", snapshot.Form.FirstName)
	assert.NotEmpty(t, snapshot.Notice)
}

func TestHandleSuccessRejectsBadSignature(t *testing.T) {
	provider := &stubProvider{
		verifyFn: func(payments.Completion) error { return payments.ErrSignatureMismatch },
	}
	o := newTestOrchestrator(t, provider)
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	_, err = o.HandleSuccess(context.Background(), payments.Completion{PaymentID: "pay_1", Signature: "bad"})
	assert.ErrorIs(t, err, payments.ErrSignatureMismatch)
	assert.Equal(t, StateEditing, o.Snapshot().State)
}

func TestHandleFailureKeepsEnteredFields(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	outcome := o.HandleFailure(context.Background(), "card declined")
	assert.False(t, outcome.Duplicate)
	assert.Equal(t, "card declined", outcome.Message)

	snapshot := o.Snapshot()
	assert.Equal(t, StateEditing, snapshot.State)
	assert.Equal(t, "Akash", snapshot.Form.FirstName)
	assert.Equal(t, "card declined", snapshot.Notice)

	// A retry is allowed immediately.
	_, err = o.Submit(context.Background())
	assert.NoError(t, err)
}

func TestHandleFailureWithoutPendingPaymentIsNoOp(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	outcome := o.HandleFailure(context.Background(), "closed")
	assert.True(t, outcome.Duplicate)
}

func TestHandleFailureDefaultsMessage(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	beginWith(t, o, "1000", "50")
	fillValidForm(t, o)
	require.NoError(t, o.SetTermsAccepted(true))

	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	outcome := o.HandleFailure(context.Background(), "  ")
	assert.NotEmpty(t, outcome.Message)
}

func TestRegistryReturnsSameOrchestratorPerSession(t *testing.T) {
	registry, err := NewRegistry(Deps{Provider: &stubProvider{}, Currency: "INR"})
	require.NoError(t, err)

	first := registry.For("visitor-1")
	assert.Same(t, first, registry.For("visitor-1"))
	assert.NotSame(t, first, registry.For("visitor-2"))
}

func TestSubmitWithoutBeginFails(t *testing.T) {
	o := newTestOrchestrator(t, &stubProvider{})
	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingContext)
	assert.False(t, errors.Is(err, ErrTermsNotAccepted))
}
