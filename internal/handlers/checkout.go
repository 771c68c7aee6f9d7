package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Akashkilledar/trendy-footwear/internal/cart"
	"github.com/Akashkilledar/trendy-footwear/internal/checkout"
	"github.com/Akashkilledar/trendy-footwear/internal/payments"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/httpx"
)

const maxCheckoutBodySize = 16 * 1024

// CheckoutHandlers drives the checkout flow over the per-session
// orchestrator registry. The cart is consumed read-only for the entry
// subtotal.
type CheckoutHandlers struct {
	checkouts   *checkout.Registry
	carts       *cart.Registry
	exitPath    string
	confirmPath string
}

// NewCheckoutHandlers constructs checkout handlers. exitPath is the
// navigation target when checkout is entered without context;
// confirmPath is the confirmation view after a successful payment.
func NewCheckoutHandlers(checkouts *checkout.Registry, carts *cart.Registry, exitPath, confirmPath string) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkouts:   checkouts,
		carts:       carts,
		exitPath:    exitPath,
		confirmPath: confirmPath,
	}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.state)
	r.Post("/begin", h.begin)
	r.Patch("/form", h.updateForm)
	r.Post("/terms", h.setTerms)
	r.Post("/submit", h.submit)
	r.Post("/callback/success", h.paymentSucceeded)
	r.Post("/callback/failure", h.paymentFailed)
}

type totalsPayload struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Total          decimal.Decimal `json:"total"`
}

type checkoutStatePayload struct {
	State         string            `json:"state"`
	Form          map[string]string `json:"form"`
	FieldErrors   map[string]string `json:"fieldErrors"`
	TermsAccepted bool              `json:"termsAccepted"`
	Notice        string            `json:"notice,omitempty"`
	Totals        totalsPayload     `json:"totals"`
}

func buildStatePayload(snapshot checkout.Snapshot) checkoutStatePayload {
	form := map[string]string{
		"country":     snapshot.Form.Country,
		"firstName":   snapshot.Form.FirstName,
		"lastName":    snapshot.Form.LastName,
		"address":     snapshot.Form.Address,
		"town":        snapshot.Form.Town,
		"state":       snapshot.Form.State,
		"postalCode":  snapshot.Form.PostalCode,
		"email":       snapshot.Form.Email,
		"phoneNumber": snapshot.Form.PhoneNumber,
	}
	return checkoutStatePayload{
		State:         string(snapshot.State),
		Form:          form,
		FieldErrors:   snapshot.FieldErrors,
		TermsAccepted: snapshot.TermsAccepted,
		Notice:        snapshot.Notice,
		Totals: totalsPayload{
			Subtotal:       snapshot.Totals.Subtotal,
			DeliveryCharge: snapshot.Totals.DeliveryCharge,
			Total:          snapshot.Totals.Total,
		},
	}
}

func (h *CheckoutHandlers) state(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(h.checkouts.For(sessionID).Snapshot()))
}

type beginRequest struct {
	DeliveryCharge *decimal.Decimal `json:"deliveryCharge"`
}

func (h *CheckoutHandlers) begin(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req beginRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, r, err)
		return
	}

	subtotal := h.carts.For(sessionID).Subtotal()
	orchestrator := h.checkouts.For(sessionID)
	if err := orchestrator.Begin(checkout.Entry{Subtotal: &subtotal, DeliveryCharge: req.DeliveryCharge}); err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(orchestrator.Snapshot()))
}

func (h *CheckoutHandlers) updateForm(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var fields map[string]string
	if err := decodeJSONBody(r, maxCheckoutBodySize, &fields); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if len(fields) == 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "no form fields provided", http.StatusBadRequest))
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	orchestrator := h.checkouts.For(sessionID)
	for _, name := range names {
		if err := orchestrator.UpdateField(name, fields[name]); err != nil {
			h.writeCheckoutError(w, r, err)
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(orchestrator.Snapshot()))
}

type termsRequest struct {
	Accepted bool `json:"accepted"`
}

func (h *CheckoutHandlers) setTerms(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req termsRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	orchestrator := h.checkouts.For(sessionID)
	if err := orchestrator.SetTermsAccepted(req.Accepted); err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(orchestrator.Snapshot()))
}

type submitResponse struct {
	SessionID string                `json:"sessionId"`
	Widget    payments.WidgetConfig `json:"widget"`
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	result, err := h.checkouts.For(sessionID).Submit(r.Context())
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	if !result.FieldErrors.IsValid() {
		httpx.WriteError(r.Context(), w, httpx.
			NewError("validation_failed", "checkout form has invalid fields", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"fields": result.FieldErrors}))
		return
	}

	writeJSONResponse(w, http.StatusOK, submitResponse{SessionID: result.SessionID, Widget: result.Widget})
}

type successCallbackRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`

	// Razorpay's widget posts its own key names.
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (req successCallbackRequest) completion() payments.Completion {
	return payments.Completion{
		OrderID:   firstNonEmpty(req.OrderID, req.RazorpayOrderID),
		PaymentID: firstNonEmpty(req.PaymentID, req.RazorpayPaymentID),
		Signature: firstNonEmpty(req.Signature, req.RazorpaySignature),
	}
}

type callbackResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

// paymentSucceeded acknowledges the widget's success callback. A
// callback that fails verification is acknowledged as a failure; the
// HTTP error envelope is reserved for malformed requests.
func (h *CheckoutHandlers) paymentSucceeded(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req successCallbackRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, r, err)
		return
	}

	outcome, err := h.checkouts.For(sessionID).HandleSuccess(r.Context(), req.completion())
	if err != nil {
		message := "Payment failed. Please try again later."
		if errors.Is(err, checkout.ErrMissingPaymentID) {
			message = "Something went wrong with your payment. Please try again."
		}
		writeJSONResponse(w, http.StatusOK, callbackResponse{Status: "failed", Message: message})
		return
	}
	if outcome.Duplicate {
		writeJSONResponse(w, http.StatusOK, callbackResponse{Status: "duplicate"})
		return
	}

	writeJSONResponse(w, http.StatusOK, callbackResponse{
		Status:    "succeeded",
		PaymentID: outcome.PaymentID,
		Redirect:  h.confirmPath,
	})
}

type failureCallbackRequest struct {
	Reason string `json:"reason"`
}

func (h *CheckoutHandlers) paymentFailed(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req failureCallbackRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, r, err)
		return
	}

	outcome := h.checkouts.For(sessionID).HandleFailure(r.Context(), req.Reason)
	if outcome.Duplicate {
		writeJSONResponse(w, http.StatusOK, callbackResponse{Status: "duplicate"})
		return
	}
	writeJSONResponse(w, http.StatusOK, callbackResponse{Status: "failed", Message: outcome.Message})
}

func (h *CheckoutHandlers) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, checkout.ErrMissingContext):
		httpx.WriteError(ctx, w, httpx.
			NewError("missing_context", "checkout was entered without cart context", http.StatusConflict).
			WithDetails(map[string]any{"redirect": h.exitPath}))
	case errors.Is(err, checkout.ErrTermsNotAccepted):
		httpx.WriteError(ctx, w, httpx.NewError("terms_not_accepted", "please accept the terms and conditions to continue", http.StatusConflict))
	case errors.Is(err, checkout.ErrPaymentInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("payment_in_flight", "a payment attempt is already in progress", http.StatusConflict))
	case errors.Is(err, checkout.ErrUnknownField):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_field", err.Error(), http.StatusBadRequest))
	case errors.Is(err, payments.ErrSessionCreation):
		httpx.WriteError(ctx, w, httpx.NewError("payment_failed", "could not start the payment, please try again later", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", err.Error(), http.StatusInternalServerError))
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
