// Package payments adapts the checkout flow to the hosted payment
// widget. The adapter never touches card data: it builds the opaque
// configuration the widget consumes and verifies the terminal callback
// the widget delivers.
package payments

import (
	"context"
	"errors"
)

var (
	// ErrSessionCreation indicates the provider could not prepare a widget session.
	ErrSessionCreation = errors.New("payments: failed to create session")
	// ErrSignatureMismatch indicates the completion callback failed signature verification.
	ErrSignatureMismatch = errors.New("payments: completion signature mismatch")
)

// SessionRequest carries everything the provider needs to prepare a
// widget session. Amount is already converted to minor units by the
// caller's payment session snapshot.
type SessionRequest struct {
	SessionID   string
	Amount      int64
	Currency    string
	Description string
	Receipt     string
	Name        string
	Email       string
	Contact     string
	Address     string
}

// Prefill holds contact fields the widget pre-populates for convenience.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Theme carries widget display styling.
type Theme struct {
	Color string `json:"color,omitempty"`
}

// WidgetConfig is the opaque configuration object the hosted payment
// widget consumes to render its own UI and perform the transfer out of
// process.
type WidgetConfig struct {
	Key         string            `json:"key"`
	OrderID     string            `json:"order_id,omitempty"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
	Theme       Theme             `json:"theme"`
}

// Completion is the payload of the widget's terminal success callback.
type Completion struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Provider defines the contract payment adapters implement. The widget
// emits exactly one terminal callback per session; verification of that
// callback lives here so the orchestrator stays provider-agnostic.
type Provider interface {
	BuildSession(ctx context.Context, req SessionRequest) (WidgetConfig, error)
	VerifyCompletion(completion Completion) error
}
