package payments

import (
	"context"
	"strings"
)

// FakeProvider is a development stand-in that builds widget configs
// without talking to a payment provider. Any completion carrying a
// payment id verifies successfully.
type FakeProvider struct {
	StoreName  string
	ThemeColor string
}

// BuildSession returns a widget config referencing a synthetic order.
func (p *FakeProvider) BuildSession(_ context.Context, req SessionRequest) (WidgetConfig, error) {
	config := WidgetConfig{
		Key:         "rzp_test_fake",
		OrderID:     "order_fake_" + req.SessionID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Name:        p.StoreName,
		Description: "Complete your payment",
		Prefill: Prefill{
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.TrimSpace(req.Email),
			Contact: strings.TrimSpace(req.Contact),
		},
		Theme: Theme{Color: p.ThemeColor},
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		config.Notes = map[string]string{"address": address}
	}
	return config, nil
}

// VerifyCompletion accepts any completion with a payment id.
func (p *FakeProvider) VerifyCompletion(completion Completion) error {
	if strings.TrimSpace(completion.PaymentID) == "" {
		return ErrSignatureMismatch
	}
	return nil
}
