package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// razorpayOrderAPI abstracts the SDK's order resource for testing.
type razorpayOrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayConfig configures the RazorpayProvider.
type RazorpayConfig struct {
	KeyID       string
	KeySecret   string
	StoreName   string
	StoreLogo   string
	ThemeColor  string
	Description string
	Orders      razorpayOrderAPI
}

// RazorpayProvider implements Provider against the Razorpay checkout
// widget. A server-side order is created per session so the widget can
// reference it; the success callback signature is verified with the key
// secret.
type RazorpayProvider struct {
	keyID       string
	keySecret   string
	storeName   string
	storeLogo   string
	themeColor  string
	description string
	orders      razorpayOrderAPI
}

// NewRazorpayProvider constructs a RazorpayProvider using the given configuration.
func NewRazorpayProvider(cfg RazorpayConfig) (*RazorpayProvider, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay: key id and secret are required")
	}

	orders := cfg.Orders
	if orders == nil {
		client := razorpay.NewClient(keyID, keySecret)
		orders = client.Order
	}

	description := strings.TrimSpace(cfg.Description)
	if description == "" {
		description = "Complete your payment"
	}

	return &RazorpayProvider{
		keyID:       keyID,
		keySecret:   keySecret,
		storeName:   strings.TrimSpace(cfg.StoreName),
		storeLogo:   strings.TrimSpace(cfg.StoreLogo),
		themeColor:  strings.TrimSpace(cfg.ThemeColor),
		description: description,
		orders:      orders,
	}, nil
}

// BuildSession creates a Razorpay order for the frozen charge amount
// and returns the widget configuration referencing it.
func (p *RazorpayProvider) BuildSession(ctx context.Context, req SessionRequest) (WidgetConfig, error) {
	if p == nil || p.orders == nil {
		return WidgetConfig{}, errors.New("razorpay: provider is not initialised")
	}
	if req.Amount <= 0 {
		return WidgetConfig{}, fmt.Errorf("%w: amount must be positive", ErrSessionCreation)
	}
	if err := ctx.Err(); err != nil {
		return WidgetConfig{}, err
	}

	notes := map[string]interface{}{
		"checkout_session": req.SessionID,
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		notes["address"] = address
	}

	order, err := p.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return WidgetConfig{}, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	orderID, _ := order["id"].(string)
	if orderID == "" {
		return WidgetConfig{}, fmt.Errorf("%w: order response missing id", ErrSessionCreation)
	}

	config := WidgetConfig{
		Key:         p.keyID,
		OrderID:     orderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Name:        p.storeName,
		Description: p.description,
		Image:       p.storeLogo,
		Prefill: Prefill{
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.TrimSpace(req.Email),
			Contact: strings.TrimSpace(req.Contact),
		},
		Theme: Theme{Color: p.themeColor},
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		config.Notes = map[string]string{"address": address}
	}

	return config, nil
}

// VerifyCompletion checks the HMAC-SHA256 signature Razorpay computes
// over "order_id|payment_id" with the key secret.
func (p *RazorpayProvider) VerifyCompletion(completion Completion) error {
	if p == nil {
		return ErrSignatureMismatch
	}
	orderID := strings.TrimSpace(completion.OrderID)
	paymentID := strings.TrimSpace(completion.PaymentID)
	signature := strings.TrimSpace(completion.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, []byte(p.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
