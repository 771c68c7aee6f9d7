package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderAPI struct {
	created  map[string]interface{}
	response map[string]interface{}
	err      error
}

func (s *stubOrderAPI) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.created = data
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func newTestProvider(t *testing.T, orders razorpayOrderAPI) *RazorpayProvider {
	t.Helper()
	provider, err := NewRazorpayProvider(RazorpayConfig{
		KeyID:      "rzp_test_4yosHYDduPYmKN",
		KeySecret:  "test-secret",
		StoreName:  "Trendy Footwear",
		ThemeColor: "#88C8BC",
		Orders:     orders,
	})
	require.NoError(t, err)
	return provider
}

func TestNewRazorpayProviderRequiresCredentials(t *testing.T) {
	_, err := NewRazorpayProvider(RazorpayConfig{KeyID: "key-only"})
	assert.Error(t, err)
}

func TestBuildSessionCreatesOrderAndConfig(t *testing.T) {
	orders := &stubOrderAPI{response: map[string]interface{}{"id": "order_abc123"}}
	provider := newTestProvider(t, orders)

	config, err := provider.BuildSession(context.Background(), SessionRequest{
		SessionID: "sess-1",
		Amount:    105000,
		Currency:  "INR",
		Receipt:   "rcpt-1",
		Name:      "Akash K",
		Email:     "akash@example.com",
		Contact:   "9876543210",
		Address:   "12 MG Road, Pune",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(105000), orders.created["amount"])
	assert.Equal(t, "INR", orders.created["currency"])
	assert.Equal(t, "rcpt-1", orders.created["receipt"])

	assert.Equal(t, "order_abc123", config.OrderID)
	assert.Equal(t, "rzp_test_4yosHYDduPYmKN", config.Key)
	assert.Equal(t, int64(105000), config.Amount)
	assert.Equal(t, "Trendy Footwear", config.Name)
	assert.Equal(t, "Akash K", config.Prefill.Name)
	assert.Equal(t, "akash@example.com", config.Prefill.Email)
	assert.Equal(t, "9876543210", config.Prefill.Contact)
	assert.Equal(t, "12 MG Road, Pune", config.Notes["address"])
	assert.Equal(t, "#88C8BC", config.Theme.Color)
}

func TestBuildSessionWrapsOrderFailure(t *testing.T) {
	provider := newTestProvider(t, &stubOrderAPI{err: errors.New("gateway down")})

	_, err := provider.BuildSession(context.Background(), SessionRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrSessionCreation)
}

func TestBuildSessionRejectsMissingOrderID(t *testing.T) {
	provider := newTestProvider(t, &stubOrderAPI{response: map[string]interface{}{}})

	_, err := provider.BuildSession(context.Background(), SessionRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrSessionCreation)
}

func TestBuildSessionRejectsNonPositiveAmount(t *testing.T) {
	provider := newTestProvider(t, &stubOrderAPI{})

	_, err := provider.BuildSession(context.Background(), SessionRequest{Amount: 0, Currency: "INR"})
	assert.ErrorIs(t, err, ErrSessionCreation)
}

func TestVerifyCompletion(t *testing.T) {
	provider := newTestProvider(t, &stubOrderAPI{})

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("order_abc|pay_def"))
	signature := hex.EncodeToString(mac.Sum(nil))

	err := provider.VerifyCompletion(Completion{
		OrderID:   "order_abc",
		PaymentID: "pay_def",
		Signature: signature,
	})
	assert.NoError(t, err)

	err = provider.VerifyCompletion(Completion{
		OrderID:   "order_abc",
		PaymentID: "pay_def",
		Signature: "tampered",
	})
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	err = provider.VerifyCompletion(Completion{OrderID: "order_abc", Signature: signature})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestFakeProviderRoundTrip(t *testing.T) {
	provider := &FakeProvider{StoreName: "Trendy Footwear", ThemeColor: "#88C8BC"}

	config, err := provider.BuildSession(context.Background(), SessionRequest{
		SessionID: "sess-9",
		Amount:    4200,
		Currency:  "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_fake_sess-9", config.OrderID)

	assert.NoError(t, provider.VerifyCompletion(Completion{PaymentID: "pay_1"}))
	assert.ErrorIs(t, provider.VerifyCompletion(Completion{}), ErrSignatureMismatch)
}
