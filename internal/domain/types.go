package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors a catalog API record.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	MRP         decimal.Decimal `json:"mrp"`
	ImageURL    string          `json:"imageUrl"`
	Brand       string          `json:"brand"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Description string          `json:"description"`
}

// CartItem is a product selection held by the cart store.
type CartItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	MRP      decimal.Decimal `json:"mrp"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns quantity × price for the item.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Checkout form field keys shared by the form, the validator, and the
// HTTP surface.
const (
	FieldCountry     = "country"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldAddress     = "address"
	FieldTown        = "town"
	FieldState       = "state"
	FieldPostalCode  = "postalCode"
	FieldEmail       = "email"
	FieldPhoneNumber = "phoneNumber"
)

// CheckoutForm holds the billing details entered during checkout. All
// fields are plain strings; the zero value is the empty form.
type CheckoutForm struct {
	Country     string `json:"country"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address     string `json:"address"`
	Town        string `json:"town"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// SetField assigns a single form field by its canonical key. It reports
// whether the key names a known field.
func (f *CheckoutForm) SetField(name, value string) bool {
	switch name {
	case FieldCountry:
		f.Country = value
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldAddress:
		f.Address = value
	case FieldTown:
		f.Town = value
	case FieldState:
		f.State = value
	case FieldPostalCode:
		f.PostalCode = value
	case FieldEmail:
		f.Email = value
	case FieldPhoneNumber:
		f.PhoneNumber = value
	default:
		return false
	}
	return true
}

// Reset clears every field back to the empty form.
func (f *CheckoutForm) Reset() {
	*f = CheckoutForm{}
}

// IsEmpty reports whether no field has been filled in.
func (f CheckoutForm) IsEmpty() bool {
	return f == CheckoutForm{}
}

// PaymentSession captures a single payment attempt. It is created when
// checkout hands off to the payment widget and destroyed on the
// terminal callback; the amount is frozen at creation time and never
// recomputed while the widget is open.
type PaymentSession struct {
	ID        string
	Amount    decimal.Decimal
	Currency  string
	Billing   CheckoutForm
	CreatedAt time.Time
}

// AmountMinorUnits converts the frozen charge amount to the smallest
// currency denomination required by the payment provider (paise for
// INR).
func (s PaymentSession) AmountMinorUnits() int64 {
	return s.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
