// Package validation checks the checkout billing form. Validation is
// collect-all: every rule runs on every pass and the returned error set
// names every invalid field at once.
package validation

import (
	"regexp"
	"strings"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
)

// Errors maps a form field key to a human-readable message. An empty
// map means the form passed validation.
type Errors map[string]string

// IsValid reports whether no field failed.
func (e Errors) IsValid() bool { return len(e) == 0 }

// AllowedCountries enumerates the countries the store ships to.
var AllowedCountries = []string{"India", "Japan", "China"}

var (
	postalCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	phonePattern      = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Validate checks every field of the form snapshot and returns the full
// error set. It never stops at the first violation.
func Validate(form domain.CheckoutForm) Errors {
	errs := make(Errors)

	if !isAllowedCountry(form.Country) {
		errs[domain.FieldCountry] = "Please select your country"
	}
	if strings.TrimSpace(form.FirstName) == "" {
		errs[domain.FieldFirstName] = "First name is required"
	}
	if strings.TrimSpace(form.LastName) == "" {
		errs[domain.FieldLastName] = "Last name is required"
	}
	if strings.TrimSpace(form.Address) == "" {
		errs[domain.FieldAddress] = "Address is required"
	}
	if strings.TrimSpace(form.Town) == "" {
		errs[domain.FieldTown] = "Town or city is required"
	}
	if strings.TrimSpace(form.State) == "" {
		errs[domain.FieldState] = "State is required"
	}

	switch postalCode := strings.TrimSpace(form.PostalCode); {
	case postalCode == "":
		errs[domain.FieldPostalCode] = "Postal code is required"
	case !postalCodePattern.MatchString(postalCode):
		errs[domain.FieldPostalCode] = "Postal code must be 6 digits"
	}

	switch email := strings.TrimSpace(form.Email); {
	case email == "":
		errs[domain.FieldEmail] = "Email is required"
	case !emailPattern.MatchString(email):
		errs[domain.FieldEmail] = "Enter a valid email address"
	}

	switch phone := strings.TrimSpace(form.PhoneNumber); {
	case phone == "":
		errs[domain.FieldPhoneNumber] = "Phone number is required"
	case !phonePattern.MatchString(phone):
		errs[domain.FieldPhoneNumber] = "Phone number must be 10 digits"
	}

	return errs
}

func isAllowedCountry(country string) bool {
	for _, allowed := range AllowedCountries {
		if country == allowed {
			return true
		}
	}
	return false
}
