package checkout

import (
	"strings"

	"storefront/internal/checkout/domain"
)

// Profile is the signed-in customer's contact details.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// SavedAddress is an entry from the customer's address book.
type SavedAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
	Company    string `json:"company,omitempty"`
}

// Prefill is what autofill found for a user. Nil parts were unavailable.
type Prefill struct {
	Profile  *Profile
	Billing  *SavedAddress
	Shipping *SavedAddress
}

// form is the pair of accessors autofill needs from a sub-form.
type form interface {
	Value(f domain.Field) string
	Set(f domain.Field, value string) error
}

// applyPrefill merges p into empty fields only. Values the customer already
// typed always win, and values the setters would reject are skipped.
func (s *Session) applyPrefill(p Prefill) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fill := func(sub form, f domain.Field, value string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.TrimSpace(sub.Value(f)) != "" {
			return
		}
		if err := sub.Set(f, value); err != nil {
			return
		}
		s.clearIfValid(f, sub.Value(f))
	}

	b := &s.billing
	if p.Profile != nil {
		fill(b, domain.FieldFirstName, p.Profile.FirstName)
		fill(b, domain.FieldLastName, p.Profile.LastName)
		fill(b, domain.FieldEmail, p.Profile.Email)
		fill(b, domain.FieldPhone, p.Profile.Phone)
	}
	if a := p.Billing; a != nil {
		fill(b, domain.FieldAddress1, a.Line1)
		fill(b, domain.FieldAddress2, a.Line2)
		fill(b, domain.FieldCity, a.City)
		fill(b, domain.FieldProvince, a.Province)
		fill(b, domain.FieldDistrict, a.District)
		fill(b, domain.FieldPostal, a.PostalCode)
		fill(b, domain.FieldCompany, a.Company)
	}

	d := &s.delivery
	if a := p.Shipping; a != nil {
		fill(d, domain.FieldShippingAddress, a.Line1)
		fill(d, domain.FieldShippingAddress2, a.Line2)
		fill(d, domain.FieldShippingCity, a.City)
		fill(d, domain.FieldShippingProvince, a.Province)
		fill(d, domain.FieldShippingDistrict, a.District)
		fill(d, domain.FieldShippingPostal, a.PostalCode)
	}
}
