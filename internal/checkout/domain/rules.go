package domain

import (
	"regexp"
	"strings"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardNumberPattern = regexp.MustCompile(`^\d{15,16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// Rule reports whether a single field value is acceptable.
type Rule func(value string) bool

// Required accepts values that are non-empty after trimming.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Matches returns a rule accepting values matching re.
func Matches(re *regexp.Regexp) Rule {
	return func(value string) bool {
		return re.MatchString(value)
	}
}

// fieldRules holds the rule for every validated field. Fields without an
// entry are optional.
var fieldRules = map[Field]Rule{
	FieldFirstName: Required,
	FieldLastName:  Required,
	FieldEmail:     Matches(emailPattern),
	FieldPhone:     Required,
	FieldAddress1:  Required,
	FieldCity:      Required,
	FieldProvince:  Required,
	FieldPostal:    Required,

	FieldShippingAddress:  Required,
	FieldShippingCity:     Required,
	FieldShippingProvince: Required,
	FieldShippingDistrict: Required,
	FieldShippingPostal:   Required,

	FieldCardName:   Required,
	FieldCardNumber: Matches(cardNumberPattern),
	FieldExpiry:     Matches(expiryPattern),
	FieldCVC:        Matches(cvcPattern),
}

var (
	billingValidated  = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldAddress1, FieldCity, FieldProvince, FieldPostal}
	deliveryValidated = []Field{FieldShippingAddress, FieldShippingCity, FieldShippingProvince, FieldShippingDistrict, FieldShippingPostal}
	paymentValidated  = []Field{FieldCardName, FieldCardNumber, FieldExpiry, FieldCVC}
)

// FieldValid reports whether value satisfies the field's own rule. Fields
// without a rule are always valid.
func FieldValid(f Field, value string) bool {
	rule, ok := fieldRules[f]
	if !ok {
		return true
	}
	return rule(value)
}

// ValidateBilling returns the invalid billing fields.
func ValidateBilling(b BillingInfo) []Field {
	return collect(billingValidated, b.Value)
}

// ValidateDelivery returns the invalid delivery fields. Nothing is checked
// unless the order ships to a different address.
func ValidateDelivery(d DeliveryInfo) []Field {
	if !d.ShipToDifferent {
		return nil
	}
	return collect(deliveryValidated, d.Value)
}

// ValidatePayment returns the invalid payment fields. Cash on delivery has
// nothing to check.
func ValidatePayment(p PaymentInfo) []Field {
	if p.Method != PaymentCard {
		return nil
	}
	return collect(paymentValidated, p.Value)
}

func collect(fields []Field, value func(Field) string) []Field {
	var invalid []Field
	for _, f := range fields {
		if !FieldValid(f, value(f)) {
			invalid = append(invalid, f)
		}
	}
	return invalid
}
