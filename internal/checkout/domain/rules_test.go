package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBilling() BillingInfo {
	b := NewBillingInfo("")
	b.FirstName = "Nimal"
	b.LastName = "Perera"
	b.Email = "nimal@example.lk"
	b.Phone = "0771234567"
	b.Address1 = "12 Galle Road"
	b.City = "Colombo"
	b.Province = "Western"
	b.District = "Colombo"
	b.Postal = "00300"
	return b
}

func TestValidateBilling_Valid(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ValidateBilling(validBilling()))
}

func TestValidateBilling_Empty(t *testing.T) {
	t.Parallel()

	got := ValidateBilling(NewBillingInfo(""))
	assert.ElementsMatch(t, []Field{
		FieldFirstName, FieldLastName, FieldEmail, FieldPhone,
		FieldAddress1, FieldCity, FieldProvince, FieldPostal,
	}, got)
}

func TestValidateBilling_WhitespaceIsEmpty(t *testing.T) {
	t.Parallel()

	b := validBilling()
	b.FirstName = "   "
	assert.Equal(t, []Field{FieldFirstName}, ValidateBilling(b))
}

func TestValidateBilling_OptionalFieldsIgnored(t *testing.T) {
	t.Parallel()

	b := validBilling()
	b.Company = ""
	b.Address2 = ""
	b.District = ""
	b.OrderNotes = ""
	assert.Empty(t, ValidateBilling(b))
}

func TestEmailRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		ok    bool
	}{
		{"a@b.co", true},
		{"first.last+tag@shop.example.lk", true},
		{"bad", false},
		{"no-domain@", false},
		{"@example.com", false},
		{"nodot@example", false},
		{"has space@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, FieldValid(FieldEmail, tt.email), tt.email)
	}
}

func TestValidateDelivery_SameAddressSkipsChecks(t *testing.T) {
	t.Parallel()

	d := NewDeliveryInfo()
	assert.Empty(t, ValidateDelivery(d))
}

func TestValidateDelivery_ShipToDifferent(t *testing.T) {
	t.Parallel()

	d := NewDeliveryInfo()
	d.ShipToDifferent = true
	assert.ElementsMatch(t, []Field{
		FieldShippingAddress, FieldShippingCity, FieldShippingProvince,
		FieldShippingDistrict, FieldShippingPostal,
	}, ValidateDelivery(d))

	d.ShippingAddress = "1 Temple Road"
	d.ShippingCity = "Kandy"
	d.ShippingProvince = "Central"
	d.ShippingDistrict = "Kandy"
	d.ShippingPostal = " "
	assert.Equal(t, []Field{FieldShippingPostal}, ValidateDelivery(d))
}

func TestValidatePayment_COD(t *testing.T) {
	t.Parallel()

	p := NewPaymentInfo()
	p.Method = PaymentCOD
	assert.Empty(t, ValidatePayment(p))
}

func TestValidatePayment_Card(t *testing.T) {
	t.Parallel()

	p := NewPaymentInfo()
	assert.ElementsMatch(t, paymentValidated, ValidatePayment(p))

	p.CardName = "N Perera"
	p.CardNumber = "4111111111111111"
	p.Expiry = "12/29"
	p.CVC = "123"
	assert.Empty(t, ValidatePayment(p))

	p.Expiry = "13/29"
	p.CVC = "12"
	assert.ElementsMatch(t, []Field{FieldExpiry, FieldCVC}, ValidatePayment(p))
}

func TestCardFieldRules(t *testing.T) {
	t.Parallel()

	assert.True(t, FieldValid(FieldCardNumber, "378282246310005"))
	assert.False(t, FieldValid(FieldCardNumber, "41111111111111"))
	assert.False(t, FieldValid(FieldCardNumber, "4111 1111 1111 1111"))
	assert.True(t, FieldValid(FieldExpiry, "01/30"))
	assert.False(t, FieldValid(FieldExpiry, "00/30"))
	assert.False(t, FieldValid(FieldExpiry, "1/30"))
	assert.True(t, FieldValid(FieldCVC, "1234"))
	assert.False(t, FieldValid(FieldCVC, "12345"))
	assert.True(t, FieldValid(FieldCompany, ""))
}

func TestBillingSet_ProvinceClearsDistrict(t *testing.T) {
	t.Parallel()

	b := validBilling()
	require.NoError(t, b.Set(FieldProvince, "Central"))
	assert.Equal(t, "Central", b.Province)
	assert.Empty(t, b.District)
}

func TestBillingSet_SameProvinceKeepsDistrict(t *testing.T) {
	t.Parallel()

	b := validBilling()
	require.NoError(t, b.Set(FieldProvince, "western"))
	assert.Equal(t, "Western", b.Province)
	assert.Equal(t, "Colombo", b.District)
}

func TestBillingSet_DistrictMustBelongToProvince(t *testing.T) {
	t.Parallel()

	b := validBilling()
	err := b.Set(FieldDistrict, "Kandy")
	assert.ErrorIs(t, err, ErrDistrictMismatch)
	assert.Equal(t, "Colombo", b.District)

	require.NoError(t, b.Set(FieldDistrict, "gampaha"))
	assert.Equal(t, "Gampaha", b.District)
}

func TestBillingSet_Errors(t *testing.T) {
	t.Parallel()

	b := validBilling()
	assert.ErrorIs(t, b.Set(FieldCountry, "India"), ErrReadOnlyField)
	assert.ErrorIs(t, b.Set(FieldCardName, "x"), ErrUnknownField)
	assert.ErrorIs(t, b.Set(FieldProvince, "Atlantis"), ErrUnknownProvince)
	assert.Equal(t, DefaultCountry, b.Country)
}

func TestDeliverySet(t *testing.T) {
	t.Parallel()

	d := NewDeliveryInfo()
	require.NoError(t, d.Set(FieldShippingProvince, "Southern"))
	require.NoError(t, d.Set(FieldShippingDistrict, "Galle"))
	require.NoError(t, d.Set(FieldShippingProvince, "Uva"))
	assert.Empty(t, d.ShippingDistrict)
	assert.ErrorIs(t, d.Set(FieldEmail, "x"), ErrUnknownField)
}

func TestPaymentSet_Sanitizes(t *testing.T) {
	t.Parallel()

	p := NewPaymentInfo()
	require.NoError(t, p.Set(FieldCardNumber, "4111 1111 1111 1111 99"))
	assert.Equal(t, "4111111111111111", p.CardNumber)

	require.NoError(t, p.Set(FieldCardNumber, "3782-822463-10005-7"))
	assert.Equal(t, "378282246310005", p.CardNumber)

	require.NoError(t, p.Set(FieldExpiry, "0729"))
	assert.Equal(t, "07/29", p.Expiry)

	require.NoError(t, p.Set(FieldCVC, "12a345"))
	assert.Equal(t, "1234", p.CVC)

	assert.ErrorIs(t, p.Set(FieldEmail, "x"), ErrUnknownField)
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	m, err := ParseDeliveryMethod("Pickup")
	require.NoError(t, err)
	assert.Equal(t, DeliveryPickup, m)
	_, err = ParseDeliveryMethod("drone")
	assert.ErrorIs(t, err, ErrInvalidOption)

	pm, err := ParsePaymentMethod("cod")
	require.NoError(t, err)
	assert.Equal(t, PaymentCOD, pm)
	_, err = ParsePaymentMethod("crypto")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestErrorMap_Replace(t *testing.T) {
	t.Parallel()

	m := ErrorMap{FieldEmail: true, FieldCardName: true}
	m.Replace(StepBilling, []Field{FieldPhone})

	assert.False(t, m.Has(FieldEmail))
	assert.True(t, m.Has(FieldPhone))
	assert.True(t, m.Has(FieldCardName))
	assert.Equal(t, []Field{FieldCardName, FieldPhone}, m.Fields())

	c := m.Copy()
	c.Clear(FieldPhone)
	assert.True(t, m.Has(FieldPhone))
}

func TestCompletedSteps(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CompletedSteps(StepBilling))
	assert.Equal(t, []Step{StepBilling, StepDelivery}, CompletedSteps(StepPayment))
	assert.False(t, Step(3).Valid())
	assert.False(t, Step(-1).Valid())
	assert.Equal(t, "delivery", StepDelivery.String())
}
