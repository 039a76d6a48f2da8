package checkout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/checkout/domain"
	"storefront/internal/common/money"
)

func sampleInput() Input {
	b := domain.NewBillingInfo("")
	b.FirstName = " Nimal "
	b.LastName = "Perera"
	b.Email = "nimal@example.lk"
	b.Phone = "0771234567"
	b.Address1 = "12 Galle Road"
	b.City = "Colombo"
	b.Province = "Western"
	b.District = "Colombo"
	b.Postal = "00300"

	p := domain.NewPaymentInfo()
	p.CardName = "N Perera"
	p.CardNumber = "5555555555554444"
	p.Expiry = "08/27"
	p.CVC = "123"

	lines := cart.Group([]cart.Line{{ID: "v1", Name: "Tee", Price: money.FromMajor(2500), Quantity: 3}})
	summary := cart.Summarize(lines, flatShipping(), money.Zero())

	return Input{
		Billing:  b,
		Delivery: domain.NewDeliveryInfo(),
		Payment:  p,
		Summary:  summary,
	}
}

func TestAssemble_CardPayment(t *testing.T) {
	t.Parallel()

	sub := Assemble(sampleInput())

	assert.Equal(t, "Nimal", sub.Customer.FirstName)
	assert.Equal(t, PaymentCard, sub.PaymentMethod)
	assert.Equal(t, DeliveryStandard, sub.DeliveryMethod)
	require.NotNil(t, sub.PaymentInfo)
	assert.Equal(t, CardDetails{
		CardType:       "MASTERCARD",
		CardLast4:      "4444",
		CardExpMonth:   8,
		CardExpYear:    2027,
		CardholderName: "N Perera",
	}, *sub.PaymentInfo)

	assert.Equal(t, money.FromMajor(7500), sub.Subtotal)
	assert.Equal(t, money.FromMajor(750), sub.ShippingFee)
	assert.True(t, sub.TaxTotal.IsZero())
	assert.Equal(t, money.FromMajor(8250), sub.Total)
	require.Len(t, sub.Items, 1)
	assert.Equal(t, 3, sub.Items[0].Quantity)
	assert.Equal(t, money.FromMajor(7500), sub.Items[0].LineTotal)
}

func TestAssemble_ShippingCopiesBilling(t *testing.T) {
	t.Parallel()

	sub := Assemble(sampleInput())
	assert.Equal(t, sub.BillingAddress, sub.ShippingAddress)

	sub.ShippingAddress.City = "Galle"
	assert.Equal(t, "Colombo", sub.BillingAddress.City)
}

func TestAssemble_ShipToDifferent(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Delivery.ShipToDifferent = true
	in.Delivery.ShippingAddress = "4 Fort Street"
	in.Delivery.ShippingCity = "Galle"
	in.Delivery.ShippingProvince = "Southern"
	in.Delivery.ShippingDistrict = "Galle"
	in.Delivery.ShippingPostal = "80000"
	in.Delivery.ShippingNotes = "Leave at gate"
	in.Delivery.DeliveryMethod = domain.DeliveryPickup

	sub := Assemble(in)
	assert.Equal(t, Address{
		Line1:      "4 Fort Street",
		City:       "Galle",
		Province:   "Southern",
		District:   "Galle",
		PostalCode: "80000",
		Country:    domain.DefaultCountry,
	}, sub.ShippingAddress)
	assert.Equal(t, "Colombo", sub.BillingAddress.City)
	assert.Equal(t, DeliveryPickup, sub.DeliveryMethod)
	assert.Equal(t, "Leave at gate", sub.ShippingNotes)
}

func TestAssemble_CashOnDelivery(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Payment = domain.PaymentInfo{Method: domain.PaymentCOD}

	sub := Assemble(in)
	assert.Equal(t, PaymentCOD, sub.PaymentMethod)
	assert.Nil(t, sub.PaymentInfo)
}

func TestAssemble_OmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Payment.Method = domain.PaymentCOD
	raw, err := json.Marshal(Assemble(in))
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"couponCode", "orderNotes", "paymentInfo", "shippingNotes"} {
		assert.NotContains(t, m, key)
	}

	var billing map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(m["billingAddress"], &billing))
	assert.NotContains(t, billing, "company")
	assert.NotContains(t, billing, "line2")
	assert.Contains(t, billing, "postalCode")
}

func TestAssemble_IncludesOptionalFieldsWhenSet(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Billing.Company = "Perera Traders"
	in.Billing.OrderNotes = "Call first"
	in.CouponCode = "SAVE10"

	sub := Assemble(in)
	assert.Equal(t, "Perera Traders", sub.BillingAddress.Company)
	assert.Equal(t, "Perera Traders", sub.ShippingAddress.Company)
	assert.Equal(t, "Call first", sub.OrderNotes)
	assert.Equal(t, "SAVE10", sub.CouponCode)
}
