package checkout

import (
	"strings"

	"storefront/internal/cart"
	"storefront/internal/checkout/domain"
	"storefront/internal/common/money"
)

// Wire values for the order service
const (
	DeliveryStandard = "STANDARD_DELIVERY"
	DeliveryPickup   = "IN_STORE_PICKUP"

	PaymentCard = "CARD"
	PaymentCOD  = "CASH_ON_DELIVERY"
)

// Address is the address shape shared by billing and shipping.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Company    string `json:"company,omitempty"`
}

// Customer is the contact block of a submission.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// CardDetails is sent only for card payments. The full card number and
// cvc never leave the session.
type CardDetails struct {
	CardType       string `json:"cardType"`
	CardLast4      string `json:"cardLast4"`
	CardExpMonth   int    `json:"cardExpMonth"`
	CardExpYear    int    `json:"cardExpYear"`
	CardholderName string `json:"cardholderName"`
}

// Item is one grouped cart line.
type Item struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unitPrice"`
	LineTotal money.Money `json:"lineTotal"`
	Color     string      `json:"color,omitempty"`
	Size      string      `json:"size,omitempty"`
	Image     string      `json:"image,omitempty"`
}

// Submission is the checkout payload handed to the order service.
type Submission struct {
	Customer        Customer     `json:"customer"`
	BillingAddress  Address      `json:"billingAddress"`
	ShippingAddress Address      `json:"shippingAddress"`
	DeliveryMethod  string       `json:"deliveryMethod"`
	PaymentMethod   string       `json:"paymentMethod"`
	PaymentInfo     *CardDetails `json:"paymentInfo,omitempty"`
	Items           []Item       `json:"items"`
	Subtotal        money.Money  `json:"subtotal"`
	ShippingFee     money.Money  `json:"shippingFee"`
	Discount        money.Money  `json:"discount"`
	TaxTotal        money.Money  `json:"taxTotal"`
	Total           money.Money  `json:"total"`
	CouponCode      string       `json:"couponCode,omitempty"`
	OrderNotes      string       `json:"orderNotes,omitempty"`
	ShippingNotes   string       `json:"shippingNotes,omitempty"`
}

// Input is everything the assembler reads.
type Input struct {
	Billing    domain.BillingInfo
	Delivery   domain.DeliveryInfo
	Payment    domain.PaymentInfo
	Summary    cart.Summary
	CouponCode string
}

// Assemble builds the submission. It does not validate; the state machine
// has done that by the time it is called.
func Assemble(in Input) *Submission {
	b := in.Billing
	country := b.Country
	if country == "" {
		country = domain.DefaultCountry
	}

	billing := Address{
		Line1:      strings.TrimSpace(b.Address1),
		Line2:      strings.TrimSpace(b.Address2),
		City:       strings.TrimSpace(b.City),
		Province:   b.Province,
		District:   b.District,
		PostalCode: strings.TrimSpace(b.Postal),
		Country:    country,
		Company:    strings.TrimSpace(b.Company),
	}

	// struct copy, no shared references
	shipping := billing
	if in.Delivery.ShipToDifferent {
		d := in.Delivery
		shipping = Address{
			Line1:      strings.TrimSpace(d.ShippingAddress),
			Line2:      strings.TrimSpace(d.ShippingAddress2),
			City:       strings.TrimSpace(d.ShippingCity),
			Province:   d.ShippingProvince,
			District:   d.ShippingDistrict,
			PostalCode: strings.TrimSpace(d.ShippingPostal),
			Country:    country,
		}
	}

	sub := &Submission{
		Customer: Customer{
			FirstName: strings.TrimSpace(b.FirstName),
			LastName:  strings.TrimSpace(b.LastName),
			Email:     strings.TrimSpace(b.Email),
			Phone:     strings.TrimSpace(b.Phone),
		},
		BillingAddress:  billing,
		ShippingAddress: shipping,
		DeliveryMethod:  deliveryMethod(in.Delivery.DeliveryMethod),
		PaymentMethod:   paymentMethod(in.Payment.Method),
		Items:           items(in.Summary.Lines),
		Subtotal:        in.Summary.Subtotal,
		ShippingFee:     in.Summary.Shipping,
		Discount:        in.Summary.Discount,
		TaxTotal:        money.Zero(),
		Total:           in.Summary.Total,
		CouponCode:      strings.TrimSpace(in.CouponCode),
		OrderNotes:      strings.TrimSpace(b.OrderNotes),
	}
	if in.Delivery.ShipToDifferent {
		sub.ShippingNotes = strings.TrimSpace(in.Delivery.ShippingNotes)
	}
	if sub.PaymentMethod == PaymentCard {
		sub.PaymentInfo = cardDetails(in.Payment)
	}

	return sub
}

func deliveryMethod(m domain.DeliveryMethod) string {
	if m == domain.DeliveryPickup {
		return DeliveryPickup
	}
	return DeliveryStandard
}

func paymentMethod(m domain.PaymentMethod) string {
	if m == domain.PaymentCard {
		return PaymentCard
	}
	return PaymentCOD
}

func cardDetails(p domain.PaymentInfo) *CardDetails {
	month, year, _ := domain.ParseExpiry(p.Expiry)
	return &CardDetails{
		CardType:       strings.ToUpper(string(p.Brand())),
		CardLast4:      domain.LastFour(p.CardNumber),
		CardExpMonth:   month,
		CardExpYear:    year,
		CardholderName: strings.TrimSpace(p.CardName),
	}
}

func items(lines []cart.Line) []Item {
	out := make([]Item, 0, len(lines))
	for _, l := range lines {
		out = append(out, Item{
			ID:        cart.GroupingKey(l),
			Name:      l.Name,
			Quantity:  l.EffectiveQuantity(),
			UnitPrice: l.Price.NonNegative(),
			LineTotal: l.LineTotal(),
			Color:     l.Color,
			Size:      l.Size,
			Image:     l.Image,
		})
	}
	return out
}
