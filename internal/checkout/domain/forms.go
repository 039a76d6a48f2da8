package domain

import (
	"errors"
	"strings"
)

// Field names a single input of a sub-form. Names are unique across steps
// so one error map can hold entries for all of them.
type Field string

// Billing fields
const (
	FieldFirstName  Field = "firstName"
	FieldLastName   Field = "lastName"
	FieldCompany    Field = "company"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldAddress1   Field = "address1"
	FieldAddress2   Field = "address2"
	FieldCity       Field = "city"
	FieldProvince   Field = "province"
	FieldDistrict   Field = "district"
	FieldPostal     Field = "postal"
	FieldCountry    Field = "country"
	FieldOrderNotes Field = "orderNotes"
)

// Delivery fields
const (
	FieldShippingAddress  Field = "shippingAddress"
	FieldShippingAddress2 Field = "shippingAddress2"
	FieldShippingCity     Field = "shippingCity"
	FieldShippingProvince Field = "shippingProvince"
	FieldShippingDistrict Field = "shippingDistrict"
	FieldShippingPostal   Field = "shippingPostal"
	FieldShippingNotes    Field = "shippingNotes"
)

// Payment fields
const (
	FieldCardName   Field = "cardName"
	FieldCardNumber Field = "cardNumber"
	FieldExpiry     Field = "expiry"
	FieldCVC        Field = "cvc"
)

var billingFields = []Field{
	FieldFirstName, FieldLastName, FieldCompany, FieldEmail, FieldPhone,
	FieldAddress1, FieldAddress2, FieldCity, FieldProvince, FieldDistrict,
	FieldPostal, FieldCountry, FieldOrderNotes,
}

var deliveryFields = []Field{
	FieldShippingAddress, FieldShippingAddress2, FieldShippingCity,
	FieldShippingProvince, FieldShippingDistrict, FieldShippingPostal,
	FieldShippingNotes,
}

var paymentFields = []Field{FieldCardName, FieldCardNumber, FieldExpiry, FieldCVC}

// DefaultCountry is the fixed billing country.
const DefaultCountry = "Sri Lanka"

// Common errors
var (
	ErrUnknownField     = errors.New("unknown field")
	ErrReadOnlyField    = errors.New("field is not editable")
	ErrUnknownProvince  = errors.New("unknown province")
	ErrDistrictMismatch = errors.New("district does not belong to the selected province")
	ErrInvalidOption    = errors.New("invalid option")
)

// BillingInfo is the billing sub-form.
type BillingInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Company    string `json:"company,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	District   string `json:"district"`
	Postal     string `json:"postal"`
	Country    string `json:"country"`
	OrderNotes string `json:"orderNotes,omitempty"`
}

// NewBillingInfo returns an empty billing form with the fixed country set.
func NewBillingInfo(country string) BillingInfo {
	if country == "" {
		country = DefaultCountry
	}
	return BillingInfo{Country: country}
}

func (b *BillingInfo) ref(f Field) *string {
	switch f {
	case FieldFirstName:
		return &b.FirstName
	case FieldLastName:
		return &b.LastName
	case FieldCompany:
		return &b.Company
	case FieldEmail:
		return &b.Email
	case FieldPhone:
		return &b.Phone
	case FieldAddress1:
		return &b.Address1
	case FieldAddress2:
		return &b.Address2
	case FieldCity:
		return &b.City
	case FieldProvince:
		return &b.Province
	case FieldDistrict:
		return &b.District
	case FieldPostal:
		return &b.Postal
	case FieldCountry:
		return &b.Country
	case FieldOrderNotes:
		return &b.OrderNotes
	}
	return nil
}

// Value returns the current value of a billing field.
func (b BillingInfo) Value(f Field) string {
	if p := b.ref(f); p != nil {
		return *p
	}
	return ""
}

// Set updates one billing field. Changing the province clears the
// district; a district must belong to the selected province.
func (b *BillingInfo) Set(f Field, value string) error {
	switch f {
	case FieldCountry:
		return ErrReadOnlyField
	case FieldProvince:
		return setProvince(&b.Province, &b.District, value)
	case FieldDistrict:
		return setDistrict(b.Province, &b.District, value)
	}
	p := b.ref(f)
	if p == nil {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// DeliveryMethod is how the order reaches the customer.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "delivery"
	DeliveryPickup   DeliveryMethod = "pickup"
)

// ParseDeliveryMethod validates a delivery method option.
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch m := DeliveryMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case DeliveryStandard, DeliveryPickup:
		return m, nil
	}
	return "", ErrInvalidOption
}

// DeliveryInfo is the delivery sub-form.
type DeliveryInfo struct {
	ShipToDifferent  bool           `json:"shipToDifferent"`
	ShippingAddress  string         `json:"shippingAddress"`
	ShippingAddress2 string         `json:"shippingAddress2,omitempty"`
	ShippingCity     string         `json:"shippingCity"`
	ShippingProvince string         `json:"shippingProvince"`
	ShippingDistrict string         `json:"shippingDistrict"`
	ShippingPostal   string         `json:"shippingPostal"`
	ShippingNotes    string         `json:"shippingNotes,omitempty"`
	DeliveryMethod   DeliveryMethod `json:"deliveryMethod"`
}

// NewDeliveryInfo returns an empty delivery form.
func NewDeliveryInfo() DeliveryInfo {
	return DeliveryInfo{DeliveryMethod: DeliveryStandard}
}

func (d *DeliveryInfo) ref(f Field) *string {
	switch f {
	case FieldShippingAddress:
		return &d.ShippingAddress
	case FieldShippingAddress2:
		return &d.ShippingAddress2
	case FieldShippingCity:
		return &d.ShippingCity
	case FieldShippingProvince:
		return &d.ShippingProvince
	case FieldShippingDistrict:
		return &d.ShippingDistrict
	case FieldShippingPostal:
		return &d.ShippingPostal
	case FieldShippingNotes:
		return &d.ShippingNotes
	}
	return nil
}

// Value returns the current value of a delivery field.
func (d DeliveryInfo) Value(f Field) string {
	if p := d.ref(f); p != nil {
		return *p
	}
	return ""
}

// Set updates one shipping address field.
func (d *DeliveryInfo) Set(f Field, value string) error {
	switch f {
	case FieldShippingProvince:
		return setProvince(&d.ShippingProvince, &d.ShippingDistrict, value)
	case FieldShippingDistrict:
		return setDistrict(d.ShippingProvince, &d.ShippingDistrict, value)
	}
	p := d.ref(f)
	if p == nil {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCOD  PaymentMethod = "cod"
)

// ParsePaymentMethod validates a payment method option.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCard, PaymentCOD:
		return m, nil
	}
	return "", ErrInvalidOption
}

// PaymentInfo is the payment sub-form. The card brand is never stored; use
// Brand to derive it.
type PaymentInfo struct {
	Method     PaymentMethod `json:"method"`
	CardName   string        `json:"cardName"`
	CardNumber string        `json:"cardNumber"`
	Expiry     string        `json:"expiry"`
	CVC        string        `json:"cvc"`
}

// NewPaymentInfo returns an empty payment form.
func NewPaymentInfo() PaymentInfo {
	return PaymentInfo{Method: PaymentCard}
}

// Brand derives the card brand from the card number.
func (p PaymentInfo) Brand() CardBrand {
	return DetectBrand(p.CardNumber)
}

// Value returns the current value of a payment field.
func (p PaymentInfo) Value(f Field) string {
	switch f {
	case FieldCardName:
		return p.CardName
	case FieldCardNumber:
		return p.CardNumber
	case FieldExpiry:
		return p.Expiry
	case FieldCVC:
		return p.CVC
	}
	return ""
}

// Set updates one card field, normalizing the input the way the card form
// does as the user types.
func (p *PaymentInfo) Set(f Field, value string) error {
	switch f {
	case FieldCardName:
		p.CardName = value
	case FieldCardNumber:
		p.CardNumber = SanitizeCardNumber(value)
	case FieldExpiry:
		p.Expiry = FormatExpiry(value)
	case FieldCVC:
		p.CVC = SanitizeCVC(value)
	default:
		return ErrUnknownField
	}
	return nil
}

func setProvince(province, district *string, value string) error {
	if value == "" {
		*province = ""
		*district = ""
		return nil
	}
	canonical, ok := CanonicalProvince(value)
	if !ok {
		return ErrUnknownProvince
	}
	if canonical != *province {
		*district = ""
	}
	*province = canonical
	return nil
}

func setDistrict(province string, district *string, value string) error {
	if value == "" {
		*district = ""
		return nil
	}
	canonical, ok := CanonicalDistrict(province, value)
	if !ok {
		return ErrDistrictMismatch
	}
	*district = canonical
	return nil
}
