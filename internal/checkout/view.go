package checkout

import (
	"time"

	"storefront/internal/cart"
	"storefront/internal/checkout/domain"
	"storefront/internal/coupon"
)

// PaymentView is the payment sub-form as shown back to the client. The
// card number is masked and the cvc is never echoed.
type PaymentView struct {
	Method     domain.PaymentMethod `json:"method"`
	CardName   string               `json:"cardName"`
	CardNumber string               `json:"cardNumber"`
	CardBrand  domain.CardBrand     `json:"cardBrand"`
	Expiry     string               `json:"expiry"`
	CVCSet     bool                 `json:"cvcSet"`
}

// View is a read-only snapshot of a session.
type View struct {
	ID             string              `json:"id"`
	CreatedAt      time.Time           `json:"createdAt"`
	Authenticated  bool                `json:"authenticated"`
	Step           domain.Step         `json:"step"`
	StepName       string              `json:"stepName"`
	CompletedSteps []domain.Step       `json:"completedSteps"`
	Billing        domain.BillingInfo  `json:"billing"`
	Delivery       domain.DeliveryInfo `json:"delivery"`
	Payment        PaymentView         `json:"payment"`
	Errors         []domain.Field      `json:"errors"`
	Cart           cart.Summary        `json:"cart"`
	Coupon         coupon.State        `json:"coupon"`
	Submitting     bool                `json:"submitting"`
	Order          *OrderRef           `json:"order,omitempty"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := s.summaryLocked()
	lines := make([]cart.Line, len(summary.Lines))
	copy(lines, summary.Lines)
	summary.Lines = lines

	completed := domain.CompletedSteps(s.step)
	if completed == nil {
		completed = []domain.Step{}
	}

	return View{
		ID:             s.id,
		CreatedAt:      s.createdAt,
		Authenticated:  s.userID != "",
		Step:           s.step,
		StepName:       s.step.String(),
		CompletedSteps: completed,
		Billing:        s.billing,
		Delivery:       s.delivery,
		Payment: PaymentView{
			Method:     s.payment.Method,
			CardName:   s.payment.CardName,
			CardNumber: domain.MaskCardNumber(s.payment.CardNumber),
			CardBrand:  s.payment.Brand(),
			Expiry:     s.payment.Expiry,
			CVCSet:     s.payment.CVC != "",
		},
		Errors:     s.errs.Fields(),
		Cart:       summary,
		Coupon:     s.coupon.State(),
		Submitting: s.submitting,
		Order:      s.order,
	}
}
