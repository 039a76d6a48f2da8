package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/checkout/domain"
	"storefront/internal/coupon"
)

// Session is one checkout attempt. It owns the three sub-forms, the shared
// error map and the active step; every mutation goes through its methods.
// No method holds the session lock across a network call.
type Session struct {
	id        string
	createdAt time.Time
	shipping  cart.ShippingRule

	mu         sync.Mutex
	userID     string
	autofilled bool
	step       domain.Step
	billing    domain.BillingInfo
	delivery   domain.DeliveryInfo
	payment    domain.PaymentInfo
	errs       domain.ErrorMap
	lines      []cart.Line
	rev        uint64
	agg        cart.Aggregator
	submitting bool
	order      *OrderRef

	coupon coupon.Applier
}

// NewSession creates a session at the billing step.
func NewSession(id, country string, shipping cart.ShippingRule) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		shipping:  shipping,
		billing:   domain.NewBillingInfo(country),
		delivery:  domain.NewDeliveryInfo(),
		payment:   domain.NewPaymentInfo(),
		errs:      domain.ErrorMap{},
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Step returns the active step.
func (s *Session) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Errors returns a copy of the error map.
func (s *Session) Errors() domain.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs.Copy()
}

// UserID returns the authenticated user, if any.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// claimAutofill records userID and reports whether autofill should run.
// It returns true at most once per session.
func (s *Session) claimAutofill(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		return false
	}
	s.userID = userID
	if s.autofilled {
		return false
	}
	s.autofilled = true
	return true
}

// SetBillingField updates a billing field and clears its error once the
// value is valid on its own.
func (s *Session) SetBillingField(f domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.billing.Set(f, value); err != nil {
		return fmt.Errorf("setting %s: %w", f, err)
	}
	s.clearIfValid(f, s.billing.Value(f))
	return nil
}

// SetDeliveryField updates a shipping address field.
func (s *Session) SetDeliveryField(f domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.delivery.Set(f, value); err != nil {
		return fmt.Errorf("setting %s: %w", f, err)
	}
	s.clearIfValid(f, s.delivery.Value(f))
	return nil
}

// SetShipToDifferent toggles the separate shipping address. Recorded errors
// stay until the step is validated again.
func (s *Session) SetShipToDifferent(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivery.ShipToDifferent = on
}

// SetDeliveryMethod selects delivery or pickup.
func (s *Session) SetDeliveryMethod(value string) error {
	m, err := domain.ParseDeliveryMethod(value)
	if err != nil {
		return fmt.Errorf("setting delivery method %q: %w", value, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivery.DeliveryMethod = m
	return nil
}

// SetPaymentMethod selects card or cash on delivery.
func (s *Session) SetPaymentMethod(value string) error {
	m, err := domain.ParsePaymentMethod(value)
	if err != nil {
		return fmt.Errorf("setting payment method %q: %w", value, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payment.Method = m
	return nil
}

// SetPaymentField updates a card field.
func (s *Session) SetPaymentField(f domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.payment.Set(f, value); err != nil {
		return fmt.Errorf("setting %s: %w", f, err)
	}
	s.clearIfValid(f, s.payment.Value(f))
	return nil
}

func (s *Session) clearIfValid(f domain.Field, value string) {
	if domain.FieldValid(f, value) {
		s.errs.Clear(f)
	}
}

// SetCart replaces the raw cart lines.
func (s *Session) SetCart(lines []cart.Line) {
	cp := make([]cart.Line, len(lines))
	copy(cp, lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = cp
	s.rev++
}

// Summary returns the priced cart.
func (s *Session) Summary() cart.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() cart.Summary {
	return s.agg.Summary(s.rev, s.lines, s.shipping, s.coupon.Discount())
}

// Next validates the active step and advances when it is clean. At the
// last step a clean validation leaves the step unchanged.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(s.step); err != nil {
		return err
	}
	if s.step < domain.LastStep {
		s.step++
	}
	return nil
}

// Prev moves back one step. It never validates.
func (s *Session) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step > domain.FirstStep {
		s.step--
	}
}

// JumpTo moves to any step without validating.
func (s *Session) JumpTo(step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("jumping to %d: %w", int(step), ErrInvalidStep)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	return nil
}

func (s *Session) validateLocked(step domain.Step) error {
	var invalid []domain.Field
	switch step {
	case domain.StepBilling:
		invalid = domain.ValidateBilling(s.billing)
	case domain.StepDelivery:
		invalid = domain.ValidateDelivery(s.delivery)
	case domain.StepPayment:
		invalid = domain.ValidatePayment(s.payment)
	default:
		return ErrInvalidStep
	}

	s.errs.Replace(step, invalid)
	if len(invalid) > 0 {
		return &ValidationError{Step: step, Fields: invalid}
	}
	return nil
}

// SetCouponCode records an edit of the coupon input.
func (s *Session) SetCouponCode(code string) {
	s.coupon.Type(code)
}

// Coupon returns the coupon state.
func (s *Session) Coupon() coupon.State {
	return s.coupon.State()
}

// ApplyCoupon sends the current code to svc. Only the payment step offers
// coupons.
func (s *Session) ApplyCoupon(ctx context.Context, svc coupon.Service) (coupon.State, error) {
	s.mu.Lock()
	if s.step != domain.StepPayment {
		s.mu.Unlock()
		return s.coupon.State(), ErrCouponUnavailable
	}
	subtotal := s.summaryLocked().Subtotal
	s.mu.Unlock()

	st, err := s.coupon.Apply(ctx, svc, subtotal)
	if err != nil {
		return st, fmt.Errorf("applying coupon: %w", err)
	}
	return st, nil
}

// beginSubmit runs the submit guard and assembles the payload. On success
// the session is marked as submitting until finishSubmit is called.
func (s *Session) beginSubmit() (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return nil, ErrSubmissionInProgress
	}
	if s.step != domain.LastStep {
		return nil, ErrNotOnFinalStep
	}
	if err := s.validateLocked(domain.StepPayment); err != nil {
		return nil, err
	}

	summary := s.summaryLocked()
	if summary.IsEmpty() {
		return nil, ErrCartEmpty
	}

	s.submitting = true
	return Assemble(Input{
		Billing:    s.billing,
		Delivery:   s.delivery,
		Payment:    s.payment,
		Summary:    summary,
		CouponCode: s.coupon.AppliedCode(),
	}), nil
}

// finishSubmit clears the submitting flag. A placed order empties the cart.
func (s *Session) finishSubmit(ref *OrderRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if ref == nil {
		return
	}
	s.order = ref
	s.lines = nil
	s.rev++
}

// Order returns the placed order, if any.
func (s *Session) Order() *OrderRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}
