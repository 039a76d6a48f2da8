package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"storefront/internal/cart"
	"storefront/internal/common/events"
	"storefront/internal/common/middleware"
	"storefront/internal/coupon"
	"storefront/internal/shipping"
)

// ProfileService looks up the signed-in customer.
type ProfileService interface {
	CurrentUser(ctx context.Context, userID string) (*Profile, error)
}

// AddressBookService lists a customer's saved addresses.
type AddressBookService interface {
	ListBilling(ctx context.Context, userID string) ([]SavedAddress, error)
	ListShipping(ctx context.Context, userID string) ([]SavedAddress, error)
}

// OrderRef identifies a placed order. Either field may be empty.
type OrderRef struct {
	OrderID     string `json:"orderId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// Identifier prefers the order number.
func (r OrderRef) Identifier() string {
	if r.OrderNumber != "" {
		return r.OrderNumber
	}
	return r.OrderID
}

// OrderService places orders.
type OrderService interface {
	Checkout(ctx context.Context, sub *Submission) (*OrderRef, error)
}

// Dependencies are the collaborators of the checkout service. Any of them
// may be nil; the matching feature then falls back to its default.
type Dependencies struct {
	ShippingConfig shipping.ConfigService
	Coupons        coupon.Service
	Profiles       ProfileService
	Addresses      AddressBookService
	Orders         OrderService
	Events         events.EventPublisher
}

// Placement is the result of a successful submit.
type Placement struct {
	OrderRef
	Redirect string `json:"redirect"`
}

// Service drives checkout sessions and their external calls.
type Service struct {
	store  SessionStore
	deps   Dependencies
	cfg    Config
	logger *slog.Logger

	bg sync.WaitGroup
}

// NewService creates a new checkout service
func NewService(store SessionStore, deps Dependencies, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSession starts a checkout attempt. The shipping fee fetch starts
// in the background; an authenticated user also triggers autofill.
func (s *Service) CreateSession(ctx context.Context, userID string, lines []cart.Line) (*Session, error) {
	id := ulid.Make().String()

	resolver := shipping.NewResolver(s.deps.ShippingConfig, s.cfg.ShippingPolicy(), s.logger.With("session_id", id))
	sess := NewSession(id, s.cfg.Country, resolver)
	if len(lines) > 0 {
		sess.SetCart(lines)
	}
	s.store.Add(sess)

	fetchCtx, cancel := s.detached(ctx)
	resolver.Start(fetchCtx)
	s.goBackground(func() {
		defer cancel()
		_ = resolver.Wait(fetchCtx)
	})

	if sess.claimAutofill(userID) {
		s.goBackground(func() {
			actx, cancel := s.detached(ctx)
			defer cancel()
			s.autofill(actx, sess, userID)
		})
	}

	s.logger.Info("checkout session created",
		"session_id", id,
		"authenticated", userID != "",
		"correlation_id", middleware.GetCorrelationID(ctx),
	)

	return sess, nil
}

// Session returns a live session.
func (s *Service) Session(id string) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// Autofill prefills a session for a user who signed in mid-checkout. It
// runs at most once per session and blocks until the merge is done.
func (s *Service) Autofill(ctx context.Context, id, userID string) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if sess.claimAutofill(userID) {
		s.autofill(ctx, sess, userID)
	}
	return sess, nil
}

func (s *Service) autofill(ctx context.Context, sess *Session, userID string) {
	var p Prefill

	if s.deps.Profiles != nil {
		profile, err := s.deps.Profiles.CurrentUser(ctx, userID)
		if err != nil {
			s.logger.Warn("profile lookup failed", "session_id", sess.ID(), "error", err)
		} else {
			p.Profile = profile
		}
	}

	if s.deps.Addresses != nil {
		billing, err := s.deps.Addresses.ListBilling(ctx, userID)
		if err != nil {
			s.logger.Warn("billing address lookup failed", "session_id", sess.ID(), "error", err)
		} else if len(billing) > 0 {
			p.Billing = &billing[0]
		}

		shippingAddrs, err := s.deps.Addresses.ListShipping(ctx, userID)
		if err != nil {
			s.logger.Warn("shipping address lookup failed", "session_id", sess.ID(), "error", err)
		} else if len(shippingAddrs) > 0 {
			p.Shipping = &shippingAddrs[0]
		}
	}

	sess.applyPrefill(p)

	s.logger.Debug("session autofilled",
		"session_id", sess.ID(),
		"profile", p.Profile != nil,
		"billing", p.Billing != nil,
		"shipping", p.Shipping != nil,
	)
}

// ApplyCoupon applies the session's current coupon code. Service failures
// are folded into the returned state, not returned as errors.
func (s *Service) ApplyCoupon(ctx context.Context, id string) (coupon.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return coupon.State{}, err
	}

	st, err := sess.ApplyCoupon(ctx, s.deps.Coupons)
	if err != nil {
		return st, err
	}

	s.logger.Info("coupon applied",
		"session_id", id,
		"valid", st.Valid,
		"discount", st.Discount.AmountMinor,
	)
	return st, nil
}

// Submit places the order. A failed placement leaves the session on the
// payment step with everything intact and returns a *SubmitError.
func (s *Service) Submit(ctx context.Context, id string) (*Placement, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	sub, err := sess.beginSubmit()
	if err != nil {
		return nil, err
	}

	if s.deps.Orders == nil {
		sess.finishSubmit(nil)
		return nil, newSubmitError(errors.New("order service not configured"))
	}

	ref, err := s.deps.Orders.Checkout(ctx, sub)
	if err == nil && (ref == nil || ref.Identifier() == "") {
		err = errors.New("order service returned no order identifier")
	}
	if err != nil {
		sess.finishSubmit(nil)
		subErr := newSubmitError(err)
		s.logger.Error("order placement failed",
			"session_id", id,
			"error", err,
			"correlation_id", middleware.GetCorrelationID(ctx),
		)
		s.publish(ctx, events.EventOrderFailed, id, events.OrderFailedData{
			SessionID: id,
			Reason:    subErr.Message,
			Total:     sub.Total.AmountMinor,
			Currency:  string(sub.Total.Currency),
		})
		return nil, subErr
	}

	sess.finishSubmit(ref)

	s.logger.Info("order placed",
		"session_id", id,
		"order_id", ref.OrderID,
		"order_number", ref.OrderNumber,
		"total", sub.Total.AmountMinor,
		"correlation_id", middleware.GetCorrelationID(ctx),
	)

	s.publish(ctx, events.EventOrderPlaced, id, orderPlacedData(id, ref, sub))

	return &Placement{
		OrderRef: *ref,
		Redirect: "/order-confirmation/" + url.PathEscape(ref.Identifier()),
	}, nil
}

// Wait blocks until background fetches started by the service finish.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) publish(ctx context.Context, eventType, sessionID string, data interface{}) {
	if s.deps.Events == nil {
		return
	}

	event, err := events.NewEvent(eventType, events.AggregateCheckoutSession, sessionID, data)
	if err != nil {
		s.logger.Error("building event", "type", eventType, "error", err)
		return
	}
	event.WithCorrelation(middleware.GetCorrelationID(ctx), "")

	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.logger.Warn("publishing event failed",
			"event_id", event.ID,
			"type", eventType,
			"session_id", sessionID,
			"error", err,
		)
	}
}

// detached returns a context that outlives the request but keeps its
// values, bounded by the fetch timeout.
func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (s *Service) goBackground(fn func()) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn()
	}()
}

func orderPlacedData(sessionID string, ref *OrderRef, sub *Submission) events.OrderPlacedData {
	count := 0
	for _, it := range sub.Items {
		count += it.Quantity
	}
	return events.OrderPlacedData{
		SessionID:      sessionID,
		OrderID:        ref.OrderID,
		OrderNumber:    ref.OrderNumber,
		CustomerEmail:  sub.Customer.Email,
		ItemCount:      count,
		Subtotal:       sub.Subtotal.AmountMinor,
		ShippingFee:    sub.ShippingFee.AmountMinor,
		Discount:       sub.Discount.AmountMinor,
		Total:          sub.Total.AmountMinor,
		Currency:       string(sub.Total.Currency),
		PaymentMethod:  sub.PaymentMethod,
		DeliveryMethod: sub.DeliveryMethod,
		CouponCode:     sub.CouponCode,
		PlacedAt:       time.Now().UTC(),
	}
}
