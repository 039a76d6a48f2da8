// Package coupon applies a coupon code against a cart subtotal. Each apply
// is tagged with a generation so responses that arrive after a newer apply,
// or after the code was edited, are dropped.
package coupon

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storefront/internal/common/money"
)

// Default user messages
const (
	MessageInvalid = "Invalid coupon"
	MessageFailed  = "Failed to apply coupon"
	MessageApplied = "Coupon applied"
)

// ErrCodeRequired is returned when apply is requested with a blank code.
var ErrCodeRequired = errors.New("coupon code is required")

// Request is sent to the coupon service.
type Request struct {
	Code     string      `json:"code"`
	Subtotal money.Money `json:"subtotal"`
}

// Result is the coupon service verdict.
type Result struct {
	Valid    bool        `json:"valid"`
	Discount money.Money `json:"discountAmount"`
	Message  string      `json:"message,omitempty"`
}

// Service validates a coupon code.
type Service interface {
	Apply(ctx context.Context, req Request) (Result, error)
}

// RejectedError carries a message supplied by the coupon service. The
// message is shown to the user as is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Normalize turns a service response into the result shown to the user.
// Errors and invalid verdicts never carry a discount.
func Normalize(res Result, err error) Result {
	if err != nil {
		msg := MessageFailed
		var rejected *RejectedError
		if errors.As(err, &rejected) && rejected.Message != "" {
			msg = rejected.Message
		}
		return Result{Discount: money.Zero(), Message: msg}
	}
	if !res.Valid {
		if res.Message == "" {
			res.Message = MessageInvalid
		}
		return Result{Discount: money.Zero(), Message: res.Message}
	}
	if res.Message == "" {
		res.Message = MessageApplied
	}
	res.Discount = res.Discount.NonNegative()
	return res
}

// State is a snapshot of the applier.
type State struct {
	Code        string      `json:"code"`
	Applying    bool        `json:"applying"`
	Valid       bool        `json:"valid"`
	Discount    money.Money `json:"discount"`
	Message     string      `json:"message,omitempty"`
	AppliedCode string      `json:"appliedCode,omitempty"`
}

// Applier tracks the coupon input and the latest apply result.
type Applier struct {
	mu       sync.Mutex
	code     string
	gen      uint64
	inflight int
	result   Result
	applied  string
}

// Type records an edit of the code input. The previous result is dropped
// and any apply still in flight will be ignored when it returns.
func (a *Applier) Type(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.code = code
	a.gen++
	a.result = Result{}
	a.applied = ""
}

// Begin starts an apply for the current code and returns its generation.
func (a *Applier) Begin() (uint64, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	code := strings.TrimSpace(a.code)
	if code == "" {
		return 0, "", ErrCodeRequired
	}
	a.gen++
	a.inflight++
	return a.gen, code, nil
}

// Settle records the outcome of the apply started with gen. It reports
// whether the result was kept.
func (a *Applier) Settle(gen uint64, code string, res Result) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inflight > 0 {
		a.inflight--
	}
	if gen != a.gen {
		return false
	}
	a.result = res
	a.applied = ""
	if res.Valid {
		a.applied = code
	}
	return true
}

// Apply runs a full apply against svc. The service is called without the
// applier lock held.
func (a *Applier) Apply(ctx context.Context, svc Service, subtotal money.Money) (State, error) {
	gen, code, err := a.Begin()
	if err != nil {
		return a.State(), err
	}

	var res Result
	if svc == nil {
		err = errors.New("coupon service not configured")
	} else {
		res, err = svc.Apply(ctx, Request{Code: code, Subtotal: subtotal})
	}
	a.Settle(gen, code, Normalize(res, err))

	return a.State(), nil
}

// Discount returns the discount of the latest kept result.
func (a *Applier) Discount() money.Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.discount()
}

func (a *Applier) discount() money.Money {
	if !a.result.Valid {
		return money.Zero()
	}
	return a.result.Discount
}

// AppliedCode returns the code of the latest valid result, or "".
func (a *Applier) AppliedCode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied
}

// Applying reports whether any apply is still in flight.
func (a *Applier) Applying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight > 0
}

// State returns a snapshot.
func (a *Applier) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return State{
		Code:        a.code,
		Applying:    a.inflight > 0,
		Valid:       a.result.Valid,
		Discount:    a.discount(),
		Message:     a.result.Message,
		AppliedCode: a.applied,
	}
}
