package shipping

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"storefront/internal/common/money"
)

// ConfigService returns the raw shipping fee configuration.
type ConfigService interface {
	Get(ctx context.Context) (json.RawMessage, error)
}

// Policy holds the threshold rule applied after the fee is resolved.
type Policy struct {
	FreeAbove  money.Money
	DefaultFee money.Money
}

// DefaultPolicy is free shipping above Rs. 10,000 and Rs. 750 otherwise.
func DefaultPolicy() Policy {
	return Policy{
		FreeAbove:  money.FromMajor(10000),
		DefaultFee: money.FromMajor(750),
	}
}

// Apply returns the fee charged for subtotal. Empty carts and carts above
// the threshold ship free.
func (p Policy) Apply(subtotal, fee money.Money) money.Money {
	if subtotal.IsZero() || subtotal.GreaterThan(p.FreeAbove) {
		return money.Zero()
	}
	return fee.NonNegative()
}

// Resolver fetches the shipping fee once and serves it to the session.
// Until the fetch settles, or when no config service is wired, the policy
// default fee is used. A failed fetch resolves to zero.
type Resolver struct {
	svc    ConfigService
	policy Policy
	logger *slog.Logger

	once sync.Once
	done chan struct{}

	mu       sync.RWMutex
	resolved bool
	fee      money.Money
}

// NewResolver creates a resolver. svc may be nil.
func NewResolver(svc ConfigService, policy Policy, logger *slog.Logger) *Resolver {
	return &Resolver{
		svc:    svc,
		policy: policy,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the fetch in the background. Calls after the first are
// no-ops.
func (r *Resolver) Start(ctx context.Context) {
	r.once.Do(func() {
		if r.svc == nil {
			close(r.done)
			return
		}
		go r.fetch(ctx)
	})
}

func (r *Resolver) fetch(ctx context.Context) {
	defer close(r.done)

	raw, err := r.svc.Get(ctx)
	fee := money.Zero()
	if err != nil {
		r.logger.Warn("shipping config fetch failed, shipping set to zero", "error", err)
	} else {
		fee = ParseFeeValue(raw).Amount()
		r.logger.Debug("shipping fee resolved", "fee", fee.String())
	}

	r.mu.Lock()
	r.fee = fee
	r.resolved = true
	r.mu.Unlock()
}

// Wait blocks until the fetch settles or ctx is done.
func (r *Resolver) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolved reports whether the fetch has completed.
func (r *Resolver) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// BaseFee is the fee before the threshold rule.
func (r *Resolver) BaseFee() money.Money {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.resolved {
		return r.policy.DefaultFee
	}
	return r.fee
}

// FeeFor returns the fee charged for subtotal.
func (r *Resolver) FeeFor(subtotal money.Money) money.Money {
	return r.policy.Apply(subtotal, r.BaseFee())
}
