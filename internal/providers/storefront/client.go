// Package storefront provides the storefront backend services used during
// checkout over NATS request-reply.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/common/money"
	"storefront/internal/coupon"
)

// NATS subjects for the storefront services.
const (
	SubjectShippingConfig   = "storefront.settings.shipping"
	SubjectCouponApply      = "storefront.coupons.apply"
	SubjectCurrentUser      = "storefront.users.current"
	SubjectBillingAddresses = "storefront.addresses.billing"
	SubjectShippingAddress  = "storefront.addresses.shipping"
	SubjectResolveToken     = "storefront.auth.resolve"
)

// ErrRemote marks an error reported by a storefront service.
var ErrRemote = errors.New("storefront service error")

// Requester sends a JSON request and decodes the JSON reply.
type Requester interface {
	Request(ctx context.Context, subject string, req, resp interface{}) error
}

// Config holds storefront client configuration
type Config struct {
	RequestTimeout time.Duration `envconfig:"STOREFRONT_REQUEST_TIMEOUT" default:"5s"`
	ResolveTokens  bool          `envconfig:"STOREFRONT_RESOLVE_TOKENS" default:"true"`
}

// reply is the envelope every storefront service answers with.
type reply[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Client calls the storefront services.
type Client struct {
	nc      Requester
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new storefront client
func New(nc Requester, cfg Config, logger *slog.Logger) *Client {
	return &Client{nc: nc, timeout: cfg.RequestTimeout, logger: logger}
}

// call sends req and unwraps the reply envelope. A reply with success
// false becomes an ErrRemote carrying the service message.
func call[T any](ctx context.Context, c *Client, subject string, req interface{}) (T, error) {
	var zero T
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var resp reply[T]
	if err := c.nc.Request(ctx, subject, req, &resp); err != nil {
		return zero, err
	}
	if !resp.Success {
		c.logger.Debug("storefront request rejected", "subject", subject, "error", resp.Error)
		return zero, &RemoteError{Subject: subject, Message: resp.Error}
	}
	return resp.Data, nil
}

// RemoteError is a failure reported by the remote service.
type RemoteError struct {
	Subject string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// ShippingConfig returns the shipping fee configuration service.
func (c *Client) ShippingConfig() *ShippingConfig {
	return &ShippingConfig{client: c}
}

// ShippingConfig reads the shipping fee setting.
type ShippingConfig struct {
	client *Client
}

// Get returns the raw shipping fee setting. It may be a number, a numeric
// string or an object; shipping.ParseFeeValue decides.
func (s *ShippingConfig) Get(ctx context.Context) (json.RawMessage, error) {
	return call[json.RawMessage](ctx, s.client, SubjectShippingConfig, struct{}{})
}

// Coupons returns the coupon service.
func (c *Client) Coupons() *Coupons {
	return &Coupons{client: c}
}

// Coupons validates coupon codes.
type Coupons struct {
	client *Client
}

type couponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type couponResult struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discountAmount"`
	Message        string  `json:"message,omitempty"`
}

// Apply asks the coupon service for a verdict. A rejected request keeps
// the service message so the user sees it.
func (s *Coupons) Apply(ctx context.Context, req coupon.Request) (coupon.Result, error) {
	res, err := call[couponResult](ctx, s.client, SubjectCouponApply, couponRequest{
		Code:     req.Code,
		Subtotal: req.Subtotal.ToMajor(),
	})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			return coupon.Result{}, &coupon.RejectedError{Message: remote.Message}
		}
		return coupon.Result{}, fmt.Errorf("applying coupon: %w", err)
	}
	return coupon.Result{
		Valid:    res.Valid,
		Discount: money.FromMajor(res.DiscountAmount),
		Message:  res.Message,
	}, nil
}

// Profiles returns the user profile service.
func (c *Client) Profiles() *Profiles {
	return &Profiles{client: c}
}

// Profiles looks up users.
type Profiles struct {
	client *Client
}

type userRequest struct {
	UserID string `json:"userId"`
}

// CurrentUser returns the profile of userID.
func (s *Profiles) CurrentUser(ctx context.Context, userID string) (*checkout.Profile, error) {
	p, err := call[checkout.Profile](ctx, s.client, SubjectCurrentUser, userRequest{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &p, nil
}

// Addresses returns the address book service.
func (c *Client) Addresses() *Addresses {
	return &Addresses{client: c}
}

// Addresses lists saved addresses.
type Addresses struct {
	client *Client
}

// ListBilling returns the saved billing addresses of userID.
func (s *Addresses) ListBilling(ctx context.Context, userID string) ([]checkout.SavedAddress, error) {
	list, err := call[[]checkout.SavedAddress](ctx, s.client, SubjectBillingAddresses, userRequest{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("listing billing addresses: %w", err)
	}
	return list, nil
}

// ListShipping returns the saved shipping addresses of userID.
func (s *Addresses) ListShipping(ctx context.Context, userID string) ([]checkout.SavedAddress, error) {
	list, err := call[[]checkout.SavedAddress](ctx, s.client, SubjectShippingAddress, userRequest{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("listing shipping addresses: %w", err)
	}
	return list, nil
}

type tokenRequest struct {
	Token string `json:"token"`
}

type tokenResult struct {
	UserID string `json:"userId"`
}

// ResolveToken maps a bearer token to a user ID. It matches
// middleware.TokenResolver.
func (c *Client) ResolveToken(ctx context.Context, token string) (string, error) {
	res, err := call[tokenResult](ctx, c, SubjectResolveToken, tokenRequest{Token: token})
	if err != nil {
		return "", fmt.Errorf("resolving token: %w", err)
	}
	return res.UserID, nil
}
