package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/checkout/domain"
	"storefront/internal/common/api"
	"storefront/internal/common/middleware"
	"storefront/internal/common/money"
	"storefront/internal/coupon"
)

// Pseudo-fields accepted by the delivery and payment setters.
const (
	fieldShipToDifferent = "shipToDifferent"
	fieldDeliveryMethod  = "deliveryMethod"
	fieldPaymentMethod   = "method"
)

// Handler handles checkout HTTP requests
type Handler struct {
	service *checkout.Service
}

// NewHandler creates a new checkout handler
func NewHandler(service *checkout.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the checkout routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/regions", h.ListRegions)

	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)

		// Sub-form setters
		r.Patch("/billing", h.UpdateBilling)
		r.Patch("/delivery", h.UpdateDelivery)
		r.Patch("/payment", h.UpdatePayment)
		r.Put("/cart", h.ReplaceCart)

		// Navigation
		r.Post("/next", h.Next)
		r.Post("/prev", h.Prev)
		r.Post("/jump", h.Jump)

		r.Put("/coupon", h.TypeCoupon)
		r.Post("/coupon/apply", h.ApplyCoupon)

		r.Post("/autofill", h.Autofill)
		r.Post("/submit", h.Submit)
	})

	return r
}

// LineRequest is one raw cart line
type LineRequest struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name" validate:"max=255"`
	Price              float64 `json:"price" validate:"gte=0,lte=10000000"`
	Quantity           int     `json:"quantity" validate:"gte=0,lte=9999"`
	Image              string  `json:"image"`
	Color              string  `json:"color"`
	Size               string  `json:"size"`
	VariationKey       string  `json:"variationKey"`
	CartItemID         string  `json:"cartItemId"`
	ProductVariationID string  `json:"productVariationId"`
	ProductID          string  `json:"productId"`
}

// CartRequest carries the raw cart
type CartRequest struct {
	Items []LineRequest `json:"items" validate:"max=200,dive"`
}

// FieldRequest sets a single sub-form field
type FieldRequest struct {
	Field string `json:"field" validate:"required,max=64"`
	Value string `json:"value" validate:"max=512"`
}

// JumpRequest selects a step by index
type JumpRequest struct {
	Step *int `json:"step" validate:"required"`
}

// CouponRequest records the coupon input
type CouponRequest struct {
	Code string `json:"code" validate:"max=64"`
}

func toLines(items []LineRequest) []cart.Line {
	lines := make([]cart.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, cart.Line{
			ID:                 it.ID,
			Name:               it.Name,
			Price:              money.FromMajor(it.Price),
			Quantity:           it.Quantity,
			Image:              it.Image,
			Color:              it.Color,
			Size:               it.Size,
			VariationKey:       it.VariationKey,
			CartItemID:         it.CartItemID,
			ProductVariationID: it.ProductVariationID,
			ProductID:          it.ProductID,
		})
	}
	return lines
}

// ListRegions handles GET /regions
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	api.WriteData(w, http.StatusOK, domain.Provinces())
}

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := api.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteDecodeError(w, err)
		return
	}

	sess, err := h.service.CreateSession(r.Context(), middleware.GetUserID(r.Context()), toLines(req.Items))
	if err != nil {
		api.InternalError(w, "failed to create checkout session")
		return
	}

	api.WriteData(w, http.StatusCreated, sess.View())
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	api.WriteData(w, http.StatusOK, sess.View())
}

// UpdateBilling handles PATCH /sessions/{id}/billing
func (h *Handler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, func(sess *checkout.Session, req FieldRequest) error {
		return sess.SetBillingField(domain.Field(req.Field), req.Value)
	})
}

// UpdateDelivery handles PATCH /sessions/{id}/delivery
func (h *Handler) UpdateDelivery(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, func(sess *checkout.Session, req FieldRequest) error {
		switch req.Field {
		case fieldShipToDifferent:
			on, err := strconv.ParseBool(req.Value)
			if err != nil {
				return domain.ErrInvalidOption
			}
			sess.SetShipToDifferent(on)
			return nil
		case fieldDeliveryMethod:
			return sess.SetDeliveryMethod(req.Value)
		}
		return sess.SetDeliveryField(domain.Field(req.Field), req.Value)
	})
}

// UpdatePayment handles PATCH /sessions/{id}/payment
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, func(sess *checkout.Session, req FieldRequest) error {
		if req.Field == fieldPaymentMethod {
			return sess.SetPaymentMethod(req.Value)
		}
		return sess.SetPaymentField(domain.Field(req.Field), req.Value)
	})
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request, set func(*checkout.Session, FieldRequest) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FieldRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.WriteDecodeError(w, err)
		return
	}

	if err := set(sess, req); err != nil {
		writeFieldError(w, req.Field, err)
		return
	}

	api.WriteData(w, http.StatusOK, sess.View())
}

// ReplaceCart handles PUT /sessions/{id}/cart
func (h *Handler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CartRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.WriteDecodeError(w, err)
		return
	}

	sess.SetCart(toLines(req.Items))
	api.WriteData(w, http.StatusOK, sess.View())
}

// Next handles POST /sessions/{id}/next
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Next(); err != nil {
		writeError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, sess.View())
}

// Prev handles POST /sessions/{id}/prev
func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Prev()
	api.WriteData(w, http.StatusOK, sess.View())
}

// Jump handles POST /sessions/{id}/jump
func (h *Handler) Jump(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req JumpRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.WriteDecodeError(w, err)
		return
	}

	if err := sess.JumpTo(domain.Step(*req.Step)); err != nil {
		writeError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, sess.View())
}

// TypeCoupon handles PUT /sessions/{id}/coupon
func (h *Handler) TypeCoupon(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CouponRequest
	if err := api.DecodeAndValidate(r, &req); err != nil {
		api.WriteDecodeError(w, err)
		return
	}

	sess.SetCouponCode(req.Code)
	api.WriteData(w, http.StatusOK, sess.Coupon())
}

// ApplyCoupon handles POST /sessions/{id}/coupon/apply
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.ApplyCoupon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, st)
}

// Autofill handles POST /sessions/{id}/autofill
func (h *Handler) Autofill(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Unauthorized(w, "sign in to autofill checkout")
		return
	}

	sess, err := h.service.Autofill(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, sess.View())
}

// Submit handles POST /sessions/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	placement, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteData(w, http.StatusCreated, placement)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sess, err := h.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func writeFieldError(w http.ResponseWriter, field string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownField):
		api.BadRequest(w, "unknown field "+field)
	case errors.Is(err, domain.ErrReadOnlyField),
		errors.Is(err, domain.ErrUnknownProvince),
		errors.Is(err, domain.ErrDistrictMismatch),
		errors.Is(err, domain.ErrInvalidOption):
		api.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, api.ErrCodeInvalidField,
			"Invalid field value", map[string]string{field: fieldMessage(err)})
	default:
		api.InternalError(w, "failed to update field")
	}
}

func fieldMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrReadOnlyField):
		return "This field cannot be changed"
	case errors.Is(err, domain.ErrUnknownProvince):
		return "Unknown province"
	case errors.Is(err, domain.ErrDistrictMismatch):
		return "District does not belong to the selected province"
	default:
		return "Invalid option"
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	var subErr *checkout.SubmitError

	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		api.NotFound(w, "checkout session not found")
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, string(f))
		}
		api.ValidationDetails(w, "Please correct the highlighted fields", fields)
	case errors.Is(err, checkout.ErrInvalidStep):
		api.BadRequest(w, "step must be between 0 and 2")
	case errors.Is(err, checkout.ErrCartEmpty):
		api.WriteError(w, http.StatusUnprocessableEntity, api.ErrCodeCartEmpty, "Your cart is empty")
	case errors.Is(err, coupon.ErrCodeRequired):
		api.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, api.ErrCodeValidation,
			"Enter a coupon code", map[string]string{"code": "This field is required"})
	case errors.Is(err, checkout.ErrNotOnFinalStep),
		errors.Is(err, checkout.ErrCouponUnavailable),
		errors.Is(err, checkout.ErrSubmissionInProgress):
		api.Conflict(w, err.Error())
	case errors.As(err, &subErr):
		api.BadGateway(w, api.ErrCodeOrderFailed, subErr.Message)
	default:
		api.InternalError(w, "internal error")
	}
}
