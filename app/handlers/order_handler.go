package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type OrderHandler struct {
	render    *render.Render
	checkout  *services.CheckoutService
	payments  *services.PaymentService
	validator *validator.Validate
}

func NewOrderHandler(r *render.Render, checkout *services.CheckoutService, payments *services.PaymentService, validator *validator.Validate) *OrderHandler {
	return &OrderHandler{render: r, checkout: checkout, payments: payments, validator: validator}
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, order *models.Order, err error) {
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, services.NewOrderView(order))
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Create(r.Context(), ownerOf(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) Active(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Active(r.Context(), ownerOf(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Pending(r.Context(), ownerOf(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.checkout.List(r.Context(), userIDOf(r))
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, services.NewOrderViews(orders))
}

func (h *OrderHandler) UpdateActive(w http.ResponseWriter, r *http.Request) {
	var in services.ActiveUpdate
	if !DecodeAndValidate(h.render, nil, w, r, &in) {
		return
	}
	order, err := h.checkout.UpdateActive(r.Context(), ownerOf(r), in)
	h.respond(w, r, order, err)
}

func (h *OrderHandler) ToPending(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.ToPending(r.Context(), ownerOf(r))
	if err == nil {
		zap.L().Info("OrderHandler.ToPending: order placed", zap.String("order_id", order.ID))
	}
	h.respond(w, r, order, err)
}

func (h *OrderHandler) CreatePrivateInfo(w http.ResponseWriter, r *http.Request) {
	var info models.OrderPrivateInfo
	if !DecodeAndValidate(h.render, nil, w, r, &info) {
		return
	}
	order, err := h.checkout.CreatePrivateInfo(r.Context(), ownerOf(r), &info)
	h.respond(w, r, order, err)
}

// The update handlers decode the body over the stored record, so absent
// fields keep their values.

func (h *OrderHandler) UpdatePrivateInfo(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.UpdatePrivateInfo(r.Context(), ownerOf(r), func(info *models.OrderPrivateInfo) error {
		return helpers.DecodeJSON(r, info)
	})
	h.respond(w, r, order, err)
}

func (h *OrderHandler) CreateDeliveryInfo(w http.ResponseWriter, r *http.Request) {
	var info models.OrderDeliveryInfo
	if !DecodeAndValidate(h.render, nil, w, r, &info) {
		return
	}
	order, err := h.checkout.CreateDeliveryInfo(r.Context(), ownerOf(r), &info)
	h.respond(w, r, order, err)
}

func (h *OrderHandler) UpdateDeliveryInfo(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.UpdateDeliveryInfo(r.Context(), ownerOf(r), func(info *models.OrderDeliveryInfo) error {
		return helpers.DecodeJSON(r, info)
	})
	h.respond(w, r, order, err)
}

func (h *OrderHandler) CreatePaymentInfo(w http.ResponseWriter, r *http.Request) {
	var info models.OrderPaymentInfo
	if !DecodeAndValidate(h.render, nil, w, r, &info) {
		return
	}
	info.B2P = nil
	order, err := h.checkout.CreatePaymentInfo(r.Context(), ownerOf(r), &info)
	h.respond(w, r, order, err)
}

func (h *OrderHandler) UpdatePaymentInfo(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.UpdatePaymentInfo(r.Context(), ownerOf(r), func(info *models.OrderPaymentInfo) error {
		b2p := info.B2P
		if err := helpers.DecodeJSON(r, info); err != nil {
			return err
		}
		info.B2P = b2p
		return nil
	})
	h.respond(w, r, order, err)
}

// PaymentRedirect registers the order with the card gateway. With ?follow=1
// the client is redirected straight to the card form.
func (h *OrderHandler) PaymentRedirect(w http.ResponseWriter, r *http.Request) {
	link, err := h.payments.RedirectURL(r.Context(), ownerOf(r), mux.Vars(r)["id"])
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	if r.URL.Query().Get("follow") == "1" {
		http.Redirect(w, r, link, http.StatusFound)
		return
	}
	h.render.JSON(w, http.StatusOK, map[string]interface{}{"redirect_url": link})
}

func (h *OrderHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	var in services.StatusUpdate
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	b2p, err := h.payments.UpdateStatus(r.Context(), ownerOf(r), mux.Vars(r)["id"], in)
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, b2p)
}
