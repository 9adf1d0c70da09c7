package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
)

type BasketHandler struct {
	render  *render.Render
	baskets *services.BasketService
}

func NewBasketHandler(r *render.Render, baskets *services.BasketService) *BasketHandler {
	return &BasketHandler{render: r, baskets: baskets}
}

type amountRequest struct {
	Amount *int `json:"amount"`
}

func (a amountRequest) value() int {
	if a.Amount == nil {
		return 1
	}
	return *a.Amount
}

func (h *BasketHandler) respond(w http.ResponseWriter, r *http.Request, view *services.BasketView, err error) {
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, view)
}

func (h *BasketHandler) Current(w http.ResponseWriter, r *http.Request) {
	view, err := h.baskets.Current(r.Context(), ownerOf(r))
	h.respond(w, r, view, err)
}

func (h *BasketHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in amountRequest
	if !DecodeAndValidate(h.render, nil, w, r, &in) {
		return
	}
	view, err := h.baskets.Add(r.Context(), ownerOf(r), mux.Vars(r)["id"], in.value())
	h.respond(w, r, view, err)
}

func (h *BasketHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in amountRequest
	if !DecodeAndValidate(h.render, nil, w, r, &in) {
		return
	}
	view, err := h.baskets.Update(r.Context(), ownerOf(r), mux.Vars(r)["id"], in.value())
	h.respond(w, r, view, err)
}

func (h *BasketHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.baskets.Remove(r.Context(), ownerOf(r), mux.Vars(r)["id"])
	h.respond(w, r, view, err)
}

func (h *BasketHandler) Inactivate(w http.ResponseWriter, r *http.Request) {
	view, err := h.baskets.Inactivate(r.Context(), ownerOf(r))
	h.respond(w, r, view, err)
}
