package admin

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"go.uber.org/zap"
)

func orderFilter(r *http.Request) repositories.OrderFilter {
	q := r.URL.Query()
	filter := repositories.OrderFilter{Status: q.Get("status")}
	for _, id := range strings.Split(q.Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			filter.IDs = append(filter.IDs, id)
		}
	}
	return filter
}

func (h *AdminHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), orderFilter(r))
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, services.NewOrderViews(orders))
}

func (h *AdminHandler) findOrder(w http.ResponseWriter, r *http.Request) *models.Order {
	order, err := h.orders.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return nil
	}
	if order == nil {
		handlers.WriteError(h.render, w, r, services.ErrOrderNotFound)
		return nil
	}
	return order
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if order := h.findOrder(w, r); order != nil {
		h.render.JSON(w, http.StatusOK, services.NewOrderView(order))
	}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	order := h.findOrder(w, r)
	if order == nil {
		return
	}

	var req orderStatusRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	known := false
	for _, s := range models.OrderStatuses {
		if s == req.Status {
			known = true
		}
	}
	if !known {
		handlers.WriteError(h.render, w, r, models.FieldErrors{"status": fmt.Sprintf("\"%s\" is not a valid choice.", req.Status)})
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), order.ID, req.Status); err != nil {
		zap.L().Error("AdminHandler.UpdateOrderStatus: failed to update status", zap.String("order_id", order.ID), zap.Error(err))
		handlers.WriteError(h.render, w, r, err)
		return
	}
	zap.L().Info("AdminHandler.UpdateOrderStatus: status changed",
		zap.String("order_id", order.ID), zap.String("from", order.Status), zap.String("to", req.Status))

	order.Status = req.Status
	h.render.JSON(w, http.StatusOK, services.NewOrderView(order))
}

// PrintOrder renders the order sheet handed to the warehouse.
func (h *AdminHandler) PrintOrder(w http.ResponseWriter, r *http.Request) {
	order := h.findOrder(w, r)
	if order == nil {
		return
	}
	h.render.HTML(w, http.StatusOK, "admin/order_print", map[string]interface{}{
		"Order":   services.NewOrderPrint(order),
		"AppURL":  h.appURL,
		"Printed": time.Now().Format("02.01.2006 15:04"),
	})
}

func (h *AdminHandler) ExportOrdersCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	if err := h.exchange.WriteOrdersCSV(r.Context(), w, orderFilter(r)); err != nil {
		zap.L().Error("AdminHandler.ExportOrdersCSV: export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}
