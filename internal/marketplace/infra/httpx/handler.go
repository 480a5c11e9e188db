package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/app"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/infra/httpx/middlewares"
)

// Handler adapts the marketplace services to HTTP.
type Handler struct {
	carts     *app.CartService
	checkout  *app.CheckoutService
	lifecycle *app.LifecycleService
	query     *app.QueryService
}

func NewHandler(
	carts *app.CartService,
	checkout *app.CheckoutService,
	lifecycle *app.LifecycleService,
	query *app.QueryService,
) *Handler {
	return &Handler{carts: carts, checkout: checkout, lifecycle: lifecycle, query: query}
}

// --- cart ---

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if !decode(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cart, err := h.carts.AddItem(r.Context(), middlewares.ActorFrom(r.Context()), req.ItemID, qty)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), middlewares.ActorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req RemoveFromCartRequest
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.carts.RemoveItem(r.Context(), middlewares.ActorFrom(r.Context()), req.ItemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// --- orders: customer ---

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.checkout.CreateOrder(r.Context(), middlewares.ActorFrom(r.Context()), req.toDetails())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.query.CustomerOrders(r.Context(), middlewares.ActorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.query.GetOrder(r.Context(), middlewares.ActorFrom(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lifecycle.Cancel(r.Context(), middlewares.ActorFrom(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// --- orders: chef ---

func (h *Handler) ChefOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.query.ChefOrders(r.Context(), middlewares.ActorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) ChefUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.lifecycle.ChefUpdate(r.Context(), middlewares.ActorFrom(r.Context()),
		chi.URLParam(r, "orderId"), domain.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// --- admin ---

func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.query.AdminOrders(r.Context(), middlewares.ActorFrom(r.Context()), app.AdminFilter{
		Status:    q.Get("status"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.lifecycle.AdminUpdate(r.Context(), middlewares.ActorFrom(r.Context()),
		chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.query.Dashboard(r.Context(), middlewares.ActorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.query.History(r.Context(), middlewares.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v and writes a 400 on failure. An empty body
// decodes to the zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, string(domain.KindValidation), "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
