package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"paynetgw/internal/checkout"
	"paynetgw/internal/logger"
	"paynetgw/internal/order"
	"paynetgw/internal/paynet"
	"paynetgw/internal/reconcile"

	"go.uber.org/zap"
)

const (
	cartPath      = "/checkout/cart"
	orderViewPath = "/sales/order/view/"
	guestFormPath = "/sales/guest/form"
)

// Reconciler is the engine surface the handlers drive.
type Reconciler interface {
	Reconcile(ctx context.Context, orderID string) (*reconcile.Outcome, error)
	Cancel(ctx context.Context, orderID, comment string) error
}

// Handler is the boundary translator: it turns engine results and the
// error taxonomy into user-facing redirects and messages.
type Handler struct {
	store        order.Store
	checkout     checkout.Service
	engine       Reconciler
	threeDSecure bool
}

func New(store order.Store, checkoutSvc checkout.Service, engine Reconciler, threeDSecure bool) *Handler {
	return &Handler{
		store:        store,
		checkout:     checkoutSvc,
		engine:       engine,
		threeDSecure: threeDSecure,
	}
}

// Redirect handles the proceed-to-payment trigger from the checkout. The
// storefront supplies the id of the order just placed; the response is the
// gateway URL to send the customer to.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	orderID := r.FormValue("orderId")
	if orderID == "" {
		h.writeJSONError(w, http.StatusBadRequest, "Order ID not found.")
		return
	}

	o, err := h.store.Load(r.Context(), orderID)
	if err != nil {
		h.translateJSON(w, orderID, err)
		return
	}

	target, err := h.checkout.InitiateCheckout(r.Context(), o, nil)
	if err != nil {
		h.translateJSON(w, orderID, err)
		return
	}

	// Storefronts that cannot follow a JSON response can ask for a
	// self-submitting HTML document instead.
	if r.FormValue("render") == "form" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(paynet.AutoSubmitForm(target, nil)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"url": target})
}

// HandleResponse is the local return endpoint the gateway redirects the
// customer back to, and the target of its server callback. Success sends
// the browser to the order view (or the guest lookup when unauthenticated);
// failure sends it back to the cart with a message. In 3-D Secure
// passthrough mode the raw challenge fragment is written instead of any
// redirect.
func (h *Handler) HandleResponse(w http.ResponseWriter, r *http.Request) {
	orderID := r.FormValue("orderId")
	if orderID == "" {
		orderID = r.FormValue("client_orderid")
	}
	if orderID == "" {
		h.redirectToCart(w, r, "Payment failed. Order ID not found.")
		return
	}

	out, err := h.engine.Reconcile(r.Context(), orderID)
	if err != nil {
		logger.L().Error("return handling failed",
			zap.String("order_id", orderID),
			zap.String("message", err.Error()),
			zap.Error(err),
		)
		h.redirectToCart(w, r, "Payment failed. "+userMessage(err))
		return
	}

	if h.threeDSecure && out.ChallengeHTML != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(out.ChallengeHTML))
		return
	}

	switch {
	case out.State == order.StateComplete:
		if h.isLoggedIn(r) {
			http.Redirect(w, r, orderViewPath+url.PathEscape(orderID), http.StatusFound)
		} else {
			http.Redirect(w, r, guestFormPath, http.StatusFound)
		}
	case out.Status == paynet.StatusPending:
		h.redirectToCart(w, r, "Payment has not been completed yet.")
	default:
		h.redirectToCart(w, r, "Payment failed. Payment status is not Approved.")
	}
}

// Cancel is the merchant-triggered cancellation endpoint.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	orderID := r.FormValue("orderId")
	comment := r.FormValue("comment")
	if comment == "" {
		comment = "Order cancel"
	}

	if err := h.engine.Cancel(r.Context(), orderID, comment); err != nil {
		h.translateJSON(w, orderID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
}

func (h *Handler) redirectToCart(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, cartPath+"?message="+url.QueryEscape(message), http.StatusFound)
}

func (h *Handler) isLoggedIn(r *http.Request) bool {
	// Session management is owned by the storefront; it marks
	// authenticated browsers with this cookie.
	c, err := r.Cookie("customer_session")
	return err == nil && c.Value != ""
}

func (h *Handler) translateJSON(w http.ResponseWriter, orderID string, err error) {
	logger.L().Error("payment operation failed",
		zap.String("order_id", orderID),
		zap.String("message", err.Error()),
		zap.Error(err),
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrOrderIDMissing):
		status = http.StatusNotFound
	case errors.Is(err, order.ErrUnsupportedMethod), errors.Is(err, order.ErrNotCancelable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, paynet.ErrUnreachable):
		status = http.StatusBadGateway
	case errors.Is(err, paynet.ErrProtocol), errors.Is(err, paynet.ErrIncomplete):
		status = http.StatusBadGateway
	}

	h.writeJSONError(w, status, userMessage(err))
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    message,
		"redirect": cartPath,
	})
}

// userMessage maps the error taxonomy onto messages safe to show a
// customer. Transport details stay in the logs.
func userMessage(err error) string {
	switch {
	case errors.Is(err, order.ErrOrderIDMissing):
		return "Order ID not found."
	case errors.Is(err, order.ErrOrderNotFound):
		return "This order does not exist."
	case errors.Is(err, order.ErrUnsupportedMethod):
		return "Unknown payment method."
	case errors.Is(err, order.ErrNotCancelable):
		return "This order cannot be canceled."
	case errors.Is(err, paynet.ErrUnreachable):
		return "The payment service is temporarily unavailable."
	case errors.Is(err, paynet.ErrIncomplete):
		return "No information about payment status."
	case errors.Is(err, paynet.ErrProtocol):
		return "The payment service returned an unexpected response."
	default:
		return "Payment could not be processed."
	}
}
