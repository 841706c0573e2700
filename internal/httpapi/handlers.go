package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"partyfantasy-be/internal/logger"
	"partyfantasy-be/internal/order"
	"partyfantasy-be/internal/paynow"
	"partyfantasy-be/internal/reconcile"
	"partyfantasy-be/internal/utils"

	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sessionName = "pf_session"
const mobileErrorFlash = "ecocash_error"

// Handler wires the four reconciliation entry points plus the checkout
// collaborator boundary. Every status mutation goes through the engine.
type Handler struct {
	Orders  order.Service
	Engine  *reconcile.Engine
	Gateway paynow.Gateway
	store   *sessions.CookieStore
}

func NewHandler(orders order.Service, engine *reconcile.Engine, gateway paynow.Gateway, sessionSecret string) *Handler {
	return &Handler{
		Orders:  orders,
		Engine:  engine,
		Gateway: gateway,
		store:   sessions.NewCookieStore([]byte(sessionSecret)),
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /paynow/result", h.PaynowResult)
	mux.HandleFunc("GET /payments/{reference}", h.StatusPage)
	mux.HandleFunc("POST /payments/{reference}", h.Repoll)
	mux.HandleFunc("POST /payments/{reference}/mobile", h.StartMobile)
	mux.HandleFunc("GET /api/payments/{reference}", h.StatusJSON)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /payment/return", h.PaymentReturn)
	mux.HandleFunc("GET /internal/stats", h.InternalStats)
}

// InternalStats dumps the reconciliation counters for ops tooling.
func (h *Handler) InternalStats(w http.ResponseWriter, r *http.Request) {
	stats := h.Engine.Stats()
	utils.WriteJSON(w, http.StatusOK, map[string]uint64{
		"polls":         stats.Polls.Load(),
		"poll_failures": stats.PollFailures.Load(),
		"paid_edges":    stats.PaidEdges.Load(),
		"failed_edges":  stats.FailedEdges.Load(),
	})
}

// PaynowResult is the provider's server-to-server callback. Once the
// payload is authentic and carries a reference we always answer 200,
// whatever the reconcile outcome, so the provider does not retry-storm us.
func (h *Handler) PaynowResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed payload", http.StatusBadRequest)
		return
	}

	reference := r.PostForm.Get("reference")
	if reference == "" {
		http.Error(w, "Missing reference", http.StatusBadRequest)
		return
	}

	if !h.Gateway.Configured() {
		fmt.Fprint(w, "OK")
		return
	}

	if err := h.Gateway.VerifyResult(r.PostForm); err != nil {
		logger.FromCtx(r.Context()).Warn("rejected paynow result",
			zap.String("reference", reference),
			zap.Error(err),
		)
		http.Error(w, "Invalid hash", http.StatusBadRequest)
		return
	}

	if _, err := h.Engine.Reconcile(r.Context(), reference); err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		logger.FromCtx(r.Context()).Error("webhook reconcile failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
	}

	fmt.Fprint(w, "OK")
}

// StatusPage performs one reconciliation pass and renders the current
// state. The mobile-payment error flash is shown once, then cleared.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	outcome, err := h.Engine.Reconcile(r.Context(), reference)
	if errors.Is(err, order.ErrOrderNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Could not check payment status", http.StatusInternalServerError)
		return
	}

	flash := ""
	if session, sErr := h.store.Get(r, sessionName); sErr == nil {
		if msgs := session.Flashes(mobileErrorFlash); len(msgs) > 0 {
			if s, ok := msgs[0].(string); ok {
				flash = s
			}
		}
		_ = session.Save(r, w)
	}

	h.renderStatus(w, outcome.Order, flash)
}

// Repoll re-runs reconciliation on user demand and bounces back to the
// status page.
func (h *Handler) Repoll(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	if _, err := h.Engine.Reconcile(r.Context(), reference); errors.Is(err, order.ErrOrderNotFound) {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/payments/"+reference, http.StatusSeeOther)
}

// StatusJSON is the machine-readable poll endpoint.
func (h *Handler) StatusJSON(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	outcome, err := h.Engine.Reconcile(r.Context(), reference)
	if errors.Is(err, order.ErrOrderNotFound) {
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "could not check payment status", http.StatusInternalServerError)
		return
	}

	status := outcome.Order.Status
	message := "Pending"
	switch status {
	case order.StatusPaid:
		message = "Paid"
	case order.StatusFailed:
		message = "Failed or cancelled"
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  string(status),
		"paid":    status == order.StatusPaid,
		"message": message,
	})
}

// StartMobile triggers the mobile-money push. A decline is surfaced on the
// next status page render via a single-read session flash.
func (h *Handler) StartMobile(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed payload", http.StatusBadRequest)
		return
	}

	phone := utils.NormalizePhoneZW(r.PostForm.Get("phone"))
	if phone == "" {
		http.Redirect(w, r, "/payments/"+reference, http.StatusSeeOther)
		return
	}

	start, err := h.Engine.StartMobile(r.Context(), reference, phone)
	if errors.Is(err, order.ErrOrderNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err != nil || !start.OK {
		msg := "Could not start EcoCash payment. Check the phone number and try again."
		if err == nil && start.Message != "" {
			msg = start.Message
		}
		h.setFlash(w, r, msg)
	}

	http.Redirect(w, r, "/payments/"+reference, http.StatusSeeOther)
}

// PaymentReturn handles the browser redirect back from the provider. The
// reference travels in the query under a few historical spellings.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("Reference")
	}
	if reference == "" {
		reference = q.Get("ref")
	}

	if reference == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/payments/"+reference, http.StatusSeeOther)
}

type checkoutItemRequest struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
	UnitPrice   string `json:"unit_price"`
}

type checkoutRequest struct {
	FullName        string                `json:"full_name"`
	Phone           string                `json:"phone"`
	Email           string                `json:"email"`
	Theme           string                `json:"theme"`
	ChildName       string                `json:"child_name"`
	Age             *int                  `json:"age"`
	CollectionDate  string                `json:"collection_date"`
	ToyPreference   string                `json:"toy_preference"`
	DeliveryMethod  string                `json:"delivery_method"`
	DeliveryAddress string                `json:"delivery_address"`
	Items           []checkoutItemRequest `json:"items"`
}

// Checkout is the narrow boundary for the cart collaborator: it snapshots
// a finalized cart into a CREATED order and attempts the redirect flow.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	input := order.CheckoutInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Email:           req.Email,
		Theme:           req.Theme,
		ChildName:       req.ChildName,
		Age:             req.Age,
		ToyPreference:   req.ToyPreference,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: req.DeliveryAddress,
	}

	if req.CollectionDate != "" {
		d, err := time.Parse("2006-01-02", req.CollectionDate)
		if err != nil {
			utils.WriteJSONError(w, "invalid collection_date", http.StatusBadRequest)
			return
		}
		input.CollectionDate = &d
	}

	for _, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			utils.WriteJSONError(w, fmt.Sprintf("invalid unit_price %q", item.UnitPrice), http.StatusBadRequest)
			return
		}
		input.Items = append(input.Items, order.CheckoutItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Qty:         item.Qty,
			UnitPrice:   price,
		})
	}

	o, err := h.Orders.Checkout(r.Context(), input)
	if errors.Is(err, order.ErrEmptyOrder) || errors.Is(err, order.ErrInvalidQuantity) {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "could not create order", http.StatusInternalServerError)
		return
	}

	// Payment initiation failure is not a checkout failure: the order
	// exists and can be paid from the status page later.
	redirectURL, payErr := h.Engine.StartRedirect(r.Context(), o.Reference)
	if payErr != nil {
		logger.FromCtx(r.Context()).Warn("redirect payment initiation failed",
			zap.String("reference", o.Reference),
			zap.Error(payErr),
		)
	}

	latest, err := h.Orders.GetByReference(r.Context(), o.Reference)
	if err == nil {
		o = latest
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"reference":    o.Reference,
		"status":       string(o.Status),
		"total":        o.Total.StringFixed(2),
		"redirect_url": redirectURL,
	})
}

func (h *Handler) setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	session, err := h.store.Get(r, sessionName)
	if err != nil {
		return
	}
	session.AddFlash(msg, mobileErrorFlash)
	_ = session.Save(r, w)
}
