package httpapi

import (
	"html/template"
	"net/http"

	"partyfantasy-be/internal/order"
)

// Minimal server-rendered state page. The storefront proper renders its own
// UI; this exists so the payment flow is usable standalone.
var statusTmpl = template.Must(template.New("status").Parse(`<!doctype html>
<html>
<head><title>Order {{.Order.Reference}}</title></head>
<body>
  <h1>Order {{.Order.Reference}}</h1>
  {{if .Flash}}<p class="error">{{.Flash}}</p>{{end}}
  {{if .Paid}}
    <p>Payment received. Thank you for your order.</p>
  {{else if .Failed}}
    <p>Payment was not completed. You can try again below.</p>
  {{else}}
    <p>Status: {{.Order.Status}}</p>
    {{if .Order.RedirectURL}}<p><a href="{{.Order.RedirectURL}}">Pay now</a></p>{{end}}
  {{end}}
  <p>Total: $ {{.Total}}</p>
  {{if not .Paid}}
  <form method="post" action="/payments/{{.Order.Reference}}">
    <button type="submit">Check payment status</button>
  </form>
  <form method="post" action="/payments/{{.Order.Reference}}/mobile">
    <input type="tel" name="phone" placeholder="EcoCash number">
    <button type="submit">Pay with EcoCash</button>
  </form>
  {{end}}
</body>
</html>
`))

type statusPageData struct {
	Order  *order.Order
	Flash  string
	Paid   bool
	Failed bool
	Total  string
}

func (h *Handler) renderStatus(w http.ResponseWriter, o *order.Order, flash string) {
	data := statusPageData{
		Order:  o,
		Flash:  flash,
		Paid:   o.Status == order.StatusPaid,
		Failed: o.Status == order.StatusFailed,
		Total:  o.Total.StringFixed(2),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTmpl.Execute(w, data); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
