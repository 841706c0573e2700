package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"partyfantasy-be/internal/config"
	"partyfantasy-be/internal/logger"
	"partyfantasy-be/internal/order"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const shopName = "Party Fantasy ZW"

// sender abstracts gomail's dialer so tests can capture messages.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends order notifications over SMTP.
type Mailer struct {
	sender     sender
	fromEmail  string
	adminEmail string
}

func NewMailer(cfg *config.Config) *Mailer {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}

	return &Mailer{
		sender:     gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword),
		fromEmail:  cfg.FromEmail,
		adminEmail: cfg.AdminEmail,
	}
}

func (m *Mailer) OrderPaid(ctx context.Context, o *order.Order) {
	m.send(ctx, m.adminEmail,
		fmt.Sprintf("Order paid #%s – %s", o.Reference, shopName),
		adminPaidBody(o),
	)

	if customer := strings.TrimSpace(o.Email); customer != "" {
		m.send(ctx, customer,
			fmt.Sprintf("Order confirmed – #%s – %s", o.Reference, shopName),
			customerPaidBody(o),
		)
	}
}

func (m *Mailer) OrderFailed(ctx context.Context, o *order.Order) {
	customer := strings.TrimSpace(o.Email)
	if customer == "" {
		return
	}

	m.send(ctx, customer,
		fmt.Sprintf("Payment not completed – Order #%s – %s", o.Reference, shopName),
		customerFailedBody(o),
	)
}

// send swallows transport errors: a notification failure must never roll
// back or retry a status transition.
func (m *Mailer) send(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.fromEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		logger.FromCtx(ctx).Warn("failed to send notification email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func adminPaidBody(o *order.Order) string {
	email := o.Email
	if email == "" {
		email = "(not provided)"
	}

	lines := []string{
		fmt.Sprintf("Order reference: %s", o.Reference),
		fmt.Sprintf("Name: %s", o.FullName),
		fmt.Sprintf("Phone: %s", o.Phone),
		fmt.Sprintf("Email: %s", email),
		fmt.Sprintf("Theme: %s", orDash(o.Theme)),
		fmt.Sprintf("Child name: %s", orDash(o.ChildName)),
		fmt.Sprintf("Age: %s", ageOrDash(o)),
		fmt.Sprintf("Collection date: %s", collectionDateOrDash(o)),
		fmt.Sprintf("Toy preference: %s", orDash(o.ToyPreference)),
		fmt.Sprintf("Delivery: %s", orDash(o.DeliveryMethod)),
		fmt.Sprintf("Address: %s", orDash(o.DeliveryAddress)),
		"",
		"Items:",
	}
	lines = append(lines, itemLines(o)...)
	lines = append(lines,
		"",
		fmt.Sprintf("Subtotal: $ %s", o.Subtotal.StringFixed(2)),
		fmt.Sprintf("Delivery: $ %s", o.DeliveryFee.StringFixed(2)),
		fmt.Sprintf("Total: $ %s", o.Total.StringFixed(2)),
		"",
		"[PAID]",
	)
	return strings.Join(lines, "\n")
}

func customerPaidBody(o *order.Order) string {
	lines := []string{
		fmt.Sprintf("Order reference: %s", o.Reference),
		"",
		"Order summary:",
		fmt.Sprintf("  Subtotal:    $ %s", o.Subtotal.StringFixed(2)),
		fmt.Sprintf("  Delivery:    $ %s", o.DeliveryFee.StringFixed(2)),
		fmt.Sprintf("  Total:       $ %s", o.Total.StringFixed(2)),
		"",
		"Items:",
	}
	lines = append(lines, itemLines(o)...)
	summary := strings.Join(lines, "\n")

	return fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for your order. We have received your payment and your order is confirmed.\n\n"+
			"%s\n\n"+
			"We will be in touch regarding delivery or collection. "+
			"If you have any questions, please reply to this email or contact us. We are happy to help.\n\n"+
			"Best regards,\n"+
			"The %s Team",
		customerName(o), summary, shopName,
	)
}

func customerFailedBody(o *order.Order) string {
	return fmt.Sprintf(
		"Dear %s,\n\n"+
			"We are sorry, but the payment for your order could not be completed. "+
			"Your payment may have been cancelled or declined. No charges have been made to your account.\n\n"+
			"Order reference: %s\n\n"+
			"If you would like to complete your purchase, you can try again from the payment page or place a new order on our website. "+
			"If you need any assistance, please reply to this email or contact us. We are here to help.\n\n"+
			"Best regards,\n"+
			"The %s Team",
		customerName(o), o.Reference, shopName,
	)
}

func itemLines(o *order.Order) []string {
	lines := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("  - %s x %d @ $ %s = $ %s",
			item.ProductName, item.Qty,
			item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2),
		))
	}
	return lines
}

func customerName(o *order.Order) string {
	name := strings.TrimSpace(o.FullName)
	if name == "" {
		return "there"
	}
	return name
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func ageOrDash(o *order.Order) string {
	if o.Age == nil {
		return "-"
	}
	return strconv.Itoa(*o.Age)
}

func collectionDateOrDash(o *order.Order) string {
	if o.CollectionDate == nil {
		return "-"
	}
	return o.CollectionDate.Format("2006-01-02")
}
