package notify

import (
	"context"
	"errors"
	"testing"

	"partyfantasy-be/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (s *captureSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

func header(t *testing.T, m *gomail.Message, key string) string {
	t.Helper()
	values := m.GetHeader(key)
	require.Len(t, values, 1)
	return values[0]
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func paidOrder() *order.Order {
	return &order.Order{
		Reference:   "ABCDEF0123456789ABCDEF0123456789",
		FullName:    "Jane Moyo",
		Phone:       "0771234567",
		Email:       "jane@example.com",
		Subtotal:    dec("50"),
		DeliveryFee: dec("5"),
		Total:       dec("55"),
		Status:      order.StatusPaid,
		Items: []order.OrderItem{
			{ProductName: "Party pack", Qty: 2, UnitPrice: dec("25"), LineTotal: dec("50")},
		},
	}
}

func TestMailer_OrderPaid(t *testing.T) {
	t.Run("AdminAndCustomer", func(t *testing.T) {
		snd := &captureSender{}
		m := &Mailer{sender: snd, fromEmail: "shop@partyfantasy.co.zw", adminEmail: "owner@partyfantasy.co.zw"}

		m.OrderPaid(context.Background(), paidOrder())

		require.Len(t, snd.messages, 2)

		admin := snd.messages[0]
		assert.Equal(t, "owner@partyfantasy.co.zw", header(t, admin, "To"))
		assert.Contains(t, header(t, admin, "Subject"), "Order paid")
		assert.Contains(t, header(t, admin, "Subject"), "ABCDEF0123456789ABCDEF0123456789")

		customer := snd.messages[1]
		assert.Equal(t, "jane@example.com", header(t, customer, "To"))
		assert.Equal(t, "shop@partyfantasy.co.zw", header(t, customer, "From"))
		assert.Contains(t, header(t, customer, "Subject"), "Order confirmed")
	})

	t.Run("NoCustomerEmailStillNotifiesAdmin", func(t *testing.T) {
		snd := &captureSender{}
		m := &Mailer{sender: snd, fromEmail: "shop@partyfantasy.co.zw", adminEmail: "owner@partyfantasy.co.zw"}

		o := paidOrder()
		o.Email = ""
		m.OrderPaid(context.Background(), o)

		require.Len(t, snd.messages, 1)
		assert.Equal(t, "owner@partyfantasy.co.zw", header(t, snd.messages[0], "To"))
	})

	t.Run("TransportErrorSwallowed", func(t *testing.T) {
		snd := &captureSender{err: errors.New("dial tcp: connection refused")}
		m := &Mailer{sender: snd, fromEmail: "shop@partyfantasy.co.zw", adminEmail: "owner@partyfantasy.co.zw"}

		assert.NotPanics(t, func() {
			m.OrderPaid(context.Background(), paidOrder())
		})
	})
}

func TestMailer_OrderFailed(t *testing.T) {
	t.Run("CustomerOnly", func(t *testing.T) {
		snd := &captureSender{}
		m := &Mailer{sender: snd, fromEmail: "shop@partyfantasy.co.zw", adminEmail: "owner@partyfantasy.co.zw"}

		m.OrderFailed(context.Background(), paidOrder())

		require.Len(t, snd.messages, 1)
		msg := snd.messages[0]
		assert.Equal(t, "jane@example.com", header(t, msg, "To"))
		assert.Contains(t, header(t, msg, "Subject"), "Payment not completed")
	})

	t.Run("SkippedWithoutEmail", func(t *testing.T) {
		snd := &captureSender{}
		m := &Mailer{sender: snd, fromEmail: "shop@partyfantasy.co.zw", adminEmail: "owner@partyfantasy.co.zw"}

		o := paidOrder()
		o.Email = "  "
		m.OrderFailed(context.Background(), o)

		assert.Empty(t, snd.messages)
	})
}

func TestMailBodies(t *testing.T) {
	o := paidOrder()

	t.Run("AdminPaid", func(t *testing.T) {
		body := adminPaidBody(o)
		assert.Contains(t, body, "Order reference: ABCDEF0123456789ABCDEF0123456789")
		assert.Contains(t, body, "Name: Jane Moyo")
		assert.Contains(t, body, "Party pack x 2 @ $ 25.00 = $ 50.00")
		assert.Contains(t, body, "Total: $ 55.00")
		assert.Contains(t, body, "[PAID]")
		// optional fields fall back to a dash
		assert.Contains(t, body, "Theme: -")
		assert.Contains(t, body, "Age: -")
	})

	t.Run("CustomerPaid", func(t *testing.T) {
		body := customerPaidBody(o)
		assert.Contains(t, body, "Dear Jane Moyo,")
		assert.Contains(t, body, "your order is confirmed")
		assert.Contains(t, body, "Total:       $ 55.00")
	})

	t.Run("CustomerFailed", func(t *testing.T) {
		body := customerFailedBody(o)
		assert.Contains(t, body, "could not be completed")
		assert.Contains(t, body, "No charges have been made")
		assert.Contains(t, body, o.Reference)
	})

	t.Run("MissingNameFallsBack", func(t *testing.T) {
		anon := paidOrder()
		anon.FullName = " "
		assert.Contains(t, customerPaidBody(anon), "Dear there,")
	})
}

func TestNop(t *testing.T) {
	var d Dispatcher = Nop{}
	assert.NotPanics(t, func() {
		d.OrderPaid(context.Background(), paidOrder())
		d.OrderFailed(context.Background(), paidOrder())
	})
}
