package paynow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"partyfantasy-be/internal/config"
	"partyfantasy-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	paynowBaseURL     = "https://www.paynow.co.zw"
	initiatePath      = "/interface/initiatetransaction"
	remotePath        = "/interface/remotetransaction"
	mobileMethodEco   = "ecocash"
	statusOk          = "Ok"
	statusError       = "Error"
	statusPaid        = "Paid"
	additionalInfo    = "Order"
	transactionStatus = "Message"
)

// A stuck poll must fail closed, not hang; the transport sets the upper
// bound on every gateway round trip.
const requestTimeout = 10 * time.Second

type paynowGateway struct {
	integrationID  string
	integrationKey string
	returnURL      string
	resultURL      string
	httpClient     *http.Client
}

func NewGateway(cfg *config.Config) Gateway {
	if !cfg.PaynowConfigured() {
		logger.L().Warn("Paynow not configured: missing env vars")
	}

	return &paynowGateway{
		integrationID:  cfg.PaynowIntegrationID,
		integrationKey: cfg.PaynowIntegrationKey,
		returnURL:      cfg.PaynowReturnURL,
		resultURL:      cfg.PaynowResultURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (g *paynowGateway) Configured() bool {
	return g.integrationID != "" && g.integrationKey != "" &&
		g.returnURL != "" && g.resultURL != ""
}

// initiateFieldOrder is the field order of an initiate request; the
// signature covers values in this exact order.
var initiateFieldOrder = []string{
	"resulturl", "returnurl", "reference", "amount",
	"id", "additionalinfo", "authemail", "status",
}

var remoteFieldOrder = []string{
	"resulturl", "returnurl", "reference", "amount",
	"id", "additionalinfo", "authemail", "phone", "method", "status",
}

func (g *paynowGateway) InitiateRedirect(ctx context.Context, orderRef string, amount decimal.Decimal, email string) (*RedirectResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_ref", orderRef),
		zap.String("amount", amount.String()),
	)

	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	if !amount.IsPositive() {
		log.Warn("Paynow amount must be greater than 0")
		return nil, ErrInvalidAmount
	}

	form := url.Values{}
	form.Set("resulturl", g.resultURL)
	form.Set("returnurl", g.returnURL)
	form.Set("reference", orderRef)
	form.Set("amount", amount.StringFixed(2))
	form.Set("id", g.integrationID)
	form.Set("additionalinfo", additionalInfo)
	form.Set("authemail", email)
	form.Set("status", transactionStatus)
	form.Set("hash", signValues(initiateFieldOrder, form, g.integrationKey))

	log.Info("Sending payment initiation to Paynow")

	values, err := g.post(ctx, paynowBaseURL+initiatePath, form)
	if err != nil {
		log.Warn("Paynow initiate failed", zap.Error(err))
		return nil, &GatewayError{Op: "initiate", Err: err}
	}

	if values.Get("status") != statusOk {
		errMsg := values.Get("error")
		log.Warn("Paynow response not success", zap.String("error", errMsg))
		return nil, &GatewayError{Op: "initiate", Err: fmt.Errorf("provider error: %s", errMsg)}
	}

	redirectURL := sanitizeRedirectURL(values.Get("browserurl"))
	if redirectURL == "" {
		log.Warn("Paynow response missing usable redirect url")
	}

	resp := &RedirectResponse{
		RedirectURL: redirectURL,
		PollURL:     values.Get("pollurl"),
	}

	log.Info("Paynow payment initiated",
		zap.Bool("has_redirect", resp.RedirectURL != ""),
		zap.Bool("has_poll_url", resp.PollURL != ""),
	)

	return resp, nil
}

func (g *paynowGateway) InitiateMobile(ctx context.Context, orderRef string, amount decimal.Decimal, email, phone string) (*MobileResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_ref", orderRef),
		zap.String("amount", amount.String()),
		zap.String("phone", phone),
	)

	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	if !amount.IsPositive() {
		log.Warn("Paynow amount must be greater than 0")
		return nil, ErrInvalidAmount
	}

	// Paynow requires an auth email for mobile transactions even for
	// guest checkouts.
	authEmail := strings.TrimSpace(email)
	if authEmail == "" {
		authEmail = fmt.Sprintf("guest+%s@partyfantasy.local", strings.ToLower(orderRef))
	}

	form := url.Values{}
	form.Set("resulturl", g.resultURL)
	form.Set("returnurl", g.returnURL)
	form.Set("reference", orderRef)
	form.Set("amount", amount.StringFixed(2))
	form.Set("id", g.integrationID)
	form.Set("additionalinfo", additionalInfo)
	form.Set("authemail", authEmail)
	form.Set("phone", strings.TrimSpace(phone))
	form.Set("method", mobileMethodEco)
	form.Set("status", transactionStatus)
	form.Set("hash", signValues(remoteFieldOrder, form, g.integrationKey))

	log.Info("Sending mobile payment initiation to Paynow")

	values, err := g.post(ctx, paynowBaseURL+remotePath, form)
	if err != nil {
		log.Warn("Paynow send_mobile failed", zap.Error(err))
		return nil, &GatewayError{Op: "initiate mobile", Err: err}
	}

	if values.Get("status") != statusOk {
		errMsg := values.Get("error")
		if errMsg == "" {
			errMsg = values.Get("status")
		}
		log.Warn("Paynow mobile response not success", zap.String("error", errMsg))
		if errMsg == "" || errMsg == statusError {
			return nil, &GatewayError{Op: "initiate mobile", Err: errors.New("provider rejected transaction")}
		}
		return nil, &ProviderDeclined{Message: errMsg}
	}

	resp := &MobileResponse{
		PollURL:         values.Get("pollurl"),
		PaynowReference: values.Get("paynowreference"),
		Instructions:    values.Get("instructions"),
	}

	log.Info("Paynow mobile payment initiated",
		zap.String("paynow_reference", resp.PaynowReference),
		zap.Bool("has_poll_url", resp.PollURL != ""),
	)

	return resp, nil
}

func (g *paynowGateway) PollStatus(ctx context.Context, pollURL string) (*PollResult, error) {
	if pollURL == "" {
		return nil, &GatewayError{Op: "poll", Err: errors.New("empty poll url")}
	}

	values, err := g.post(ctx, pollURL, url.Values{})
	if err != nil {
		return nil, &GatewayError{Op: "poll", Err: err}
	}

	status := values.Get("status")
	return &PollResult{
		Paid:   strings.EqualFold(status, statusPaid),
		Status: status,
	}, nil
}

func (g *paynowGateway) VerifyResult(values url.Values) error {
	return verifyResultHash(values, g.integrationKey)
}

// post sends a form-encoded request and parses the url-encoded reply.
func (g *paynowGateway) post(ctx context.Context, endpoint string, form url.Values) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paynow response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paynow returned status %d: %s", resp.StatusCode, string(body))
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse paynow response: %w", err)
	}

	return values, nil
}

// sanitizeRedirectURL keeps only non-empty absolute http(s) URLs; anything
// else is treated as no redirect at all.
func sanitizeRedirectURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return raw
}
