package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"github.com/unieats/unieats-backend/pkg/config"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

// RemoteOrder is the payment intent created on the gateway.
type RemoteOrder struct {
	ID       string
	Currency string
}

// Client wraps the Razorpay SDK for order-intent creation plus callback
// signature verification.
type Client struct {
	sdk *razorpay.Client
	cfg config.RazorpayConfig
}

// New builds a gateway client from configuration.
func New(cfg config.RazorpayConfig) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	return &Client{
		sdk: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		cfg: cfg,
	}, nil
}

// CreateOrder registers a payment intent on the gateway for the given amount.
// The SDK has no context support, so the configured timeout is enforced
// around the call.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*RemoteOrder, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway amount must be positive")
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	// Razorpay amounts are integer minor units (paise).
	data := map[string]interface{}{
		"amount":   amount.Shift(2).IntPart(),
		"currency": c.cfg.Currency,
		"receipt":  receipt,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		body, err := c.sdk.Order.Create(data, nil)
		resCh <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "gateway order creation timed out")
	case res := <-resCh:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "gateway order creation failed")
		}
		id, _ := res.body["id"].(string)
		if id == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no order id")
		}
		currency, _ := res.body["currency"].(string)
		if currency == "" {
			currency = c.cfg.Currency
		}
		return &RemoteOrder{ID: id, Currency: currency}, nil
	}
}

// VerifySignature checks the gateway callback signature.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(c.cfg.KeySecret, gatewayOrderID, paymentID, signature)
}

// VerifySignature recomputes the expected HMAC-SHA256 over
// "{gatewayOrderID}|{paymentID}" and compares it to the supplied signature
// byte for byte. The concatenation order is part of the gateway contract and
// must not change.
func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	if secret == "" || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
