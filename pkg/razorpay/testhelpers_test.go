package razorpay

import "github.com/unieats/unieats-backend/pkg/config"

func testConfig(keyID, secret string) config.RazorpayConfig {
	return config.RazorpayConfig{KeyID: keyID, KeySecret: secret, Currency: "INR"}
}
