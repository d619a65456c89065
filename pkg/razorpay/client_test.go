package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAcceptsValid(t *testing.T) {
	secret := "gateway-secret"
	sig := signPayload(secret, "order_abc", "pay_xyz")
	if !VerifySignature(secret, "order_abc", "pay_xyz", sig) {
		t.Fatal("valid signature rejected")
	}
}

func TestVerifySignatureRejectsBitFlip(t *testing.T) {
	secret := "gateway-secret"
	sig := signPayload(secret, "order_abc", "pay_xyz")

	flipped := []byte(sig)
	// Flip one bit in the first hex character.
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	if VerifySignature(secret, "order_abc", "pay_xyz", string(flipped)) {
		t.Fatal("altered signature accepted")
	}
}

func TestVerifySignatureRejectsSwappedConcatenation(t *testing.T) {
	secret := "gateway-secret"
	sig := signPayload(secret, "pay_xyz", "order_abc")
	if VerifySignature(secret, "order_abc", "pay_xyz", sig) {
		t.Fatal("signature over swapped fields accepted")
	}
}

func TestVerifySignatureRejectsEmptyInputs(t *testing.T) {
	if VerifySignature("", "order_abc", "pay_xyz", "deadbeef") {
		t.Fatal("empty secret accepted")
	}
	if VerifySignature("s", "order_abc", "pay_xyz", "") {
		t.Fatal("empty signature accepted")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(testConfig("", "")); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := New(testConfig("key", "secret")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
