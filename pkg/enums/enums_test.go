package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("out_for_delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusOutForDelivery {
		t.Fatalf("unexpected status %s", status)
	}

	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() {
		t.Fatal("delivered should be terminal")
	}
	if !OrderStatusCancelled.IsTerminal() {
		t.Fatal("cancelled should be terminal")
	}
	if OrderStatusReady.IsTerminal() {
		t.Fatal("ready should not be terminal")
	}
}

func TestPaymentMethodGateway(t *testing.T) {
	if !PaymentMethodRazorpay.IsGateway() {
		t.Fatal("razorpay should be a gateway method")
	}
	if PaymentMethodCOD.IsGateway() || PaymentMethodUPI.IsGateway() {
		t.Fatal("cod/upi must not be gateway methods")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("upi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != PaymentMethodUPI {
		t.Fatalf("unexpected method %s", method)
	}
	if _, err := ParsePaymentMethod("card"); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}

func TestParseDueStatus(t *testing.T) {
	status, err := ParseDueStatus("partial")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != DueStatusPartial {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseDueStatus("settledish"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
