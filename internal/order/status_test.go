package order

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPendingPayment, StatusPaymentReceived, StatusPacked, StatusShipped, StatusDelivered, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []Status{"", "pending_payment", "Refunded", "shipped"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingPayment, StatusPaymentReceived, true},
		{StatusPaymentReceived, StatusPacked, true},
		{StatusPacked, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPendingPayment, StatusShipped, true},
		{StatusPaymentReceived, StatusDelivered, true},

		{StatusPaymentReceived, StatusPendingPayment, false},
		{StatusShipped, StatusPacked, false},
		{StatusDelivered, StatusShipped, false},
		{StatusPacked, StatusPacked, false},

		{StatusPendingPayment, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPacked, false},
		{StatusCancelled, StatusCancelled, false},

		{Status("Refunded"), StatusPacked, false},
		{StatusPacked, Status("Refunded"), false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
