package order

// Status is the fulfilment state of an order. The underscore wire values are
// load-bearing: stored rows and notification templates reference them.
type Status string

const (
	StatusPendingPayment  Status = "Pending_Payment"
	StatusPaymentReceived Status = "Payment_Received"
	StatusPacked          Status = "Packed"
	StatusShipped         Status = "Shipped"
	StatusDelivered       Status = "Delivered"
	StatusCancelled       Status = "Cancelled"
)

// Payment status values.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
	PaymentFailed  = "Failed"
)

// Payment method values.
const (
	MethodCOD    = "cod"
	MethodOnline = "online"
)

var statusRank = map[Status]int{
	StatusPendingPayment:  1,
	StatusPaymentReceived: 2,
	StatusPacked:          3,
	StatusShipped:         4,
	StatusDelivered:       5,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an admin may move an order from one status to
// another. Fulfilment moves forward only; cancellation is allowed from any
// state before delivery.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return from != StatusDelivered
	}
	return statusRank[to] > statusRank[from]
}
