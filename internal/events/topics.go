package events

// Topics emitted over the order lifecycle.
const (
	TopicOrderCreated    = "order.created"
	TopicOrderPaid       = "order.paid"
	TopicOrderDispatched = "order.dispatched"
	TopicOrderDelivered  = "order.delivered"
	TopicOrderCancelled  = "order.cancelled"
	TopicPaymentFailed   = "payment.failed"
)
