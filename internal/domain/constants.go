package domain

const (
	RoleClient = "CLIENT"
	RoleAdmin  = "ADMIN"
)

// Reservation lifecycle. Cancelled is only reachable through the cancel
// endpoint, never through a webhook.
const (
	ReservationPending       = "pending"
	ReservationPreauthorized = "preauthorized"
	ReservationConfirmed     = "confirmed"
	ReservationRejected      = "rejected"
	ReservationCancelled     = "cancelled"
)

const (
	PaymentPending       = "pending"
	PaymentPreauthorized = "preauthorized"
	PaymentPaid          = "paid"
	PaymentRejected      = "rejected"
)

// Audit event types.
const (
	EventPaymentRequestCreated = "payment_request_created"
	EventCaptureRequested      = "capture_requested"
	EventPaymentPreauthorized  = "payment_preauthorized"
	EventPaymentConfirmed      = "payment_confirmed"
	EventPaymentRejected       = "payment_rejected"
	EventWebhookRejected       = "webhook_rejected"
	EventWebhookDuplicate      = "webhook_duplicate"
	EventWebhookUnmapped       = "webhook_unmapped"
	EventWebhookIgnored        = "webhook_ignored"
	EventReservationNotFound   = "reservation_not_found"
	EventReservationCancelled  = "reservation_cancelled"
)
