package service

import (
	"testing"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"

	"github.com/stretchr/testify/assert"
)

func reservationIn(status, paymentStatus, paymentID string) *models.Reservation {
	return &models.Reservation{Status: status, PaymentStatus: paymentStatus, PaymentID: paymentID}
}

func outcome(status redsys.OutcomeStatus, txType, order string) *redsys.Outcome {
	return &redsys.Outcome{OrderNumber: order, Status: status, TransactionType: txType, ResponseCode: "0000"}
}

func TestApplyOutcomePreauthorizesPending(t *testing.T) {
	rec := reservationIn(domain.ReservationPending, domain.PaymentPending, "")
	tr := ApplyOutcome(rec, outcome(redsys.StatusPreauthorized, redsys.TransactionPreauthorization, "1234"))

	assert.True(t, tr.Changed)
	assert.False(t, tr.Duplicate)
	assert.Equal(t, domain.ReservationPreauthorized, tr.NextStatus)
	assert.Equal(t, domain.PaymentPreauthorized, tr.NextPaymentStatus)
	assert.Equal(t, domain.EventPaymentPreauthorized, tr.EventType)
}

func TestApplyOutcomeConfirmsPreauthorized(t *testing.T) {
	rec := reservationIn(domain.ReservationPreauthorized, domain.PaymentPreauthorized, "1234")
	tr := ApplyOutcome(rec, outcome(redsys.StatusPaid, redsys.TransactionConfirmation, "1234"))

	assert.True(t, tr.Changed)
	assert.Equal(t, domain.ReservationConfirmed, tr.NextStatus)
	assert.Equal(t, domain.PaymentPaid, tr.NextPaymentStatus)
	assert.Equal(t, domain.EventPaymentConfirmed, tr.EventType)
}

func TestApplyOutcomeDirectAuthorizationConfirmsPending(t *testing.T) {
	rec := reservationIn(domain.ReservationPending, domain.PaymentPending, "")
	tr := ApplyOutcome(rec, outcome(redsys.StatusPaid, redsys.TransactionAuthorization, "1234"))

	assert.True(t, tr.Changed)
	assert.Equal(t, domain.ReservationConfirmed, tr.NextStatus)
}

func TestApplyOutcomeRejects(t *testing.T) {
	for _, status := range []string{domain.ReservationPending, domain.ReservationPreauthorized} {
		t.Run("from "+status, func(t *testing.T) {
			rec := reservationIn(status, domain.PaymentPending, "1234")
			out := outcome(redsys.StatusRejected, redsys.TransactionPreauthorization, "1234")
			out.Reason = "card expired"
			tr := ApplyOutcome(rec, out)

			assert.True(t, tr.Changed)
			assert.Equal(t, domain.ReservationRejected, tr.NextStatus)
			assert.Equal(t, domain.PaymentRejected, tr.NextPaymentStatus)
			assert.Equal(t, domain.EventPaymentRejected, tr.EventType)
			assert.Equal(t, "card expired", tr.Reason)
		})
	}
}

func TestApplyOutcomeDuplicateDelivery(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.Reservation
		out  *redsys.Outcome
	}{
		{
			"preauthorization redelivered",
			reservationIn(domain.ReservationPreauthorized, domain.PaymentPreauthorized, "1234"),
			outcome(redsys.StatusPreauthorized, redsys.TransactionPreauthorization, "1234"),
		},
		{
			"confirmation redelivered",
			reservationIn(domain.ReservationConfirmed, domain.PaymentPaid, "1234"),
			outcome(redsys.StatusPaid, redsys.TransactionConfirmation, "1234"),
		},
		{
			"rejection redelivered",
			reservationIn(domain.ReservationRejected, domain.PaymentRejected, "1234"),
			outcome(redsys.StatusRejected, redsys.TransactionPreauthorization, "1234"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := ApplyOutcome(tt.rec, tt.out)
			assert.False(t, tr.Changed)
			assert.True(t, tr.Duplicate)
			assert.Equal(t, domain.EventWebhookDuplicate, tr.EventType)
		})
	}
}

func TestApplyOutcomeMismatchedOrderIsNotDuplicate(t *testing.T) {
	rec := reservationIn(domain.ReservationPreauthorized, domain.PaymentPreauthorized, "1234")
	tr := ApplyOutcome(rec, outcome(redsys.StatusPreauthorized, redsys.TransactionPreauthorization, "9999"))

	assert.False(t, tr.Changed)
	assert.False(t, tr.Duplicate)
	assert.Equal(t, domain.EventWebhookIgnored, tr.EventType)
}

func TestApplyOutcomeIgnoresTerminalStates(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.Reservation
		out  *redsys.Outcome
	}{
		{
			"cancelled stays cancelled on preauthorization",
			reservationIn(domain.ReservationCancelled, domain.PaymentPending, ""),
			outcome(redsys.StatusPreauthorized, redsys.TransactionPreauthorization, "1234"),
		},
		{
			"cancelled stays cancelled on rejection",
			reservationIn(domain.ReservationCancelled, domain.PaymentPending, ""),
			outcome(redsys.StatusRejected, redsys.TransactionPreauthorization, "1234"),
		},
		{
			"confirmed ignores late rejection",
			reservationIn(domain.ReservationConfirmed, domain.PaymentPaid, "1234"),
			outcome(redsys.StatusRejected, redsys.TransactionPreauthorization, "1234"),
		},
		{
			"pending ignores confirmation without preauthorization",
			reservationIn(domain.ReservationPending, domain.PaymentPending, ""),
			outcome(redsys.StatusPaid, redsys.TransactionConfirmation, "1234"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := ApplyOutcome(tt.rec, tt.out)
			assert.False(t, tr.Changed)
			assert.False(t, tr.Duplicate)
			assert.Equal(t, domain.EventWebhookIgnored, tr.EventType)
		})
	}
}

func TestApplyOutcomeUnmappedCode(t *testing.T) {
	rec := reservationIn(domain.ReservationPending, domain.PaymentPending, "")
	out := outcome(redsys.StatusUnmapped, redsys.TransactionPreauthorization, "1234")
	out.ResponseCode = "XYZ"
	tr := ApplyOutcome(rec, out)

	assert.False(t, tr.Changed)
	assert.Equal(t, domain.EventWebhookUnmapped, tr.EventType)
	assert.Contains(t, tr.Reason, "XYZ")
}
