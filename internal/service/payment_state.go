package service

import (
	"fmt"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"
)

// Transition is the computed next state for one verified outcome. Pure value;
// applying it to storage is the caller's job.
type Transition struct {
	Changed           bool
	Duplicate         bool
	NextStatus        string
	NextPaymentStatus string
	EventType         string
	Reason            string
}

// ApplyOutcome computes the reservation transition for a verified outcome
// against the currently stored record. Stateless and side-effect free, so it
// can be re-run safely after an optimistic-update conflict.
//
//	pending       + preauthorized        -> preauthorized / preauthorized
//	preauthorized + paid (confirmation)  -> confirmed / paid
//	pending       + paid (authorization) -> confirmed / paid
//	pending|preauthorized + rejected     -> rejected / rejected
//	terminal states and unmapped codes   -> no change, log only
//
// Re-delivery of an outcome already applied (same order number, record in the
// target state) is a duplicate: no state change, audit marked as duplicate.
func ApplyOutcome(rec *models.Reservation, out *redsys.Outcome) Transition {
	switch out.Status {
	case redsys.StatusPreauthorized:
		if rec.Status == domain.ReservationPending {
			return Transition{
				Changed:           true,
				NextStatus:        domain.ReservationPreauthorized,
				NextPaymentStatus: domain.PaymentPreauthorized,
				EventType:         domain.EventPaymentPreauthorized,
				Reason:            out.Reason,
			}
		}
		if (rec.Status == domain.ReservationPreauthorized || rec.Status == domain.ReservationConfirmed) && rec.PaymentID == out.OrderNumber {
			return duplicate(out)
		}
		return ignored(rec, out)

	case redsys.StatusPaid:
		if rec.Status == domain.ReservationPreauthorized ||
			(rec.Status == domain.ReservationPending && out.TransactionType == redsys.TransactionAuthorization) {
			return Transition{
				Changed:           true,
				NextStatus:        domain.ReservationConfirmed,
				NextPaymentStatus: domain.PaymentPaid,
				EventType:         domain.EventPaymentConfirmed,
				Reason:            out.Reason,
			}
		}
		if rec.Status == domain.ReservationConfirmed && rec.PaymentID == out.OrderNumber {
			return duplicate(out)
		}
		return ignored(rec, out)

	case redsys.StatusRejected:
		if rec.Status == domain.ReservationPending || rec.Status == domain.ReservationPreauthorized {
			return Transition{
				Changed:           true,
				NextStatus:        domain.ReservationRejected,
				NextPaymentStatus: domain.PaymentRejected,
				EventType:         domain.EventPaymentRejected,
				Reason:            out.Reason,
			}
		}
		if rec.PaymentStatus == domain.PaymentRejected && rec.PaymentID == out.OrderNumber {
			return duplicate(out)
		}
		return ignored(rec, out)

	default:
		return Transition{
			EventType: domain.EventWebhookUnmapped,
			Reason:    fmt.Sprintf("unmapped response code %s", out.ResponseCode),
		}
	}
}

func duplicate(out *redsys.Outcome) Transition {
	return Transition{
		Duplicate: true,
		EventType: domain.EventWebhookDuplicate,
		Reason:    fmt.Sprintf("outcome for order %s already applied", out.OrderNumber),
	}
}

func ignored(rec *models.Reservation, out *redsys.Outcome) Transition {
	return Transition{
		EventType: domain.EventWebhookIgnored,
		Reason:    fmt.Sprintf("no transition from %s/%s for %s outcome", rec.Status, rec.PaymentStatus, out.Status),
	}
}
