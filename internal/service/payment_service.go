package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/config"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"

	"gorm.io/gorm"
)

var (
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrReservationNotPayable = errors.New("reservation is not awaiting payment")
	ErrReservationNotCapture = errors.New("reservation has no preauthorization to capture")
)

// Gateway is the signing/verification capability set. Selected by
// configuration at wire-up; redsys.Client is the only implementation today.
type Gateway interface {
	Sign(orderNumber string, params redsys.MerchantParameters) (*redsys.SignedRequest, error)
	VerifyNotification(n *redsys.Notification) redsys.VerifyResult
}

// ReservationStore is the external reservation collaborator. The service
// computes next states but never owns storage.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	Update(ctx context.Context, res *models.Reservation) error
	UpdatePaymentState(ctx context.Context, id uint, prevStatus, prevPaymentStatus string, fields map[string]any) (bool, error)
}

// AuditSink is the append-only audit collaborator.
type AuditSink interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Actor identifies who or what triggered an operation, for audit context.
type Actor struct {
	ID        *uint
	Email     string
	IP        string
	UserAgent string
	RequestID string
}

type PaymentService struct {
	cfg          *config.Config
	gateway      Gateway
	reservations ReservationStore
	audit        AuditSink
}

func NewPaymentService(cfg *config.Config, gateway Gateway, reservations ReservationStore, audit AuditSink) *PaymentService {
	return &PaymentService{cfg: cfg, gateway: gateway, reservations: reservations, audit: audit}
}

// maxSuffixID bounds the reservation ids that fit the order-number suffix.
const maxSuffixID = 100000000

// NewOrderNumber builds a 12-digit order number whose trailing 8 digits are
// the zero-padded reservation id. The suffix is load-bearing: it is the last
// resort of the reservation-resolution fallback chain on inbound callbacks,
// so ids too wide for it are rejected rather than truncated onto another
// reservation's suffix.
func NewOrderNumber(reservationID uint, now time.Time) (string, error) {
	if uint64(reservationID) >= maxSuffixID {
		return "", fmt.Errorf("reservation id %d does not fit the order-number suffix", reservationID)
	}
	return fmt.Sprintf("%04d%08d", now.Unix()%10000, reservationID), nil
}

// CreatePayment builds the signed redirect request for a pending reservation.
// The order number is stored as the reservation's payment id before the
// request is handed out, so the later callback can always be correlated.
func (s *PaymentService) CreatePayment(ctx context.Context, reservationID uint, actor Actor) (*redsys.SignedRequest, string, error) {
	rec, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeAudit(ctx, &models.AuditLog{
				EventType: domain.EventReservationNotFound,
				ActorID:   actor.ID, ActorEmail: actor.Email, IP: actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
				Reason: fmt.Sprintf("reservation %d not found for payment creation", reservationID),
			})
			return nil, "", ErrReservationNotFound
		}
		return nil, "", err
	}
	if rec.Status != domain.ReservationPending {
		return nil, "", ErrReservationNotPayable
	}
	order, err := NewOrderNumber(rec.ID, time.Now())
	if err != nil {
		return nil, "", err
	}
	amount, err := redsys.FormatAmount(rec.TotalAmountCents)
	if err != nil {
		return nil, "", err
	}
	base := s.cfg.Redsys.PublicBaseURL
	params := redsys.MerchantParameters{
		redsys.ParamAmount:          amount,
		redsys.ParamOrder:           order,
		redsys.ParamMerchantCode:    s.cfg.Redsys.MerchantCode,
		redsys.ParamCurrency:        s.cfg.Redsys.Currency,
		redsys.ParamTransactionType: redsys.TransactionPreauthorization,
		redsys.ParamTerminal:        s.cfg.Redsys.Terminal,
		redsys.ParamMerchantURL:     base + "/api/v1/webhooks/redsys",
		redsys.ParamURLOK:           base + "/api/v1/payments/redsys/return/ok",
		redsys.ParamURLKO:           base + "/api/v1/payments/redsys/return/ko",
		redsys.ParamDescription:     fmt.Sprintf("Reservation #%d", rec.ID),
		redsys.ParamMerchantData:    fmt.Sprintf(`{"reservation_id":%q}`, strconv.FormatUint(uint64(rec.ID), 10)),
	}
	signed, err := s.gateway.Sign(order, params)
	if err != nil {
		s.writeAudit(ctx, &models.AuditLog{
			EventType: domain.EventPaymentRequestCreated,
			ActorID:   actor.ID, ActorEmail: actor.Email, IP: actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
			OrderNumber: order, AmountCents: rec.TotalAmountCents,
			Success: false, Reason: err.Error(),
		})
		return nil, "", err
	}
	rec.PaymentID = order
	if err := s.reservations.Update(ctx, rec); err != nil {
		return nil, "", err
	}
	s.writeAudit(ctx, &models.AuditLog{
		EventType: domain.EventPaymentRequestCreated,
		ActorID:   actor.ID, ActorEmail: actor.Email, IP: actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
		OrderNumber: order, AmountCents: rec.TotalAmountCents,
		Success:  true,
		Metadata: fmt.Sprintf(`{"reservation_id":%d}`, rec.ID),
	})
	return signed, order, nil
}

// CreateCapture builds the signed confirmation (capture) request for a
// reservation holding a preauthorization. Same order number, confirmation
// transaction type.
func (s *PaymentService) CreateCapture(ctx context.Context, reservationID uint, actor Actor) (*redsys.SignedRequest, error) {
	rec, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if rec.Status != domain.ReservationPreauthorized || rec.PaymentID == "" {
		return nil, ErrReservationNotCapture
	}
	amount, err := redsys.FormatAmount(rec.TotalAmountCents)
	if err != nil {
		return nil, err
	}
	params := redsys.MerchantParameters{
		redsys.ParamAmount:          amount,
		redsys.ParamOrder:           rec.PaymentID,
		redsys.ParamMerchantCode:    s.cfg.Redsys.MerchantCode,
		redsys.ParamCurrency:        s.cfg.Redsys.Currency,
		redsys.ParamTransactionType: redsys.TransactionConfirmation,
		redsys.ParamTerminal:        s.cfg.Redsys.Terminal,
		redsys.ParamMerchantURL:     s.cfg.Redsys.PublicBaseURL + "/api/v1/webhooks/redsys",
	}
	signed, err := s.gateway.Sign(rec.PaymentID, params)
	if err != nil {
		return nil, err
	}
	s.writeAudit(ctx, &models.AuditLog{
		EventType: domain.EventCaptureRequested,
		ActorID:   actor.ID, ActorEmail: actor.Email, IP: actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
		OrderNumber: rec.PaymentID, AmountCents: rec.TotalAmountCents,
		Success: true,
	})
	return signed, nil
}

// NotificationResult reports how one webhook delivery was handled.
type NotificationResult struct {
	Rejected   redsys.RejectionReason // empty when verified
	Outcome    *redsys.Outcome
	Transition Transition
}

// HandleNotification runs the inbound pipeline for one delivery: verify, map,
// resolve the reservation, apply the state transition. Every path, rejection
// or success, writes exactly one audit event before returning. A returned
// error means the store failed and the processor should redeliver.
func (s *PaymentService) HandleNotification(ctx context.Context, n *redsys.Notification, actor Actor) (*NotificationResult, error) {
	res := s.gateway.VerifyNotification(n)
	if res.Rejected() {
		s.writeAudit(ctx, &models.AuditLog{
			EventType: domain.EventWebhookRejected,
			IP:        actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
			Success: false,
			Reason:  fmt.Sprintf("%s: %s", res.Reason, res.Detail),
		})
		return &NotificationResult{Rejected: res.Reason}, nil
	}
	out := res.Outcome

	rid, err := strconv.ParseUint(out.ReservationID, 10, 64)
	if err != nil || rid == 0 {
		s.auditNotFound(ctx, out, actor, fmt.Sprintf("unresolvable reservation id %q", out.ReservationID))
		return nil, ErrReservationNotFound
	}
	rec, err := s.reservations.GetByID(ctx, uint(rid))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.auditNotFound(ctx, out, actor, fmt.Sprintf("reservation %d not found", rid))
			return nil, ErrReservationNotFound
		}
		// Store failure is fatal for this delivery; audit and let the
		// processor retry.
		s.auditNotFound(ctx, out, actor, fmt.Sprintf("reservation read failed: %v", err))
		return nil, err
	}

	tr := ApplyOutcome(rec, out)
	if tr.Changed {
		applied, err := s.applyTransition(ctx, rec, out, tr)
		if err != nil {
			return nil, err
		}
		if !applied {
			// A concurrent delivery won the race. Re-read and recompute; the
			// second pass normally lands on the duplicate branch.
			rec, err = s.reservations.GetByID(ctx, rec.ID)
			if err != nil {
				return nil, err
			}
			tr = ApplyOutcome(rec, out)
			if tr.Changed {
				if applied, err = s.applyTransition(ctx, rec, out, tr); err != nil {
					return nil, err
				} else if !applied {
					tr = duplicate(out)
				}
			}
		}
	}

	s.writeAudit(ctx, &models.AuditLog{
		EventType: tr.EventType,
		IP:        actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
		OrderNumber: out.OrderNumber,
		AmountCents: out.AmountCents,
		Success:     out.Status == redsys.StatusPreauthorized || out.Status == redsys.StatusPaid,
		Reason:      tr.Reason,
		Metadata: fmt.Sprintf(`{"reservation_id":%d,"response_code":%q,"transaction_type":%q,"duplicate":%t}`,
			rec.ID, out.ResponseCode, out.TransactionType, tr.Duplicate),
	})
	return &NotificationResult{Outcome: out, Transition: tr}, nil
}

func (s *PaymentService) applyTransition(ctx context.Context, rec *models.Reservation, out *redsys.Outcome, tr Transition) (bool, error) {
	return s.reservations.UpdatePaymentState(ctx, rec.ID, rec.Status, rec.PaymentStatus, map[string]any{
		"status":            tr.NextStatus,
		"payment_status":    tr.NextPaymentStatus,
		"payment_id":        out.OrderNumber,
		"payment_auth_code": out.AuthCode,
	})
}

func (s *PaymentService) auditNotFound(ctx context.Context, out *redsys.Outcome, actor Actor, reason string) {
	s.writeAudit(ctx, &models.AuditLog{
		EventType: domain.EventReservationNotFound,
		IP:        actor.IP, UserAgent: actor.UserAgent, RequestID: actor.RequestID,
		OrderNumber: out.OrderNumber,
		AmountCents: out.AmountCents,
		Success:     false,
		Reason:      reason,
	})
}

// writeAudit never blocks the payment-status update on audit storage: a
// failed write is logged and processing continues.
func (s *PaymentService) writeAudit(ctx context.Context, entry *models.AuditLog) {
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Printf("[Audit] write failed for %s: %v", entry.EventType, err)
	}
}
