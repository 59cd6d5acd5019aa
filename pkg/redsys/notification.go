package redsys

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultFreshnessWindow bounds how far a notification timestamp may drift
// from the time of receipt before the callback is treated as a replay.
const DefaultFreshnessWindow = 5 * time.Minute

// Notification is the raw inbound callback. Untrusted until verified.
type Notification struct {
	MerchantParameters string
	Signature          string
	SignatureVersion   string
	ReceivedAt         time.Time
}

// ParseNotification extracts the signature envelope from a form-encoded body.
func ParseNotification(form url.Values, receivedAt time.Time) (*Notification, error) {
	mp := form.Get("Ds_MerchantParameters")
	if mp == "" {
		return nil, &ParseError{Field: "Ds_MerchantParameters"}
	}
	sig := form.Get("Ds_Signature")
	if sig == "" {
		return nil, &ParseError{Field: "Ds_Signature"}
	}
	return &Notification{
		MerchantParameters: mp,
		Signature:          sig,
		SignatureVersion:   form.Get("Ds_SignatureVersion"),
		ReceivedAt:         receivedAt,
	}, nil
}

// RejectionReason classifies why a notification was refused. All three are
// security-relevant and must be audited by the caller.
type RejectionReason string

const (
	RejectMalformedPayload  RejectionReason = "malformed_payload"
	RejectSignatureMismatch RejectionReason = "signature_mismatch"
	RejectReplaySuspected   RejectionReason = "replay_suspected"
)

// Outcome is a verified, mapped notification. Only produced after the
// signature check succeeds.
type Outcome struct {
	OrderNumber     string
	ResponseCode    string
	TransactionType string
	AuthCode        string
	MerchantData    string
	AmountCents     int64
	ReservationID   string
	Status          OutcomeStatus
	Reason          string
}

// VerifyResult is either an Outcome or a rejection, never both. Modeling the
// rejection as a value rather than an error keeps the audit-before-return
// obligation visible at every call site.
type VerifyResult struct {
	Outcome *Outcome
	Reason  RejectionReason
	Detail  string
}

// Rejected reports whether verification refused the notification.
func (r VerifyResult) Rejected() bool { return r.Outcome == nil }

// Verifier turns untrusted notifications into trusted outcomes.
type Verifier struct {
	secretKeyB64 string
	window       time.Duration
	loc          *time.Location
	now          func() time.Time
}

// NewVerifier builds a Verifier for the given base64 secret. A non-positive
// window selects DefaultFreshnessWindow.
func NewVerifier(secretKeyB64 string, window time.Duration) *Verifier {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Verifier{
		secretKeyB64: secretKeyB64,
		window:       window,
		loc:          time.Local,
		now:          time.Now,
	}
}

// WithClock overrides the verifier's clock and timestamp location.
func (v *Verifier) WithClock(now func() time.Time, loc *time.Location) *Verifier {
	v.now = now
	v.loc = loc
	return v
}

func reject(reason RejectionReason, detail string) VerifyResult {
	return VerifyResult{Reason: reason, Detail: detail}
}

// Verify runs the full inbound pipeline: decode, authenticate against the
// as-received blob, freshness check, response-code mapping, reservation
// resolution. The signature is always checked over the exact transmitted
// bytes, never a re-serialization of the decoded map.
func (v *Verifier) Verify(n *Notification) VerifyResult {
	params, err := DecodeParameters(n.MerchantParameters)
	if err != nil {
		return reject(RejectMalformedPayload, err.Error())
	}
	order := params[FieldOrder]
	if order == "" {
		return reject(RejectMalformedPayload, "missing Ds_Order")
	}
	ok, err := Verify(v.secretKeyB64, order, n.MerchantParameters, n.Signature)
	if err != nil {
		return reject(RejectMalformedPayload, err.Error())
	}
	if !ok {
		return reject(RejectSignatureMismatch, "signature does not match merchant parameters")
	}
	if detail, stale := v.checkFreshness(params, n.ReceivedAt); stale {
		return reject(RejectReplaySuspected, detail)
	}
	amount, err := ParseAmount(params[FieldAmount])
	if err != nil {
		return reject(RejectMalformedPayload, err.Error())
	}
	status, reason := MapResponse(params[FieldResponse], params[FieldTransactionType])
	return VerifyResult{Outcome: &Outcome{
		OrderNumber:     order,
		ResponseCode:    params[FieldResponse],
		TransactionType: params[FieldTransactionType],
		AuthCode:        params[FieldAuthCode],
		MerchantData:    params[FieldMerchantData],
		AmountCents:     amount,
		ReservationID:   ResolveReservationID(params[FieldMerchantData], order),
		Status:          status,
		Reason:          reason,
	}}
}

// checkFreshness rejects notifications whose embedded timestamp is missing,
// unparseable, or outside the window on either side of the receipt time.
// This is the only defense against replayed captured callbacks.
func (v *Verifier) checkFreshness(params MerchantParameters, receivedAt time.Time) (string, bool) {
	ds := params[FieldDate]
	hs := params[FieldHour]
	if ds == "" || hs == "" {
		return "notification carries no timestamp", true
	}
	// The processor URL-escapes the date slashes on some delivery paths.
	if unescaped, err := url.QueryUnescape(ds); err == nil {
		ds = unescaped
	}
	if unescaped, err := url.QueryUnescape(hs); err == nil {
		hs = unescaped
	}
	ts, err := time.ParseInLocation("02/01/2006 15:04", ds+" "+hs, v.loc)
	if err != nil {
		return "unparseable notification timestamp", true
	}
	ref := receivedAt
	if ref.IsZero() {
		ref = v.now()
	}
	if delta := ref.Sub(ts); delta > v.window || delta < -v.window {
		return fmt.Sprintf("notification timestamp outside freshness window (%s)", v.window), true
	}
	return "", false
}
