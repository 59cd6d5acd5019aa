// Package redsys implements the redirect-payment gateway protocol: signing of
// outbound merchant parameter blobs with a per-order derived key, and
// verification of inbound payment notifications.
package redsys

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SignatureVersion is the only signature scheme the gateway speaks.
const SignatureVersion = "HMAC_SHA256_V1"

// Outbound merchant parameter names.
const (
	ParamAmount          = "DS_MERCHANT_AMOUNT"
	ParamOrder           = "DS_MERCHANT_ORDER"
	ParamMerchantCode    = "DS_MERCHANT_MERCHANTCODE"
	ParamCurrency        = "DS_MERCHANT_CURRENCY"
	ParamTransactionType = "DS_MERCHANT_TRANSACTIONTYPE"
	ParamTerminal        = "DS_MERCHANT_TERMINAL"
	ParamMerchantURL     = "DS_MERCHANT_MERCHANTURL"
	ParamURLOK           = "DS_MERCHANT_URLOK"
	ParamURLKO           = "DS_MERCHANT_URLKO"
	ParamDescription     = "DS_MERCHANT_PRODUCTDESCRIPTION"
	ParamMerchantData    = "DS_MERCHANT_MERCHANTDATA"
)

// Inbound notification field names.
const (
	FieldDate            = "Ds_Date"
	FieldHour            = "Ds_Hour"
	FieldAmount          = "Ds_Amount"
	FieldCurrency        = "Ds_Currency"
	FieldOrder           = "Ds_Order"
	FieldMerchantCode    = "Ds_MerchantCode"
	FieldTerminal        = "Ds_Terminal"
	FieldResponse        = "Ds_Response"
	FieldAuthCode        = "Ds_AuthorisationCode"
	FieldTransactionType = "Ds_TransactionType"
	FieldMerchantData    = "Ds_MerchantData"
)

// Transaction types used by the gateway.
const (
	TransactionAuthorization    = "0"
	TransactionPreauthorization = "1"
	TransactionConfirmation     = "2"
)

// CurrencyEUR is the numeric ISO 4217 code for euros.
const CurrencyEUR = "978"

// MerchantParameters is the set of transaction fields exchanged with the
// processor. Encoding is canonical: keys sorted lexicographically.
type MerchantParameters map[string]string

var requiredParams = []string{
	ParamAmount,
	ParamOrder,
	ParamMerchantCode,
	ParamCurrency,
	ParamTransactionType,
	ParamTerminal,
}

// SignedRequest carries the three redirect form fields sent to the processor.
// Immutable once produced; one per payment attempt.
type SignedRequest struct {
	SignatureVersion   string `json:"Ds_SignatureVersion"`
	MerchantParameters string `json:"Ds_MerchantParameters"`
	Signature          string `json:"Ds_Signature"`
}

// OutcomeStatus is the domain status a processor response code maps to.
type OutcomeStatus string

const (
	StatusPreauthorized OutcomeStatus = "preauthorized"
	StatusPaid          OutcomeStatus = "paid"
	StatusRejected      OutcomeStatus = "rejected"
	StatusUnmapped      OutcomeStatus = "unmapped"
)

// declineReasons maps known processor decline codes to distinct reasons.
var declineReasons = map[int]string{
	101:  "expired card",
	102:  "card blocked, suspected fraud",
	104:  "operation not allowed for this card",
	106:  "PIN attempts exceeded",
	116:  "insufficient funds",
	118:  "card not registered",
	125:  "card not effective",
	129:  "wrong CVV2/CVC2",
	180:  "card not valid for this operation",
	184:  "cardholder authentication error",
	190:  "declined by issuer, no reason given",
	191:  "wrong expiry date",
	202:  "card blocked, fraud alert",
	904:  "merchant not registered",
	909:  "processor system error",
	912:  "issuer not available",
	9064: "wrong card number length",
	9078: "operation type not allowed for this card",
	9093: "card does not exist",
	9094: "rejected by international servers",
	9912: "issuer not available",
	9915: "payment cancelled by user",
}

// MapResponse maps a processor response code plus transaction type to a domain
// status and a human-readable reason. Approved codes are 0000-0099 plus 0900
// (confirmation of a prior preauthorization); everything else known is a
// decline. Codes that do not parse map to StatusUnmapped and must only be
// logged, never applied.
func MapResponse(code, transactionType string) (OutcomeStatus, string) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || code == "" {
		return StatusUnmapped, "unrecognised response code"
	}
	if (n >= 0 && n <= 99) || n == 900 {
		switch transactionType {
		case TransactionPreauthorization:
			return StatusPreauthorized, "approved"
		case TransactionConfirmation, TransactionAuthorization:
			return StatusPaid, "approved"
		default:
			return StatusUnmapped, "approved code with unhandled transaction type"
		}
	}
	return StatusRejected, declineReason(n)
}

func declineReason(n int) string {
	if r, ok := declineReasons[n]; ok {
		return r
	}
	switch {
	case n >= 101 && n <= 203:
		return "declined by issuer"
	case n >= 904 && n <= 912:
		return "declined by processor"
	case n >= 9000:
		return "declined, processor error code"
	default:
		return "declined"
	}
}

// amountDigits is the fixed width of the wire amount field.
const amountDigits = 12

// FormatAmount renders an amount in minor currency units as the fixed-width
// zero-padded decimal string the processor expects, e.g. 18000 -> "000000018000".
func FormatAmount(cents int64) (string, error) {
	if cents < 0 {
		return "", &ValidationError{Field: ParamAmount, Reason: "amount must not be negative"}
	}
	s := strconv.FormatInt(cents, 10)
	if len(s) > amountDigits {
		return "", &ValidationError{Field: ParamAmount, Reason: "amount exceeds 12 digits"}
	}
	return strings.Repeat("0", amountDigits-len(s)) + s, nil
}

// ParseAmount parses a wire amount field back into minor currency units.
func ParseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, &ValidationError{Field: FieldAmount, Reason: "not a valid amount"}
	}
	return n, nil
}

// reservationIDSuffixLen is the fixed suffix length used by legacy order
// numbers that embed the reservation id in their trailing digits.
const reservationIDSuffixLen = 8

// ResolveReservationID resolves the reservation a notification refers to.
// Precedence is a compatibility contract relied on by in-flight orders:
// explicit merchant data first, then the segment after the order-number
// delimiter, then the fixed-length numeric suffix of the order number.
func ResolveReservationID(merchantData, orderNumber string) string {
	if md := strings.TrimSpace(merchantData); md != "" {
		var payload struct {
			ReservationID string `json:"reservation_id"`
		}
		if err := json.Unmarshal([]byte(md), &payload); err == nil && payload.ReservationID != "" {
			return payload.ReservationID
		}
		return md
	}
	if i := strings.IndexByte(orderNumber, '-'); i >= 0 && i+1 < len(orderNumber) {
		return orderNumber[i+1:]
	}
	if len(orderNumber) >= reservationIDSuffixLen {
		return orderNumber[len(orderNumber)-reservationIDSuffixLen:]
	}
	return orderNumber
}
