package redsys

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

func notificationFields(order, response, txType string) MerchantParameters {
	return MerchantParameters{
		FieldDate:            testBase.Format("02/01/2006"),
		FieldHour:            testBase.Format("15:04"),
		FieldAmount:          "18000",
		FieldCurrency:        CurrencyEUR,
		FieldOrder:           order,
		FieldMerchantCode:    "999008881",
		FieldTerminal:        "001",
		FieldResponse:        response,
		FieldAuthCode:        "123456",
		FieldTransactionType: txType,
	}
}

func makeSignedNotification(t *testing.T, fields MerchantParameters, receivedAt time.Time) *Notification {
	t.Helper()
	encoded, err := EncodeParameters(fields)
	require.NoError(t, err)
	sig, err := SignEncoded(testSecret, fields[FieldOrder], encoded)
	require.NoError(t, err)
	return &Notification{
		MerchantParameters: encoded,
		Signature:          sig,
		SignatureVersion:   SignatureVersion,
		ReceivedAt:         receivedAt,
	}
}

func testVerifier() *Verifier {
	return NewVerifier(testSecret, 5*time.Minute).WithClock(func() time.Time { return testBase }, time.UTC)
}

func TestVerifierAcceptsValidPreauthorization(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	n := makeSignedNotification(t, fields, testBase.Add(time.Minute))

	res := testVerifier().Verify(n)
	require.False(t, res.Rejected(), "detail: %s", res.Detail)
	out := res.Outcome
	assert.Equal(t, "123400000042", out.OrderNumber)
	assert.Equal(t, StatusPreauthorized, out.Status)
	assert.Equal(t, int64(18000), out.AmountCents)
	assert.Equal(t, "123456", out.AuthCode)
	assert.Equal(t, "00000042", out.ReservationID, "fixed-length suffix fallback")
}

func TestVerifierAcceptsConfirmation(t *testing.T) {
	fields := notificationFields("123400000042", "0900", TransactionConfirmation)
	n := makeSignedNotification(t, fields, testBase.Add(time.Minute))

	res := testVerifier().Verify(n)
	require.False(t, res.Rejected())
	assert.Equal(t, StatusPaid, res.Outcome.Status)
}

func TestVerifierMapsDecline(t *testing.T) {
	fields := notificationFields("123400000042", "0190", TransactionPreauthorization)
	n := makeSignedNotification(t, fields, testBase.Add(time.Minute))

	res := testVerifier().Verify(n)
	require.False(t, res.Rejected())
	assert.Equal(t, StatusRejected, res.Outcome.Status)
	assert.Equal(t, "declined by issuer, no reason given", res.Outcome.Reason)
}

func TestVerifierRejectsGarbagePayload(t *testing.T) {
	n := &Notification{
		MerchantParameters: "%%%not-base64%%%",
		Signature:          "c2ln",
		ReceivedAt:         testBase,
	}
	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectMalformedPayload, res.Reason)
}

func TestVerifierRejectsMissingOrder(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	delete(fields, FieldOrder)
	encoded, err := EncodeParameters(fields)
	require.NoError(t, err)
	n := &Notification{MerchantParameters: encoded, Signature: "c2ln", ReceivedAt: testBase}

	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectMalformedPayload, res.Reason)
}

func TestVerifierRejectsBadSignature(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	n := makeSignedNotification(t, fields, testBase.Add(time.Minute))
	n.Signature = "AAAA" + n.Signature[4:]

	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectSignatureMismatch, res.Reason)
}

func TestVerifierRejectsStaleNotification(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	// Signature is valid; only the timestamp is old.
	n := makeSignedNotification(t, fields, testBase.Add(10*time.Minute))

	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectReplaySuspected, res.Reason)
}

func TestVerifierRejectsFutureDatedNotification(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	n := makeSignedNotification(t, fields, testBase.Add(-10*time.Minute))

	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectReplaySuspected, res.Reason)
}

func TestVerifierRejectsMissingTimestamp(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	delete(fields, FieldDate)
	n := makeSignedNotification(t, fields, testBase)

	res := testVerifier().Verify(n)
	require.True(t, res.Rejected())
	assert.Equal(t, RejectReplaySuspected, res.Reason)
}

func TestVerifierAcceptsEscapedDate(t *testing.T) {
	fields := notificationFields("123400000042", "0000", TransactionPreauthorization)
	fields[FieldDate] = url.QueryEscape(fields[FieldDate])
	n := makeSignedNotification(t, fields, testBase.Add(time.Minute))

	res := testVerifier().Verify(n)
	require.False(t, res.Rejected(), "detail: %s", res.Detail)
}

func TestParseNotification(t *testing.T) {
	form := url.Values{}
	form.Set("Ds_MerchantParameters", "blob")
	form.Set("Ds_Signature", "sig")
	form.Set("Ds_SignatureVersion", SignatureVersion)

	n, err := ParseNotification(form, testBase)
	require.NoError(t, err)
	assert.Equal(t, "blob", n.MerchantParameters)
	assert.Equal(t, "sig", n.Signature)
	assert.Equal(t, SignatureVersion, n.SignatureVersion)

	for _, missing := range []string{"Ds_MerchantParameters", "Ds_Signature"} {
		t.Run("missing "+missing, func(t *testing.T) {
			f := url.Values{}
			for k := range form {
				if k != missing {
					f.Set(k, form.Get(k))
				}
			}
			_, err := ParseNotification(f, testBase)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, missing, perr.Field)
		})
	}
}

func TestMapResponse(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		txType string
		want   OutcomeStatus
	}{
		{"approved preauth", "0000", TransactionPreauthorization, StatusPreauthorized},
		{"approved preauth upper range", "0099", TransactionPreauthorization, StatusPreauthorized},
		{"confirmation", "0900", TransactionConfirmation, StatusPaid},
		{"direct authorization", "0000", TransactionAuthorization, StatusPaid},
		{"expired card", "0101", TransactionPreauthorization, StatusRejected},
		{"issuer range", "0203", TransactionPreauthorization, StatusRejected},
		{"merchant not registered", "0904", TransactionPreauthorization, StatusRejected},
		{"sis error", "9915", TransactionPreauthorization, StatusRejected},
		{"boundary just above approved", "0100", TransactionPreauthorization, StatusRejected},
		{"non numeric", "XYZ", TransactionPreauthorization, StatusUnmapped},
		{"empty", "", TransactionPreauthorization, StatusUnmapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := MapResponse(tt.code, tt.txType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapResponseDistinctDeclineReasons(t *testing.T) {
	_, expired := MapResponse("0101", TransactionPreauthorization)
	_, fraud := MapResponse("0102", TransactionPreauthorization)
	assert.NotEqual(t, expired, fraud, "known decline codes carry distinct reasons")
}

func TestResolveReservationIDPrecedence(t *testing.T) {
	tests := []struct {
		name         string
		merchantData string
		order        string
		want         string
	}{
		{"json merchant data wins", `{"reservation_id":"77"}`, "RES-42", "77"},
		{"plain merchant data wins", "99", "RES-42", "99"},
		{"delimiter split", "", "RES-42", "42"},
		{"suffix fallback", "", "123400000042", "00000042"},
		{"short order as-is", "", "1234", "1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveReservationID(tt.merchantData, tt.order))
		})
	}
}
