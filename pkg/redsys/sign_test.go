package redsys

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("012345678901234567890123"))

func validParams(order string) MerchantParameters {
	return MerchantParameters{
		ParamAmount:          "000000018000",
		ParamOrder:           order,
		ParamMerchantCode:    "999008881",
		ParamCurrency:        CurrencyEUR,
		ParamTransactionType: TransactionPreauthorization,
		ParamTerminal:        "001",
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	order := "123400000042"
	signed, err := Sign(testSecret, order, validParams(order))
	require.NoError(t, err)
	assert.Equal(t, SignatureVersion, signed.SignatureVersion)
	assert.NotEmpty(t, signed.MerchantParameters)
	assert.NotEmpty(t, signed.Signature)

	ok, err := Verify(testSecret, order, signed.MerchantParameters, signed.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyParams(testSecret, order, validParams(order), signed.Signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignDeterministic(t *testing.T) {
	order := "1234ABCD"
	p := validParams(order)
	a, err := Sign(testSecret, order, p)
	require.NoError(t, err)
	b, err := Sign(testSecret, order, p)
	require.NoError(t, err)
	assert.Equal(t, a.MerchantParameters, b.MerchantParameters)
	assert.Equal(t, a.Signature, b.Signature)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	order := "123400000042"
	signed, err := Sign(testSecret, order, validParams(order))
	require.NoError(t, err)

	// Every bit of every byte, including the trailing padding bits of the
	// last data character, which only a strict base64 decode rejects.
	for i := 0; i < len(signed.Signature); i++ {
		for bit := uint(0); bit < 8; bit++ {
			tampered := []byte(signed.Signature)
			tampered[i] ^= 1 << bit
			ok, err := Verify(testSecret, order, signed.MerchantParameters, string(tampered))
			require.NoError(t, err)
			assert.False(t, ok, "flipped bit %d of signature byte %d must not verify", bit, i)
		}
	}
}

func TestVerifyRejectsTamperedParameters(t *testing.T) {
	order := "123400000042"
	signed, err := Sign(testSecret, order, validParams(order))
	require.NoError(t, err)

	for i := 0; i < len(signed.MerchantParameters); i++ {
		tampered := []byte(signed.MerchantParameters)
		tampered[i] ^= 0x01
		ok, err := Verify(testSecret, order, string(tampered), signed.Signature)
		require.NoError(t, err)
		assert.False(t, ok, "flipped parameter byte %d must not verify", i)
	}
}

func TestSignRejectsBadOrderNumber(t *testing.T) {
	tests := []struct {
		name  string
		order string
	}{
		{"empty", ""},
		{"too long", "1234567890123"},
		{"non alphanumeric", "1234-ABC"},
		{"whitespace", "1234 ABC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(testSecret, tt.order, validParams(tt.order))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, ParamOrder, verr.Field)
		})
	}
}

func TestSignRejectsBadSecretKey(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("0123456789012345"))},
		{"too long", base64.StdEncoding.EncodeToString([]byte("01234567890123456789012345678901"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(tt.secret, "1234", validParams("1234"))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "secret key", verr.Field)
		})
	}
}

func TestSignRejectsMissingRequiredField(t *testing.T) {
	for _, field := range requiredParams {
		t.Run(field, func(t *testing.T) {
			p := validParams("1234")
			delete(p, field)
			_, err := Sign(testSecret, "1234", p)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestSignRejectsUnpaddedAmount(t *testing.T) {
	p := validParams("1234")
	p[ParamAmount] = "18000"
	_, err := Sign(testSecret, "1234", p)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ParamAmount, verr.Field)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name    string
		cents   int64
		want    string
		wantErr bool
	}{
		{"180.00 major units", 18000, "000000018000", false},
		{"zero", 0, "000000000000", false},
		{"one cent", 1, "000000000001", false},
		{"max width", 999999999999, "999999999999", false},
		{"negative", -1, "", true},
		{"too wide", 1000000000000, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatAmount(tt.cents)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Verification must hash the exact bytes received on the wire. A blob whose
// key order differs from the canonical encoding still verifies against its
// own bytes, and re-deriving the encoding from the decoded map breaks the
// signature.
func TestVerifyUsesOriginalTransmittedBytes(t *testing.T) {
	order := "123400000042"
	// Non-canonical key order: ORDER before AMOUNT.
	raw := `{"DS_MERCHANT_ORDER":"123400000042","DS_MERCHANT_AMOUNT":"000000018000"}`
	blob := base64.StdEncoding.EncodeToString([]byte(raw))
	sig, err := SignEncoded(testSecret, order, blob)
	require.NoError(t, err)

	ok, err := Verify(testSecret, order, blob, sig)
	require.NoError(t, err)
	assert.True(t, ok, "as-received blob must verify")

	params, err := DecodeParameters(blob)
	require.NoError(t, err)
	rederived, err := EncodeParameters(params)
	require.NoError(t, err)
	require.NotEqual(t, blob, rederived, "canonical re-encoding reorders keys")

	ok, err = Verify(testSecret, order, rederived, sig)
	require.NoError(t, err)
	assert.False(t, ok, "re-derived encoding must not verify")
}

func TestVerifyAcceptsURLSafeSignature(t *testing.T) {
	order := "123400000042"
	signed, err := Sign(testSecret, order, validParams(order))
	require.NoError(t, err)

	urlSafe := make([]byte, len(signed.Signature))
	for i := 0; i < len(signed.Signature); i++ {
		switch signed.Signature[i] {
		case '+':
			urlSafe[i] = '-'
		case '/':
			urlSafe[i] = '_'
		default:
			urlSafe[i] = signed.Signature[i]
		}
	}
	ok, err := Verify(testSecret, order, signed.MerchantParameters, string(urlSafe))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeriveOrderKeyPerTransaction(t *testing.T) {
	key, err := base64.StdEncoding.DecodeString(testSecret)
	require.NoError(t, err)
	a, err := deriveOrderKey(key, "100000000001")
	require.NoError(t, err)
	b, err := deriveOrderKey(key, "100000000002")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "different orders must derive different keys")
	assert.Equal(t, 16, len(a), "12-byte order pads to two DES blocks")
}
