package redsys

import (
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// secretKeyLen is the decoded length required for the 3-key triple-DES secret.
const secretKeyLen = 24

var orderNumberRe = regexp.MustCompile(`^[A-Za-z0-9]{1,12}$`)
var amountFieldRe = regexp.MustCompile(`^[0-9]{12}$`)

// Sign canonicalizes and encodes params, derives the per-order signing key by
// encrypting orderNumber under the shared secret, and computes an HMAC-SHA256
// signature over the encoded blob. Pure: no I/O, no shared state.
func Sign(secretKeyB64, orderNumber string, params MerchantParameters) (*SignedRequest, error) {
	key, err := decodeSecretKey(secretKeyB64)
	if err != nil {
		return nil, err
	}
	if !orderNumberRe.MatchString(orderNumber) {
		return nil, &ValidationError{Field: ParamOrder, Reason: "must be 1-12 alphanumeric characters"}
	}
	for _, f := range requiredParams {
		if params[f] == "" {
			return nil, &ValidationError{Field: f, Reason: "required"}
		}
	}
	if !amountFieldRe.MatchString(params[ParamAmount]) {
		return nil, &ValidationError{Field: ParamAmount, Reason: "must be a 12-digit zero-padded decimal"}
	}
	if params[ParamOrder] != orderNumber {
		return nil, &ValidationError{Field: ParamOrder, Reason: "does not match order number"}
	}
	encoded, err := EncodeParameters(params)
	if err != nil {
		return nil, err
	}
	sig, err := signEncoded(key, orderNumber, encoded)
	if err != nil {
		return nil, err
	}
	return &SignedRequest{
		SignatureVersion:   SignatureVersion,
		MerchantParameters: encoded,
		Signature:          sig,
	}, nil
}

// SignEncoded computes the signature over an already-encoded parameter blob.
// Used for trans-processing requests that reuse an existing order's encoding.
func SignEncoded(secretKeyB64, orderNumber, encodedParams string) (string, error) {
	key, err := decodeSecretKey(secretKeyB64)
	if err != nil {
		return "", err
	}
	if !orderNumberRe.MatchString(orderNumber) {
		return "", &ValidationError{Field: ParamOrder, Reason: "must be 1-12 alphanumeric characters"}
	}
	return signEncoded(key, orderNumber, encodedParams)
}

// Verify recomputes the signature over the exact encoded blob that was
// transmitted and compares it in constant time. Inbound verification must
// never re-serialize a parsed parameter map: field order in the canonical
// string is significant to the hash, and only the as-received bytes are
// guaranteed to round-trip.
func Verify(secretKeyB64, orderNumber, encodedParams, signature string) (bool, error) {
	key, err := decodeSecretKey(secretKeyB64)
	if err != nil {
		return false, err
	}
	if !orderNumberRe.MatchString(orderNumber) {
		return false, &ValidationError{Field: ParamOrder, Reason: "must be 1-12 alphanumeric characters"}
	}
	expected, err := signEncoded(key, orderNumber, encodedParams)
	if err != nil {
		return false, err
	}
	got, err := decodeBase64Flexible(signature)
	if err != nil {
		return false, nil
	}
	want, err := base64.StdEncoding.DecodeString(expected)
	if err != nil {
		return false, &CryptoError{Op: "signature decode", Err: err}
	}
	return hmac.Equal(want, got), nil
}

// VerifyParams re-encodes params canonically and verifies the signature over
// that encoding. Only safe for blobs this process produced itself (outbound
// round trips); inbound callbacks go through Verify with the original bytes.
func VerifyParams(secretKeyB64, orderNumber string, params MerchantParameters, signature string) (bool, error) {
	encoded, err := EncodeParameters(params)
	if err != nil {
		return false, err
	}
	return Verify(secretKeyB64, orderNumber, encoded, signature)
}

// EncodeParameters serializes params to the canonical form: JSON with keys
// sorted lexicographically, then base64.
func EncodeParameters(params MerchantParameters) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", &CryptoError{Op: "parameter encoding", Err: err}
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeParameters decodes an encoded parameter blob back into a field map.
// Accepts both standard and URL-safe base64, as the processor posts the
// URL-safe alphabet on notifications.
func DecodeParameters(encoded string) (MerchantParameters, error) {
	raw, err := decodeBase64Flexible(encoded)
	if err != nil {
		return nil, &ValidationError{Field: "Ds_MerchantParameters", Reason: "not valid base64"}
	}
	var params MerchantParameters
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &ValidationError{Field: "Ds_MerchantParameters", Reason: "not a valid parameter object"}
	}
	return params, nil
}

func decodeSecretKey(secretKeyB64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secretKeyB64)
	if err != nil {
		return nil, &ValidationError{Field: "secret key", Reason: "not valid base64"}
	}
	if len(key) != secretKeyLen {
		return nil, &ValidationError{Field: "secret key", Reason: "must decode to exactly 24 bytes"}
	}
	return key, nil
}

// deriveOrderKey encrypts the order number under the shared secret with
// 3DES-ECB, zero-padded to the block size. The ciphertext is the HMAC key for
// this transaction, so the shared secret is never used directly as a MAC key.
func deriveOrderKey(key []byte, orderNumber string) ([]byte, error) {
	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, &CryptoError{Op: "key derivation", Err: err}
	}
	plain := zeroPad([]byte(orderNumber), des.BlockSize)
	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i += des.BlockSize {
		block.Encrypt(out[i:i+des.BlockSize], plain[i:i+des.BlockSize])
	}
	return out, nil
}

func signEncoded(key []byte, orderNumber, encodedParams string) (string, error) {
	derived, err := deriveOrderKey(key, orderNumber)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, derived)
	mac.Write([]byte(encodedParams))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func zeroPad(b []byte, blockSize int) []byte {
	if rem := len(b) % blockSize; rem != 0 {
		return append(b, make([]byte, blockSize-rem)...)
	}
	return b
}

// decodeBase64Flexible accepts standard or URL-safe base64, padded or not.
// Decoding is strict: non-zero trailing padding bits are rejected, so every
// byte sequence has exactly one accepted encoding.
func decodeBase64Flexible(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(strings.TrimSpace(s))
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.Strict().DecodeString(s)
}
