package redsys

import "fmt"

// ValidationError reports a malformed or missing input field. It is returned
// before any cryptography runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("redsys: invalid %s: %s", e.Field, e.Reason)
}

// CryptoError reports a cipher or digest failure. The wrapped error never
// contains key material.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("redsys: %s failed: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// ParseError reports a notification body missing one of its required fields.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("redsys: notification missing %s", e.Field)
}
