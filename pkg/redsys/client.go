package redsys

import "time"

// Client bundles signing and verification under one secret. It is the
// concrete gateway implementation handed to the service layer.
type Client struct {
	secretKeyB64 string
	verifier     *Verifier
}

func NewClient(secretKeyB64 string, freshnessWindow time.Duration) *Client {
	return &Client{
		secretKeyB64: secretKeyB64,
		verifier:     NewVerifier(secretKeyB64, freshnessWindow),
	}
}

// Verifier exposes the inbound pipeline, mainly so tests can pin its clock.
func (c *Client) Verifier() *Verifier { return c.verifier }

func (c *Client) Sign(orderNumber string, params MerchantParameters) (*SignedRequest, error) {
	return Sign(c.secretKeyB64, orderNumber, params)
}

func (c *Client) VerifyNotification(n *Notification) VerifyResult {
	return c.verifier.Verify(n)
}
