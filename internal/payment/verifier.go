// Package payment integrates Stripe Checkout: it creates checkout sessions
// for new postings and applies checkout webhook events to job status.
package payment

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ErrInvalidSignature rejects a webhook whose signature does not verify.
// Nothing from such a body is trusted, not even for logging.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// Verifier checks the Stripe-Signature header against the endpoint secret.
type Verifier struct {
	secret string
}

// NewVerifier builds a Verifier for the given endpoint secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify returns the decoded event or ErrInvalidSignature.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	if signatureHeader == "" || v.secret == "" {
		return stripe.Event{}, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
