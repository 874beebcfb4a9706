package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/plan"
)

// ErrCheckoutUnavailable is returned when no Stripe secret key is configured.
var ErrCheckoutUnavailable = errors.New("payment: checkout is not configured")

const discardTimeout = 5 * time.Second

// SessionCreator is the part of the Stripe checkout session client we use.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutConfig holds the redirect targets and currency of sessions.
type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Checkout creates Stripe Checkout sessions for job postings.
type Checkout struct {
	sessions SessionCreator
	cfg      CheckoutConfig
}

// NewStripeCheckout builds a Checkout backed by the Stripe API. An empty
// secret key yields a Checkout that returns ErrCheckoutUnavailable.
func NewStripeCheckout(secretKey string, cfg CheckoutConfig) *Checkout {
	if strings.TrimSpace(secretKey) == "" {
		return NewCheckout(nil, cfg)
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return NewCheckout(sc.CheckoutSessions, cfg)
}

// NewCheckout wires a session creator directly.
func NewCheckout(sessions SessionCreator, cfg CheckoutConfig) *Checkout {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	return &Checkout{sessions: sessions, cfg: cfg}
}

// CreateSession opens a one-off payment for the plan price and tags it with
// the job id so the webhook can find the job again.
func (c *Checkout) CreateSession(ctx context.Context, job jobs.Listing, p plan.Plan) (*stripe.CheckoutSession, error) {
	if c.sessions == nil {
		return nil, ErrCheckoutUnavailable
	}
	if p.Price <= 0 {
		return nil, fmt.Errorf("plan %q has no price", p.Type)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(job.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.cfg.Currency),
				UnitAmount: stripe.Int64(int64(p.Price) * 100),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s listing: %s", p.Type, job.Title)),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata(MetadataJobID, job.ID)
	params.AddMetadata(MetadataPlanType, string(p.Type))

	session, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return session, nil
}

// JobStore persists drafts handed off by the posting workflow.
type JobStore interface {
	CreateDraft(ctx context.Context, listing jobs.Listing, employerID uint, p plan.Plan) (*database.Job, error)
	AttachCheckoutSession(ctx context.Context, id, sessionID string) error
	Delete(ctx context.Context, id string) error
}

// Handoff stores a submitted posting as a draft and opens checkout for it.
// It satisfies posting.Handoff for one employer.
type Handoff struct {
	store      JobStore
	checkout   *Checkout
	employerID uint
}

// NewHandoff binds the handoff to the submitting employer.
func NewHandoff(store JobStore, checkout *Checkout, employerID uint) *Handoff {
	return &Handoff{store: store, checkout: checkout, employerID: employerID}
}

// Handoff returns the checkout URL the employer should be redirected to.
// The draft is removed again when no session could be attached to it.
func (h *Handoff) Handoff(ctx context.Context, job jobs.Listing, p plan.Plan) (string, error) {
	if _, err := h.store.CreateDraft(ctx, job, h.employerID, p); err != nil {
		return "", err
	}
	session, err := h.checkout.CreateSession(ctx, job, p)
	if err != nil {
		return "", h.discard(job.ID, err)
	}
	if err := h.store.AttachCheckoutSession(ctx, job.ID, session.ID); err != nil {
		return "", h.discard(job.ID, err)
	}
	return session.URL, nil
}

func (h *Handoff) discard(id string, cause error) error {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), discardTimeout)
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		return errors.Join(cause, fmt.Errorf("discard draft %s: %w", id, err))
	}
	return cause
}
