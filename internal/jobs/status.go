package jobs

import "fmt"

// Status is the moderation lifecycle of a job.
//
//	draft ──► pending_review ──► published
//	  ▲             │
//	  └─────────────┘  (checkout completed without payment)
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending_review"
	StatusPublished     Status = "published"
)

// PaymentStatus mirrors the checkout outcome stored next to Status.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

var validTransitions = map[Status][]Status{
	StatusDraft:         {StatusPendingReview},
	StatusPendingReview: {StatusDraft, StatusPublished},
	// published is terminal for payment events
}

// ParseStatus rejects values outside the lifecycle.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusPendingReview, StatusPublished:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed reports whether from -> to is an edge of the graph.
// Staying in the same state is always allowed.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
