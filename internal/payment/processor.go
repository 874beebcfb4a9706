package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobBoard/internal/database"
	"jobBoard/internal/errcode"
	"jobBoard/internal/jobs"
	"jobBoard/internal/metrics"
	"jobBoard/internal/notify"
)

// MetadataJobID and MetadataPlanType are the checkout session metadata keys.
const (
	MetadataJobID    = "jobId"
	MetadataPlanType = "planType"
)

// Outcome describes what Handle did with an event.
type Outcome string

const (
	OutcomeApplied   Outcome = Outcome(metrics.OutcomeApplied)
	OutcomeDuplicate Outcome = Outcome(metrics.OutcomeDuplicate)
	OutcomeIgnored   Outcome = Outcome(metrics.OutcomeIgnored)
)

var errSkip = errors.New("skip event")

// Processor applies verified checkout events to jobs.
type Processor struct {
	db       *gorm.DB
	notifier notify.Publisher
	logger   *slog.Logger
}

// NewProcessor builds a Processor. notifier may be nil.
func NewProcessor(db *gorm.DB, notifier notify.Publisher, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{db: db, notifier: notifier, logger: logger}
}

// Handle applies one verified event. Replays of the same session event are
// recorded once and report OutcomeDuplicate. A published job is never moved
// by a payment event.
func (p *Processor) Handle(ctx context.Context, event stripe.Event) (Outcome, error) {
	eventType := string(event.Type)
	var (
		outcome Outcome
		err     error
	)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		outcome, err = p.apply(ctx, event, "completed")
	case stripe.EventTypeCheckoutSessionExpired:
		outcome, err = p.apply(ctx, event, "expired")
	default:
		outcome = OutcomeIgnored
	}

	if err != nil {
		metrics.ObserveWebhook(eventType, metrics.OutcomeFailed)
		return "", err
	}
	metrics.ObserveWebhook(eventType, string(outcome))
	return outcome, nil
}

type transition struct {
	job   database.Job
	audit database.AuditLog
}

func (p *Processor) apply(ctx context.Context, event stripe.Event, kind string) (Outcome, error) {
	if event.Data == nil {
		return OutcomeIgnored, nil
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", fmt.Errorf("decode checkout session: %w", err)
	}

	log := p.logger.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("session_id", session.ID),
	)

	jobID := session.Metadata[MetadataJobID]
	if jobID == "" {
		log.Info("checkout session without job id, ignoring")
		return OutcomeIgnored, nil
	}
	log = log.With(slog.String("job_id", jobID))

	var (
		tr        transition
		duplicate bool
	)
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&database.ProcessedWebhook{
			Key:     kind + ":" + session.ID,
			EventID: event.ID,
		})
		if res.Error != nil {
			return fmt.Errorf("record webhook: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return nil
		}

		var job database.Job
		if err := tx.First(&job, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("checkout session references unknown job")
				return errSkip
			}
			return fmt.Errorf("load job: %w", err)
		}
		if jobs.Status(job.Status) == jobs.StatusPublished {
			log.Info("job already published, leaving status untouched")
			return nil
		}

		from := jobs.Status(job.Status)
		to := from
		payment := jobs.PaymentExpired
		if kind == "completed" {
			to, payment = jobs.StatusDraft, jobs.PaymentUnpaid
			if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
				to, payment = jobs.StatusPendingReview, jobs.PaymentPaid
			}
		}
		if !jobs.IsTransitionAllowed(from, to) {
			log.Warn("payment event would break job lifecycle, ignoring",
				slog.String("from", string(from)), slog.String("to", string(to)))
			return nil
		}

		upd := tx.Model(&database.Job{}).
			Where("id = ? AND status <> ?", jobID, string(jobs.StatusPublished)).
			Updates(map[string]any{
				"status":                string(to),
				"stripe_payment_status": string(payment),
				"stripe_session_id":     session.ID,
			})
		if upd.Error != nil {
			return fmt.Errorf("update job: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return nil
		}

		tr.job = job
		tr.job.Status = string(to)
		tr.job.StripePaymentStatus = string(payment)
		tr.audit = database.AuditLog{
			JobID:         jobID,
			Event:         string(event.Type),
			EventID:       event.ID,
			SessionID:     session.ID,
			Amount:        session.AmountTotal,
			Currency:      string(session.Currency),
			PaymentStatus: string(session.PaymentStatus),
			FromStatus:    string(from),
			ToStatus:      string(to),
		}
		if err := tx.Create(&tr.audit).Error; err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}
		return nil
	})
	switch {
	case errors.Is(err, errSkip):
		return OutcomeIgnored, nil
	case err != nil:
		return "", err
	case duplicate:
		log.Info("duplicate webhook delivery")
		return OutcomeDuplicate, nil
	case tr.audit.ID == 0:
		return OutcomeIgnored, nil
	}

	log.Info("job payment status updated",
		slog.String("from", tr.audit.FromStatus),
		slog.String("to", tr.audit.ToStatus),
		slog.String("payment_status", tr.job.StripePaymentStatus),
	)
	p.notifyEmployer(ctx, log, tr.job)
	return OutcomeApplied, nil
}

func (p *Processor) notifyEmployer(ctx context.Context, log *slog.Logger, job database.Job) {
	if p.notifier == nil || job.EmployerID == 0 {
		return
	}
	msg := notify.Message{
		Kind:     notify.KindPayment,
		Status:   job.StripePaymentStatus,
		JobID:    job.ID,
		JobTitle: job.Title,
	}
	switch jobs.PaymentStatus(job.StripePaymentStatus) {
	case jobs.PaymentPaid:
		msg.ErrorCode = errcode.OK
	case jobs.PaymentExpired:
		msg.ErrorCode = errcode.PaymentExpired
		msg.ErrorMessage = "checkout session expired"
	default:
		msg.ErrorCode = errcode.PaymentPending
		msg.ErrorMessage = "checkout completed without payment"
	}
	if err := p.notifier.Publish(ctx, job.EmployerID, msg); err != nil {
		log.Warn("publish payment notification failed", slog.Any("error", err))
	}
}
