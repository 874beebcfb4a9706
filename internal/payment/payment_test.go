package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobBoard/internal/database"
	"jobBoard/internal/errcode"
	"jobBoard/internal/jobs"
	"jobBoard/internal/notify"
	"jobBoard/internal/plan"
	"jobBoard/internal/repository"
)

const testSecret = "whsec_test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[uint][]notify.Message
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[uint][]notify.Message{}
	}
	p.sent[userID] = append(p.sent[userID], msg)
	return nil
}

func seedJob(t *testing.T, db *gorm.DB, id string, status jobs.Status) {
	t.Helper()
	require.NoError(t, db.Create(&database.Job{
		ID:                  id,
		Slug:                "slug-" + id,
		Title:               "Ops Lead",
		EmployerID:          9,
		Status:              string(status),
		StripePaymentStatus: string(jobs.PaymentUnpaid),
	}).Error)
}

func checkoutEvent(t *testing.T, eventID string, eventType stripe.EventType, sessionID, jobID, paymentStatus string) stripe.Event {
	t.Helper()
	metadata := map[string]string{}
	if jobID != "" {
		metadata[MetadataJobID] = jobID
	}
	obj, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"object":         "checkout.session",
		"payment_status": paymentStatus,
		"amount_total":   14900,
		"currency":       "usd",
		"metadata":       metadata,
	})
	require.NoError(t, err)
	return stripe.Event{
		ID:   eventID,
		Type: eventType,
		Data: &stripe.EventData{Raw: obj},
	}
}

func loadJob(t *testing.T, db *gorm.DB, id string) database.Job {
	t.Helper()
	var job database.Job
	require.NoError(t, db.First(&job, "id = ?", id).Error)
	return job
}

func auditCount(t *testing.T, db *gorm.DB, jobID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&database.AuditLog{}).Where("job_id = ?", jobID).Count(&n).Error)
	return n
}

func TestVerifier(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	v := NewVerifier(testSecret)
	event, err := v.Verify(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventTypeCheckoutSessionCompleted, event.Type)

	_, err = v.Verify(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewVerifier("whsec_other").Verify(payload, signed.Header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	tampered := []byte(strings.Replace(string(payload), "cs_1", "cs_2", 1))
	_, err = v.Verify(tampered, signed.Header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestProcessor_CompletedPaid(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	p := NewProcessor(db, pub, nil)
	seedJob(t, db, "job1", jobs.StatusDraft)

	out, err := p.Handle(context.Background(), checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "job1", "paid"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	job := loadJob(t, db, "job1")
	assert.Equal(t, string(jobs.StatusPendingReview), job.Status)
	assert.Equal(t, string(jobs.PaymentPaid), job.StripePaymentStatus)
	assert.Equal(t, "cs_1", job.StripeSessionID)

	var audit database.AuditLog
	require.NoError(t, db.First(&audit, "job_id = ?", "job1").Error)
	assert.Equal(t, "cs_1", audit.SessionID)
	assert.Equal(t, int64(14900), audit.Amount)
	assert.Equal(t, "usd", audit.Currency)
	assert.Equal(t, "paid", audit.PaymentStatus)
	assert.Equal(t, "draft", audit.FromStatus)
	assert.Equal(t, "pending_review", audit.ToStatus)

	require.Len(t, pub.sent[9], 1)
	assert.Equal(t, errcode.OK, pub.sent[9][0].ErrorCode)
}

func TestProcessor_CompletedUnpaidReturnsToDraft(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)
	seedJob(t, db, "job1", jobs.StatusPendingReview)

	out, err := p.Handle(context.Background(), checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "job1", "unpaid"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	job := loadJob(t, db, "job1")
	assert.Equal(t, string(jobs.StatusDraft), job.Status)
	assert.Equal(t, string(jobs.PaymentUnpaid), job.StripePaymentStatus)
}

func TestProcessor_DuplicateDeliveryAppliesOnce(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)
	seedJob(t, db, "job1", jobs.StatusDraft)
	ev := checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "job1", "paid")

	out, err := p.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	// a redelivery with a new event id but the same session is still a replay
	replay := checkoutEvent(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "job1", "unpaid")
	out, err = p.Handle(context.Background(), replay)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)

	assert.Equal(t, string(jobs.StatusPendingReview), loadJob(t, db, "job1").Status)
	assert.Equal(t, int64(1), auditCount(t, db, "job1"))
}

func TestProcessor_ExpiredLeavesStatus(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	p := NewProcessor(db, pub, nil)
	seedJob(t, db, "job1", jobs.StatusDraft)

	out, err := p.Handle(context.Background(), checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionExpired, "cs_1", "job1", "unpaid"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	job := loadJob(t, db, "job1")
	assert.Equal(t, string(jobs.StatusDraft), job.Status)
	assert.Equal(t, string(jobs.PaymentExpired), job.StripePaymentStatus)
	assert.Equal(t, int64(1), auditCount(t, db, "job1"))
	require.Len(t, pub.sent[9], 1)
	assert.Equal(t, errcode.PaymentExpired, pub.sent[9][0].ErrorCode)
}

func TestProcessor_PublishedJobIsNeverRegressed(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)
	seedJob(t, db, "job1", jobs.StatusPublished)

	for i, ev := range []stripe.Event{
		checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "job1", "unpaid"),
		checkoutEvent(t, "evt_2", stripe.EventTypeCheckoutSessionExpired, "cs_1", "job1", "unpaid"),
	} {
		out, err := p.Handle(context.Background(), ev)
		require.NoError(t, err, "event %d", i)
		assert.Equal(t, OutcomeIgnored, out)
	}

	job := loadJob(t, db, "job1")
	assert.Equal(t, string(jobs.StatusPublished), job.Status)
	assert.Equal(t, string(jobs.PaymentUnpaid), job.StripePaymentStatus)
	assert.Zero(t, auditCount(t, db, "job1"))
}

func TestProcessor_MissingJobIDIsNoop(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)

	out, err := p.Handle(context.Background(), checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "", "paid"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	var n int64
	require.NoError(t, db.Model(&database.ProcessedWebhook{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestProcessor_UnknownJobDoesNotConsumeDedupeKey(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)

	out, err := p.Handle(context.Background(), checkoutEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, "cs_1", "ghost", "paid"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	var n int64
	require.NoError(t, db.Model(&database.ProcessedWebhook{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestProcessor_IgnoresOtherEventTypes(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db, nil, nil)
	out, err := p.Handle(context.Background(), stripe.Event{ID: "evt_1", Type: "invoice.paid"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
}

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.test/cs_new"}, nil
}

func TestCheckout_CreateSession(t *testing.T) {
	sessions := &fakeSessions{}
	c := NewCheckout(sessions, CheckoutConfig{SuccessURL: "https://board.test/ok", CancelURL: "https://board.test/cancel"})
	elite, _ := plan.Lookup(plan.EliteManaged)

	session, err := c.CreateSession(context.Background(), jobs.Listing{ID: "job1", Title: "Ops Lead"}, elite)
	require.NoError(t, err)
	assert.Equal(t, "cs_new", session.ID)

	params := sessions.params
	require.NotNil(t, params)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "job1", params.Metadata[MetadataJobID])
	assert.Equal(t, "Elite Managed", params.Metadata[MetadataPlanType])
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(24900), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *params.LineItems[0].PriceData.Currency)
}

func TestCheckout_Unconfigured(t *testing.T) {
	c := NewStripeCheckout("", CheckoutConfig{})
	_, err := c.CreateSession(context.Background(), jobs.Listing{ID: "job1"}, plan.Default())
	assert.ErrorIs(t, err, ErrCheckoutUnavailable)
}

func TestHandoff_PersistsDraftAndAttachesSession(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewJobRepository(db)
	c := NewCheckout(&fakeSessions{}, CheckoutConfig{})
	h := NewHandoff(repo, c, 5)

	url, err := h.Handoff(context.Background(), jobs.Listing{ID: "job1", Title: "Ops Lead", Salary: "$90k"}, plan.Default())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_new", url)

	job := loadJob(t, db, "job1")
	assert.Equal(t, "cs_new", job.StripeSessionID)
	assert.Equal(t, uint(5), job.EmployerID)
	assert.Equal(t, string(jobs.StatusDraft), job.Status)
}

func TestHandoff_CheckoutFailure(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewJobRepository(db)
	c := NewCheckout(&fakeSessions{err: errors.New("stripe down")}, CheckoutConfig{})
	h := NewHandoff(repo, c, 5)

	for _, id := range []string{"job1", "job2"} {
		_, err := h.Handoff(context.Background(), jobs.Listing{ID: id, Title: "Ops Lead"}, plan.Default())
		assert.ErrorContains(t, err, "stripe down")
	}

	var count int64
	require.NoError(t, db.Model(&database.Job{}).Where("employer_id = ?", 5).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandoff_UnavailableCheckoutLeavesNoDraft(t *testing.T) {
	db := newTestDB(t)
	h := NewHandoff(repository.NewJobRepository(db), NewStripeCheckout("", CheckoutConfig{}), 5)

	_, err := h.Handoff(context.Background(), jobs.Listing{ID: "job1", Title: "Ops Lead"}, plan.Default())
	require.ErrorIs(t, err, ErrCheckoutUnavailable)

	var count int64
	require.NoError(t, db.Model(&database.Job{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingAttachStore struct {
	*repository.JobRepository
}

func (failingAttachStore) AttachCheckoutSession(context.Context, string, string) error {
	return errors.New("attach failed")
}

func TestHandoff_AttachFailureDiscardsDraft(t *testing.T) {
	db := newTestDB(t)
	store := failingAttachStore{repository.NewJobRepository(db)}
	h := NewHandoff(store, NewCheckout(&fakeSessions{}, CheckoutConfig{}), 5)

	_, err := h.Handoff(context.Background(), jobs.Listing{ID: "job1", Title: "Ops Lead"}, plan.Default())
	require.ErrorContains(t, err, "attach failed")

	var count int64
	require.NoError(t, db.Model(&database.Job{}).Where("id = ?", "job1").Count(&count).Error)
	assert.Zero(t, count)
}
