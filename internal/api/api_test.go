package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobBoard/internal/ai"
	"jobBoard/internal/auth"
	"jobBoard/internal/catalog"
	"jobBoard/internal/config"
	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/notify"
	"jobBoard/internal/payment"
	"jobBoard/internal/plan"
	"jobBoard/internal/repository"
)

const (
	testWebhookSecret = "whsec_api_test"
	testMetricsToken  = "metrics-token"
)

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

type stubModel struct {
	reply string
}

func (m *stubModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type stubSessions struct {
	params *stripe.CheckoutSessionParams
}

func (s *stubSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.params = params
	return &stripe.CheckoutSession{ID: "cs_api", URL: "https://checkout.stripe.test/cs_api"}, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStore) UploadFile(_ context.Context, objectName string, reader io.Reader, size int64, _ string) (*minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[objectName] = data
	return &minio.UploadInfo{Key: objectName, Size: size}, nil
}

func (s *memStore) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://assets.test/" + objectKey, nil
}

func (s *memStore) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type stubScanner struct {
	err error
}

func (s *stubScanner) Scan(io.Reader) error { return s.err }

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	db       *gorm.DB
	redis    *redis.Client
	auth     *auth.AuthService
	store    *memStore
	scanner  *stubScanner
	sessions *stubSessions
}

type serverOption func(*Deps)

func withoutCheckout() serverOption {
	return func(d *Deps) { d.Checkout = payment.NewCheckout(nil, payment.CheckoutConfig{}) }
}

func withoutAI() serverOption {
	return func(d *Deps) { d.AI = ai.New(nil, time.Second) }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	key := testKey()
	authSvc := auth.NewAuthServiceWithKeys(key, &key.PublicKey, 15*time.Minute, 24*time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := &testServer{
		t:        t,
		db:       db,
		redis:    rdb,
		auth:     authSvc,
		store:    &memStore{},
		scanner:  &stubScanner{},
		sessions: &stubSessions{},
	}

	deps := Deps{
		DB:          db,
		Redis:       rdb,
		Auth:        authSvc,
		LoginLimits: LoginLimits{RatePerHour: 5, LockThreshold: 3, LockTTL: time.Minute},
		Catalog:     catalog.New(repository.NewJobRepository(db), rdb, time.Minute, log),
		Storage:     srv.store,
		Scanner:     srv.scanner,
		AI: ai.New(&stubModel{
			reply: `{"score": 72, "headline": "Solid ops profile", "strengths": ["Zapier"], "missingKeywords": ["SCADA"], "actionPlan": "Quantify wins."}`,
		}, time.Second),
		Checkout:  payment.NewCheckout(srv.sessions, payment.CheckoutConfig{SuccessURL: "https://board.test/ok", CancelURL: "https://board.test/cancel"}),
		Verifier:  payment.NewVerifier(testWebhookSecret),
		Processor: payment.NewProcessor(db, notify.NewRedisPublisher(rdb), log),
		Logger:    log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	cfg := &config.Config{API: config.APIConfig{MetricsToken: testMetricsToken}}
	srv.router = NewRouter(cfg, log)
	RegisterRoutes(srv.router, deps)
	return srv
}

func (s *testServer) token(userID uint, role string) string {
	s.t.Helper()
	pair, err := s.auth.GenerateTokenPair(userID, role)
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedJob(id string, mutate func(*database.Job)) database.Job {
	s.t.Helper()
	job := database.Job{
		ID:                  id,
		Slug:                "job-" + id,
		Title:               "Automation Engineer",
		Company:             "Acme",
		Category:            "Engineering",
		Location:            "Remote",
		Tags:                []string{"Zapier"},
		PlanType:            string(plan.Standard),
		Status:              string(jobs.StatusPublished),
		StripePaymentStatus: string(jobs.PaymentPaid),
		Timestamp:           time.Now().Unix(),
	}
	if mutate != nil {
		mutate(&job)
	}
	require.NoError(s.t, s.db.Create(&job).Error)
	return job
}

func (s *testServer) loadJob(id string) database.Job {
	s.t.Helper()
	var job database.Job
	require.NoError(s.t, s.db.First(&job, "id = ?", id).Error)
	return job
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
