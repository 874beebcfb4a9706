package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply   string
	err     error
	calls   int
	prompts []string
	block   bool
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestDraftDescription(t *testing.T) {
	model := &fakeModel{reply: "  We are hiring an automation lead.\n"}
	c := New(model, time.Second)

	out, err := c.DraftDescription(context.Background(), "Automation Lead", "Zapier, n8n")
	require.NoError(t, err)
	assert.Equal(t, "We are hiring an automation lead.", out)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Automation Lead")
	assert.Contains(t, model.prompts[0], "Zapier, n8n")
}

func TestDraftDescriptionRejectsEmptyTitleWithoutCalling(t *testing.T) {
	model := &fakeModel{reply: "x"}
	c := New(model, time.Second)

	_, err := c.DraftDescription(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, model.calls)
}

func TestUnconfiguredClient(t *testing.T) {
	c := New(nil, time.Second)
	assert.False(t, c.Configured())

	_, err := c.DraftDescription(context.Background(), "Ops", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.AuditResume(context.Background(), "resume")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAuditResume(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"score\": 82, \"headline\": \"Strong ops profile\", \"strengths\": [\"Zapier\"], \"missingKeywords\": [\"SQL\"], \"actionPlan\": \"Add metrics.\"}\n```"}
	c := New(model, time.Second)

	audit, err := c.AuditResume(context.Background(), "Built 40 Zapier workflows")
	require.NoError(t, err)
	assert.Equal(t, 82, audit.Score)
	assert.Equal(t, "Strong ops profile", audit.Headline)
	assert.Equal(t, []string{"Zapier"}, audit.Strengths)
	assert.Equal(t, []string{"SQL"}, audit.MissingKeywords)
	assert.Equal(t, "Add metrics.", audit.ActionPlan)
}

func TestResumeAuditJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(ResumeAudit{Score: 70, Headline: "h", Strengths: []string{"s"}, MissingKeywords: []string{"k"}, ActionPlan: "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":70,"headline":"h","strengths":["s"],"missing_keywords":["k"],"action_plan":"p"}`, string(raw))
}

func TestAuditResumeMalformed(t *testing.T) {
	cases := map[string]string{
		"prose":         "I think this resume is great!",
		"missing score": `{"headline": "ok"}`,
		"truncated":     `{"score": 70, "headline": "`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(&fakeModel{reply: reply}, time.Second)
			_, err := c.AuditResume(context.Background(), "resume text")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseResumeAuditClampsScore(t *testing.T) {
	audit, err := ParseResumeAudit(`{"score": 140}`)
	require.NoError(t, err)
	assert.Equal(t, 100, audit.Score)
	assert.NotNil(t, audit.Strengths)
	assert.NotNil(t, audit.MissingKeywords)
}

func TestAuditResumeTruncatesLongInput(t *testing.T) {
	model := &fakeModel{reply: `{"score": 50}`}
	c := New(model, time.Second)

	_, err := c.AuditResume(context.Background(), strings.Repeat("a", maxResumeChars+500))
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	assert.Less(t, len(model.prompts[0]), maxResumeChars+len(auditPrompt))
}

func TestAuditResumeTruncatesOnRuneBoundary(t *testing.T) {
	model := &fakeModel{reply: `{"score": 50}`}
	c := New(model, time.Second)

	// "é" is two bytes, so the cut lands mid-rune without a boundary check.
	text := "a" + strings.Repeat("é", maxResumeChars)
	_, err := c.AuditResume(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	assert.True(t, utf8.ValidString(model.prompts[0]))
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 10))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	assert.Equal(t, "a", truncateUTF8("aé", 2))
	assert.Equal(t, "aé", truncateUTF8("aéb", 3))
	assert.Equal(t, "", truncateUTF8("日本", 2))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream 503")}
	c := New(model, time.Second)

	for i := 0; i < 3; i++ {
		_, err := c.DraftDescription(context.Background(), "Ops", "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.DraftDescription(context.Background(), "Ops", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, model.calls)
}

func TestInflightCancelsPrevious(t *testing.T) {
	reg := NewInflight()

	first, releaseFirst := reg.Start(context.Background(), "user:1")
	second, releaseSecond := reg.Start(context.Background(), "user:1")

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())

	// releasing the stale request must not drop the newer entry
	releaseFirst()
	assert.Equal(t, 1, reg.Len())

	releaseSecond()
	assert.Equal(t, 0, reg.Len())
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestInflightKeysAreIndependent(t *testing.T) {
	reg := NewInflight()
	a, releaseA := reg.Start(context.Background(), "user:1")
	defer releaseA()
	b, releaseB := reg.Start(context.Background(), "user:2")
	defer releaseB()

	assert.NoError(t, a.Err())
	assert.NoError(t, b.Err())
	assert.Equal(t, 2, reg.Len())
}

func TestAuditCancelledByNewerRequest(t *testing.T) {
	model := &fakeModel{block: true}
	c := New(model, 5*time.Second)
	reg := NewInflight()

	ctx, release := reg.Start(context.Background(), "user:1")
	defer release()
	done := make(chan error, 1)
	go func() {
		_, err := c.AuditResume(ctx, "resume")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_, releaseNew := reg.Start(context.Background(), "user:1")
	defer releaseNew()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stale audit was not cancelled")
	}
}
