package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
)

// ResumeAudit is the structured result of a resume review. It is never
// stored.
type ResumeAudit struct {
	Score           int      `json:"score"`
	Headline        string   `json:"headline"`
	Strengths       []string `json:"strengths"`
	MissingKeywords []string `json:"missing_keywords"`
	ActionPlan      string   `json:"action_plan"`
}

const auditPrompt = `You are a recruiter for automation, no-code and operations roles. Audit the resume below.

Respond with valid JSON only, matching this schema exactly:
{
  "score": 0-100 integer,
  "headline": "one sentence verdict",
  "strengths": ["..."],
  "missingKeywords": ["..."],
  "actionPlan": "short paragraph"
}

### RESUME:
%s
`

// wire shape uses the camelCase keys the prompt asks for
type auditWire struct {
	Score           *float64 `json:"score"`
	Headline        string   `json:"headline"`
	Strengths       []string `json:"strengths"`
	MissingKeywords []string `json:"missingKeywords"`
	ActionPlan      string   `json:"actionPlan"`
}

// AuditResume scores a resume. Output that is not the expected JSON is
// reported as ErrMalformed.
func (c *Client) AuditResume(ctx context.Context, text string) (*ResumeAudit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	text = truncateUTF8(text, maxResumeChars)

	out, err := c.generate(ctx, kindAudit, fmt.Sprintf(auditPrompt, text), llms.WithJSONMode())
	if err != nil {
		return nil, err
	}
	return ParseResumeAudit(out)
}

// ParseResumeAudit decodes model output, tolerating a surrounding code fence.
func ParseResumeAudit(raw string) (*ResumeAudit, error) {
	var w auditWire
	if err := json.Unmarshal([]byte(stripFence(raw)), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Score == nil {
		return nil, fmt.Errorf("%w: missing score", ErrMalformed)
	}

	score := int(*w.Score)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	audit := &ResumeAudit{
		Score:           score,
		Headline:        strings.TrimSpace(w.Headline),
		Strengths:       nonNil(w.Strengths),
		MissingKeywords: nonNil(w.MissingKeywords),
		ActionPlan:      strings.TrimSpace(w.ActionPlan),
	}
	return audit, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
