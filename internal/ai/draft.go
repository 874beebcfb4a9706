package ai

import (
	"context"
	"fmt"
	"strings"
)

const draftPrompt = `You write job descriptions for a remote job board focused on automation and operations roles.

Write a description for the role below. Use short paragraphs followed by a "Responsibilities" list and a "Requirements" list.
Plain text only. No markdown headings, no code fences, no salary figures.

Role title: %s
Keywords to weave in: %s
`

// DraftDescription asks the model for a job description body. title must
// be non-empty; keywords are optional.
func (c *Client) DraftDescription(ctx context.Context, title, keywords string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyInput
	}
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		keywords = "none"
	}

	out, err := c.generate(ctx, kindDraft, fmt.Sprintf(draftPrompt, title, keywords))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(stripFence(out))
	if out == "" {
		return "", ErrMalformed
	}
	return out, nil
}
