// Package posting implements the three-step job posting workflow:
//
//	Details ──► CompanyApply ──► Review ──► Submit
//	   ◄────────────◄
//
// Moving forward is guarded by field validation; moving back never loses
// edits. Submit is the only side-effecting operation and is only reachable
// from Review.
package posting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"jobBoard/internal/jobs"
	"jobBoard/internal/plan"
)

// Step is a workflow state.
type Step int

const (
	StepDetails Step = iota + 1
	StepCompanyApply
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepCompanyApply:
		return "company_apply"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ParseStep accepts the step number or its name.
func ParseStep(raw string) (Step, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "details":
		return StepDetails, nil
	case "2", "company_apply":
		return StepCompanyApply, nil
	case "3", "review":
		return StepReview, nil
	}
	return 0, fmt.Errorf("unknown posting step %q", raw)
}

const (
	justNow        = "Just now"
	idAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength       = 12
	placeholderURL = "https://api.dicebear.com/7.x/initials/svg?seed="
)

var (
	ErrNotAtReview      = errors.New("posting: submit is only allowed from the review step")
	ErrAlreadySubmitted = errors.New("posting: already submitted")
	ErrNotAtDetails     = errors.New("posting: ai drafting is only available on the details step")
	ErrTitleRequired    = errors.New("posting: title is required before drafting")
)

// ValidationError lists the fields that block a transition.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s step: missing %s", e.Step, strings.Join(e.Fields, ", "))
}

// Draft is the job being composed. Field edits survive every transition.
type Draft struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	Location           string   `json:"location"`
	Salary             string   `json:"salary"`
	Tags               []string `json:"tags"`
	Tools              []string `json:"tools"`
	Benefits           []string `json:"benefits"`
	Company            string   `json:"company"`
	CompanyDescription string   `json:"company_description"`
	Logo               string   `json:"logo"`
	ApplyURL           string   `json:"apply_url"`
}

// Drafter generates description text for a title.
type Drafter interface {
	DraftDescription(ctx context.Context, title, keywords string) (string, error)
}

// Handoff receives the assembled job, typically persisting it and opening a
// checkout session. The returned string is the payment URL.
type Handoff interface {
	Handoff(ctx context.Context, job jobs.Listing, p plan.Plan) (string, error)
}

// Workflow is the posting state machine for one employer session.
type Workflow struct {
	step      Step
	draft     Draft
	plan      plan.Plan
	submitted bool
	now       func() time.Time
	newID     func() (string, error)
}

// New starts a workflow on the details step with the plan chosen on the
// pricing page.
func New(p plan.Plan) *Workflow {
	if _, ok := plan.Lookup(p.Type); !ok {
		p = plan.Default()
	}
	return &Workflow{
		step:  StepDetails,
		plan:  p,
		now:   time.Now,
		newID: func() (string, error) { return gonanoid.Generate(idAlphabet, idLength) },
	}
}

// Step returns the current state.
func (w *Workflow) Step() Step { return w.step }

// Draft returns a copy of the current draft.
func (w *Workflow) Draft() Draft { return w.draft }

// Plan returns the selected plan.
func (w *Workflow) Plan() plan.Plan { return w.plan }

// Edit applies fn to the draft. Edits are allowed on any step before submit.
func (w *Workflow) Edit(fn func(*Draft)) {
	if w.submitted {
		return
	}
	fn(&w.draft)
}

// Next validates the current step and advances. On failure the step is
// unchanged and a *ValidationError is returned.
func (w *Workflow) Next() error {
	if w.step == StepReview {
		return nil
	}
	if err := ValidateStep(w.step, w.draft); err != nil {
		return err
	}
	w.step++
	if w.step == StepReview {
		w.enterReview()
	}
	return nil
}

// Back moves one step backwards without touching the draft.
func (w *Workflow) Back() {
	if w.submitted || w.step == StepDetails {
		return
	}
	w.step--
}

// UpgradePlan moves the selection one tier up; a no-op on the top tier.
func (w *Workflow) UpgradePlan() plan.Plan {
	if !w.submitted {
		w.plan = plan.Upgrade(w.plan.Type)
	}
	return w.plan
}

// DraftWithAI replaces the description with generated text. On error the
// description is left untouched.
func (w *Workflow) DraftWithAI(ctx context.Context, drafter Drafter, keywords string) error {
	if w.step != StepDetails {
		return ErrNotAtDetails
	}
	title := strings.TrimSpace(w.draft.Title)
	if title == "" {
		return ErrTitleRequired
	}
	text, err := drafter.DraftDescription(ctx, title, strings.TrimSpace(keywords))
	if err != nil {
		return err
	}
	w.draft.Description = text
	return nil
}

// Submit assembles the job and hands it off. It may succeed only once.
func (w *Workflow) Submit(ctx context.Context, handoff Handoff) (jobs.Listing, string, error) {
	if w.submitted {
		return jobs.Listing{}, "", ErrAlreadySubmitted
	}
	if w.step != StepReview {
		return jobs.Listing{}, "", ErrNotAtReview
	}
	// Guards are re-checked; edits after entering review may have blanked fields.
	for _, s := range []Step{StepDetails, StepCompanyApply} {
		if err := ValidateStep(s, w.draft); err != nil {
			return jobs.Listing{}, "", err
		}
	}

	id, err := w.newID()
	if err != nil {
		return jobs.Listing{}, "", fmt.Errorf("generate job id: %w", err)
	}
	job := w.assemble(id)

	paymentURL, err := handoff.Handoff(ctx, job, w.plan)
	if err != nil {
		return jobs.Listing{}, "", err
	}
	w.submitted = true
	return job, paymentURL, nil
}

// ValidateStep runs the guard that protects leaving step s.
func ValidateStep(s Step, d Draft) error {
	var missing []string
	switch s {
	case StepDetails:
		if strings.TrimSpace(d.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(d.Description) == "" {
			missing = append(missing, "description")
		}
	case StepCompanyApply:
		if strings.TrimSpace(d.Company) == "" {
			missing = append(missing, "company")
		}
		if strings.TrimSpace(d.ApplyURL) == "" {
			missing = append(missing, "apply_url")
		}
	case StepReview:
	default:
		return fmt.Errorf("unknown posting step %d", int(s))
	}
	if len(missing) > 0 {
		return &ValidationError{Step: s, Fields: missing}
	}
	return nil
}

// PlaceholderLogo derives a stable logo URL from the company name with all
// whitespace removed, so "Acme Inc" and "AcmeInc" share one placeholder.
func PlaceholderLogo(company string) string {
	seed := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, company)
	return placeholderURL + url.QueryEscape(seed)
}

// enterReview derives the placeholder when no logo was supplied. A logo that
// is itself a placeholder is re-derived so it tracks company edits.
func (w *Workflow) enterReview() {
	logo := strings.TrimSpace(w.draft.Logo)
	if logo == "" || strings.HasPrefix(logo, placeholderURL) {
		w.draft.Logo = PlaceholderLogo(w.draft.Company)
	}
}

func (w *Workflow) assemble(id string) jobs.Listing {
	w.enterReview()
	d := w.draft
	return jobs.Listing{
		ID:                 id,
		Title:              strings.TrimSpace(d.Title),
		Company:            strings.TrimSpace(d.Company),
		Logo:               d.Logo,
		Location:           d.Location,
		Type:               d.Type,
		Category:           d.Category,
		Description:        d.Description,
		CompanyDescription: d.CompanyDescription,
		ApplyURL:           strings.TrimSpace(d.ApplyURL),
		Tags:               nonNil(d.Tags),
		Tools:              nonNil(d.Tools),
		Benefits:           nonNil(d.Benefits),
		Salary:             d.Salary,
		PlanType:           w.plan.Type,
		IsFeatured:         plan.IsFeatured(w.plan.Type),
		PostedAt:           justNow,
		Timestamp:          w.now().Unix(),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Replay drives a fresh workflow through every guard with a complete draft,
// leaving it on the review step. Used when the client submits the whole
// form at once.
func Replay(p plan.Plan, d Draft) (*Workflow, error) {
	w := New(p)
	w.Edit(func(target *Draft) { *target = d })
	for w.Step() != StepReview {
		if err := w.Next(); err != nil {
			return w, err
		}
	}
	return w, nil
}
