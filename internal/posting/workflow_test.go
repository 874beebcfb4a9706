package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobBoard/internal/jobs"
	"jobBoard/internal/plan"
)

type fakeDrafter struct {
	text  string
	err   error
	calls int
}

func (f *fakeDrafter) DraftDescription(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingHandoff struct {
	jobs []jobs.Listing
	plan plan.Plan
	err  error
}

func (r *recordingHandoff) Handoff(_ context.Context, job jobs.Listing, p plan.Plan) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.jobs = append(r.jobs, job)
	r.plan = p
	return "https://checkout.example/" + job.ID, nil
}

func fillDetails(d *Draft) {
	d.Title = "Automation Lead"
	d.Description = "Own our no-code stack."
}

func fillCompany(d *Draft) {
	d.Company = "Acme Inc"
	d.ApplyURL = "https://acme.example/apply"
}

func TestNextRequiresTitleAndDescription(t *testing.T) {
	w := New(plan.Default())

	err := w.Next()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepDetails, verr.Step)
	assert.Equal(t, []string{"title", "description"}, verr.Fields)
	assert.Equal(t, StepDetails, w.Step())

	w.Edit(func(d *Draft) { d.Title = "Automation Lead" })
	require.Error(t, w.Next())
	assert.Equal(t, StepDetails, w.Step())

	w.Edit(fillDetails)
	require.NoError(t, w.Next())
	assert.Equal(t, StepCompanyApply, w.Step())
}

func TestNextRequiresCompanyAndApplyURL(t *testing.T) {
	w := New(plan.Default())
	w.Edit(fillDetails)
	require.NoError(t, w.Next())

	w.Edit(func(d *Draft) { d.Company = "Acme Inc" })
	var verr *ValidationError
	require.ErrorAs(t, w.Next(), &verr)
	assert.Equal(t, []string{"apply_url"}, verr.Fields)
	assert.Equal(t, StepCompanyApply, w.Step())
}

func TestBackKeepsEdits(t *testing.T) {
	w := New(plan.Default())
	w.Edit(fillDetails)
	require.NoError(t, w.Next())
	w.Edit(fillCompany)
	require.NoError(t, w.Next())
	require.Equal(t, StepReview, w.Step())

	w.Back()
	w.Back()
	w.Back()
	assert.Equal(t, StepDetails, w.Step())
	assert.Equal(t, "Automation Lead", w.Draft().Title)
	assert.Equal(t, "Acme Inc", w.Draft().Company)
}

func TestEnteringReviewFillsPlaceholderLogo(t *testing.T) {
	w, err := Replay(plan.Default(), Draft{
		Title: "A", Description: "B", Company: "Acme Inc", ApplyURL: "https://x",
	})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLogo("Acme Inc"), w.Draft().Logo)

	w, err = Replay(plan.Default(), Draft{
		Title: "A", Description: "B", Company: "Acme Inc", ApplyURL: "https://x", Logo: "https://cdn/logo.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/logo.png", w.Draft().Logo)
}

func TestPlaceholderLogoFollowsCompanyEdits(t *testing.T) {
	w, err := Replay(plan.Default(), Draft{
		Title: "A", Description: "B", Company: "Acme Inc", ApplyURL: "https://x",
	})
	require.NoError(t, err)
	require.Equal(t, PlaceholderLogo("Acme Inc"), w.Draft().Logo)

	w.Back()
	w.Edit(func(d *Draft) { d.Company = "Globex" })
	require.NoError(t, w.Next())
	assert.Equal(t, PlaceholderLogo("Globex"), w.Draft().Logo)

	w.Edit(func(d *Draft) { d.Company = "Initech" })
	job, _, err := w.Submit(context.Background(), &recordingHandoff{})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLogo("Initech"), job.Logo)

	// A client replaying the reviewed draft echoes the old placeholder back.
	echoed := w.Draft()
	echoed.Company = "Umbrella"
	w, err = Replay(plan.Default(), echoed)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLogo("Umbrella"), w.Draft().Logo)
}

func TestUploadedLogoSurvivesCompanyEdits(t *testing.T) {
	w, err := Replay(plan.Default(), Draft{
		Title: "A", Description: "B", Company: "Acme Inc", ApplyURL: "https://x",
	})
	require.NoError(t, err)

	w.Back()
	w.Edit(func(d *Draft) {
		d.Company = "Globex"
		d.Logo = "https://cdn/globex.png"
	})
	require.NoError(t, w.Next())
	assert.Equal(t, "https://cdn/globex.png", w.Draft().Logo)
}

func TestPlaceholderLogoIsStable(t *testing.T) {
	first := PlaceholderLogo("Acme Inc")
	assert.Equal(t, first, PlaceholderLogo("Acme Inc"))
	assert.Equal(t, first, PlaceholderLogo("AcmeInc"))
	assert.Equal(t, first, PlaceholderLogo(" Acme\tInc "))
	assert.NotEqual(t, first, PlaceholderLogo("Acme Corp"))
}

func TestSubmitOnlyFromReview(t *testing.T) {
	w := New(plan.Default())
	w.Edit(fillDetails)
	h := &recordingHandoff{}

	_, _, err := w.Submit(context.Background(), h)
	assert.ErrorIs(t, err, ErrNotAtReview)
	assert.Empty(t, h.jobs)
}

func TestSubmitAssemblesJob(t *testing.T) {
	w := New(plan.Plan{Type: plan.FeaturedPro, Price: 149})
	w.now = func() time.Time { return time.Unix(1700000000, 0) }
	w.newID = func() (string, error) { return "job123", nil }
	w.Edit(fillDetails)
	require.NoError(t, w.Next())
	w.Edit(fillCompany)
	require.NoError(t, w.Next())

	h := &recordingHandoff{}
	job, url, err := w.Submit(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example/job123", url)
	assert.Equal(t, "job123", job.ID)
	assert.Equal(t, "Just now", job.PostedAt)
	assert.EqualValues(t, 1700000000, job.Timestamp)
	assert.True(t, job.IsFeatured)
	assert.Equal(t, plan.FeaturedPro, job.PlanType)
	assert.Equal(t, PlaceholderLogo("Acme Inc"), job.Logo)
	assert.Equal(t, plan.FeaturedPro, h.plan.Type)

	_, _, err = w.Submit(context.Background(), h)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Len(t, h.jobs, 1)
}

func TestSubmitStandardIsNotFeatured(t *testing.T) {
	w, err := Replay(plan.Default(), Draft{Title: "A", Description: "B", Company: "C", ApplyURL: "D"})
	require.NoError(t, err)
	job, _, err := w.Submit(context.Background(), &recordingHandoff{})
	require.NoError(t, err)
	assert.False(t, job.IsFeatured)
	assert.NotEmpty(t, job.ID)
}

func TestSubmitHandoffFailureAllowsRetry(t *testing.T) {
	w, err := Replay(plan.Default(), Draft{Title: "A", Description: "B", Company: "C", ApplyURL: "D"})
	require.NoError(t, err)

	h := &recordingHandoff{err: errors.New("stripe down")}
	_, _, err = w.Submit(context.Background(), h)
	require.Error(t, err)

	h.err = nil
	_, _, err = w.Submit(context.Background(), h)
	require.NoError(t, err)
}

func TestDraftWithAI(t *testing.T) {
	w := New(plan.Default())
	d := &fakeDrafter{text: "Generated body"}

	assert.ErrorIs(t, w.DraftWithAI(context.Background(), d, "n8n"), ErrTitleRequired)
	assert.Zero(t, d.calls)

	w.Edit(func(dr *Draft) {
		dr.Title = "Automation Lead"
		dr.Description = "manual text"
	})
	d.err = errors.New("ai unavailable")
	require.Error(t, w.DraftWithAI(context.Background(), d, ""))
	assert.Equal(t, "manual text", w.Draft().Description)

	d.err = nil
	require.NoError(t, w.DraftWithAI(context.Background(), d, "n8n"))
	assert.Equal(t, "Generated body", w.Draft().Description)

	require.NoError(t, w.Next())
	assert.ErrorIs(t, w.DraftWithAI(context.Background(), d, ""), ErrNotAtDetails)
}

func TestUpgradePlan(t *testing.T) {
	w := New(plan.Default())
	assert.Equal(t, plan.FeaturedPro, w.UpgradePlan().Type)
	assert.Equal(t, plan.EliteManaged, w.UpgradePlan().Type)
	assert.Equal(t, plan.Plan{Type: plan.EliteManaged, Price: 249}, w.UpgradePlan())
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("2")
	require.NoError(t, err)
	assert.Equal(t, StepCompanyApply, s)

	s, err = ParseStep("Review")
	require.NoError(t, err)
	assert.Equal(t, StepReview, s)

	_, err = ParseStep("4")
	assert.Error(t, err)
}
