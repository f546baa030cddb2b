package quicktest

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/model"
)

type stubChecker struct {
	verdicts []model.HardDisqualifier
	err      error
	calls    int
}

func (s *stubChecker) CheckDealBreakers(_ context.Context, _ string, _ []string) ([]model.HardDisqualifier, error) {
	s.calls++
	return s.verdicts, s.err
}

func testCfg() config.QuickTestConfig {
	return config.QuickTestConfig{
		MinYearsExperience:  3,
		RoleMentionCeiling:  8,
		SoftFlagReviewCount: 3,
		RedFlagReviewCount:  3,
	}
}

const strongResume = `Senior Engagement Manager, McKinsey & Company.
Harvard MBA. Led team of 12 consultants across three workstreams.
Increased client revenue 40%, reduced operating costs $25M, improved
margin 15%, delivered 3x pipeline growth, increased retention 22%.`

func strongParsed() *model.ParsedResume {
	return &model.ParsedResume{
		Text:   strongResume,
		Fields: model.ParsedFields{YearsExperience: 8},
	}
}

func TestGate_HardDisqualifierPrecedence(t *testing.T) {
	checker := &stubChecker{verdicts: []model.HardDisqualifier{
		{Rule: "requires US work authorization", Violated: true, Confidence: 0.9, Reason: "visa sponsorship requested"},
	}}
	gate := New(checker, testCfg())

	// A resume that would otherwise pass with a high early score still gets
	// rejected: the hard disqualifier dominates everything.
	result, err := gate.Run(context.Background(), "job-001", "cand-1", strongParsed(), []string{"requires US work authorization"})
	require.NoError(t, err)

	assert.Equal(t, model.RecommendReject, result.Recommendation)
	assert.Equal(t, "fail", result.HardDisqualifierStatus)
	assert.Contains(t, result.Reasoning, "hard disqualifier")
	require.NotNil(t, result.EarlyScoreEstimate)
	assert.Equal(t, 15, *result.EarlyScoreEstimate)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
}

func TestGate_FailOpenCapsRejectAtReview(t *testing.T) {
	checker := &stubChecker{err: eris.New("anthropic: overloaded_error")}
	gate := New(checker, testCfg())

	// Weak profile that scores 25/high, which would be a heuristic reject.
	// With the deal-breaker check down, rejection is capped at review.
	resume := &model.ParsedResume{
		Text:   "Recent graduate seeking opportunities. Completed coursework in business. Increased club membership 10%, organized 5 events, improved attendance 20%.",
		Fields: model.ParsedFields{YearsExperience: 1},
	}
	result, err := gate.Run(context.Background(), "job-001", "cand-2", resume, nil)
	require.NoError(t, err)

	assert.Equal(t, model.RecommendReview, result.Recommendation)
	assert.Contains(t, result.Reasoning, "deal breaker check unavailable")
}

func TestGate_FailOpenDoesNotBlockPass(t *testing.T) {
	checker := &stubChecker{err: eris.New("boom")}
	gate := New(checker, testCfg())

	result, err := gate.Run(context.Background(), "job-001", "cand-3", strongParsed(), nil)
	require.NoError(t, err)

	assert.Equal(t, model.RecommendPass, result.Recommendation)
	assert.Contains(t, result.Reasoning, "deal breaker check unavailable")
}

func TestGate_HighConfidenceStrongProfile(t *testing.T) {
	gate := New(&stubChecker{}, testCfg())

	result, err := gate.Run(context.Background(), "job-001", "cand-4", strongParsed(), nil)
	require.NoError(t, err)

	assert.Equal(t, model.RecommendPass, result.Recommendation)
	require.NotNil(t, result.EarlyScoreEstimate)
	assert.Equal(t, 85, *result.EarlyScoreEstimate)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.Equal(t, "quick_test_v2", result.Source)
}

func TestGate_AmbiguousProfileAbstains(t *testing.T) {
	gate := New(&stubChecker{}, testCfg())

	resume := &model.ParsedResume{
		Text:   "Operations professional focused on process excellence. Increased throughput 20%, reduced waste $2M, improved cycle time 3x.",
		Fields: model.ParsedFields{YearsExperience: 10},
	}
	result, err := gate.Run(context.Background(), "job-001", "cand-5", resume, nil)
	require.NoError(t, err)

	assert.Nil(t, result.EarlyScoreEstimate, "mixed signals must abstain, not guess")
	assert.Equal(t, model.RecommendPass, result.Recommendation)
}

func TestGate_SoftFlagVolumeTriggersReview(t *testing.T) {
	gate := New(&stubChecker{}, testCfg())

	// Elite markers keep the early score abstaining, while low tenure, a gap
	// keyword, and heavy role churn stack three soft flags.
	text := "McKinsey analyst, Harvard graduate. Took a career break in 2019. " +
		strings.Repeat("Moved to a new role. ", 10) +
		"Increased sales 10%, reduced churn 5%, improved NPS 12%."
	resume := &model.ParsedResume{
		Text:   text,
		Fields: model.ParsedFields{YearsExperience: 1},
	}
	result, err := gate.Run(context.Background(), "job-001", "cand-6", resume, nil)
	require.NoError(t, err)

	assert.Nil(t, result.EarlyScoreEstimate)
	assert.GreaterOrEqual(t, len(result.SoftDisqualifiers), 3)
	assert.Equal(t, model.RecommendReview, result.Recommendation)
	assert.Contains(t, result.Reasoning, "soft flags")
}

func TestGate_RedFlagVolumeTriggersReview(t *testing.T) {
	gate := New(&stubChecker{}, testCfg())

	text := "Warehouse associate for 4 months, then clerk for 6 months, then 3 months at a call center. " +
		"Responsible for inventory. Worked on shipments. Helped with sorting. " +
		"Assisted the floor lead. Participated in stand-ups. Duties included labeling."
	resume := &model.ParsedResume{
		Text:   text,
		Fields: model.ParsedFields{YearsExperience: 5},
	}
	result, err := gate.Run(context.Background(), "job-001", "cand-7", resume, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(result.RedFlags), 3)
	assert.Equal(t, model.RecommendReview, result.Recommendation)
	assert.Contains(t, result.Reasoning, "red flags")
}

func TestGate_SoftFlagsNeverRejectAlone(t *testing.T) {
	gate := New(&stubChecker{}, testCfg())

	text := "McKinsey alum, Harvard degree. Career gap in 2020. " + strings.Repeat("New role. ", 12)
	resume := &model.ParsedResume{
		Text:   text,
		Fields: model.ParsedFields{YearsExperience: 1},
	}
	result, err := gate.Run(context.Background(), "job-001", "cand-8", resume, nil)
	require.NoError(t, err)

	assert.NotEqual(t, model.RecommendReject, result.Recommendation)
}
