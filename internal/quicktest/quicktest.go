// Package quicktest runs the fast pre-screen that sits in front of full
// evaluation. It filters obvious rejects, surfaces review cases, and lets
// everything else through to the gestalt stage.
package quicktest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/extract"
	"github.com/vrijenattawar/ZoATS/internal/model"
)

// Gate evaluates candidates against hard disqualifiers, soft flags, and red
// flags, emitting a pass/reject/review recommendation.
type Gate struct {
	checker extract.DealBreakerChecker
	cfg     config.QuickTestConfig
}

func New(checker extract.DealBreakerChecker, cfg config.QuickTestConfig) *Gate {
	return &Gate{checker: checker, cfg: cfg}
}

// Run executes the quick test. The deal-breaker check fails open: if it
// errors, the candidate is not rejected on hard grounds and the failure is
// recorded in the reasoning.
func (g *Gate) Run(ctx context.Context, jobID, candidateID string, resume *model.ParsedResume, rules []string) (*model.QuickTestResult, error) {
	result := &model.QuickTestResult{
		Timestamp:   time.Now().UTC(),
		CandidateID: candidateID,
		JobID:       jobID,
		Source:      "quick_test_v2",
	}

	hardCheckFailed := false
	hard, err := g.checker.CheckDealBreakers(ctx, resume.Text, rules)
	if err != nil {
		zap.L().Warn("quicktest: deal breaker check failed, failing open",
			zap.String("candidate", candidateID),
			zap.Error(err),
		)
		hardCheckFailed = true
	}
	result.HardDisqualifiers = hard
	result.HardDisqualifierStatus = "pass"
	for _, h := range hard {
		if h.Violated {
			result.HardDisqualifierStatus = "fail"
			break
		}
	}

	result.SoftDisqualifiers = g.softFlags(resume)
	result.RedFlags = detectRedFlags(resume.Text)
	result.EarlyScoreEstimate, result.Confidence = g.earlyScore(resume, result.HardDisqualifierStatus)

	g.recommend(result, hardCheckFailed)
	return result, nil
}

// recommend applies the precedence order: hard failure, then confident
// extreme early scores, then soft flag volume, then red flag volume.
func (g *Gate) recommend(r *model.QuickTestResult, hardCheckFailed bool) {
	softReview := len(r.SoftDisqualifiers) >= g.cfg.SoftFlagReviewCount
	for _, f := range r.SoftDisqualifiers {
		if f.Severity == "high" {
			softReview = true
		}
	}

	switch {
	case r.HardDisqualifierStatus == "fail":
		r.Recommendation = model.RecommendReject
		r.Reasoning = "Failed hard disqualifier(s)"
	case r.EarlyScoreEstimate != nil && r.Confidence == model.ConfidenceHigh && *r.EarlyScoreEstimate >= 70:
		r.Recommendation = model.RecommendPass
		r.Reasoning = fmt.Sprintf("Strong early signals (estimated score: %d)", *r.EarlyScoreEstimate)
	case r.EarlyScoreEstimate != nil && r.Confidence == model.ConfidenceHigh && *r.EarlyScoreEstimate <= 30:
		r.Recommendation = model.RecommendReject
		r.Reasoning = fmt.Sprintf("Weak profile (estimated score: %d)", *r.EarlyScoreEstimate)
	case softReview:
		r.Recommendation = model.RecommendReview
		r.Reasoning = fmt.Sprintf("%d soft flags detected", len(r.SoftDisqualifiers))
	case len(r.RedFlags) >= g.cfg.RedFlagReviewCount:
		r.Recommendation = model.RecommendReview
		r.Reasoning = fmt.Sprintf("%d red flags detected", len(r.RedFlags))
	default:
		r.Recommendation = model.RecommendPass
		r.Reasoning = "No major concerns in quick test"
	}

	if hardCheckFailed {
		// Without a working hard check, pass is still allowed but a reject
		// would be on heuristics alone; cap at review and note the failure.
		if r.Recommendation == model.RecommendReject {
			r.Recommendation = model.RecommendReview
		}
		r.Reasoning += " (deal breaker check unavailable)"
	}
}

var (
	seniorTitleRe = regexp.MustCompile(`(?i)(director|vp|head|chief)`)
	gapRe         = regexp.MustCompile(`(?i)\b(gap|break|sabbatical|hiatus|unemployed)\b`)
	monthsRe      = regexp.MustCompile(`(?i)(\d+)\s*months?`)
	metricRe      = regexp.MustCompile(`(?i)\d+%|\$\d+|\d+x|increased|decreased|reduced|improved`)
)

func (g *Gate) softFlags(resume *model.ParsedResume) []model.SoftFlag {
	var flags []model.SoftFlag
	text := resume.Text
	lower := strings.ToLower(text)

	if resume.Fields.YearsExperience < float64(g.cfg.MinYearsExperience) {
		flags = append(flags, model.SoftFlag{
			Flag:     "limited_experience",
			Severity: "medium",
			Detail:   fmt.Sprintf("Only %.0f years experience (may be junior for role)", resume.Fields.YearsExperience),
		})
	}

	roleMentions := strings.Count(lower, "position") + strings.Count(lower, "role")
	for y := time.Now().Year() - 2; y <= time.Now().Year(); y++ {
		roleMentions += strings.Count(text, fmt.Sprintf("%d", y))
	}
	if roleMentions > g.cfg.RoleMentionCeiling {
		flags = append(flags, model.SoftFlag{
			Flag:     "possible_job_hopping",
			Severity: "low",
			Detail:   fmt.Sprintf("Many role mentions (%d) - verify tenure", roleMentions),
		})
	}

	if m := gapRe.FindString(text); m != "" {
		flags = append(flags, model.SoftFlag{
			Flag:     "career_gap_mentioned",
			Severity: "low",
			Detail:   fmt.Sprintf("Possible gap detected (keyword: %s)", strings.ToLower(m)),
		})
	}

	// Senior titles early in the resume but not later suggest a declining
	// trajectory.
	third := len(text) / 3
	if third > 0 && seniorTitleRe.MatchString(text[:third]) && !seniorTitleRe.MatchString(text[third:]) {
		flags = append(flags, model.SoftFlag{
			Flag:     "possible_declining_trajectory",
			Severity: "medium",
			Detail:   "Senior titles appear early but not later - verify progression",
		})
	}

	return flags
}

func detectRedFlags(text string) []model.RedFlag {
	var flags []model.RedFlag
	lower := strings.ToLower(text)

	shortStints := monthsRe.FindAllString(text, -1)
	if len(shortStints) >= 3 {
		flags = append(flags, model.RedFlag{
			Flag:     "multiple_short_stints",
			Evidence: fmt.Sprintf("%d roles with <1 year tenure", len(shortStints)),
		})
	}

	metrics := metricRe.FindAllString(text, -1)
	if len(metrics) < 3 {
		flags = append(flags, model.RedFlag{
			Flag:     "lack_of_quantified_impact",
			Evidence: fmt.Sprintf("Only %d quantified achievements", len(metrics)),
		})
	}

	genericCount := 0
	for _, phrase := range []string{"responsible for", "worked on", "helped with", "assisted", "participated", "duties included", "tasked with", "involved in"} {
		if strings.Contains(lower, phrase) {
			genericCount++
		}
	}
	if genericCount > 5 {
		flags = append(flags, model.RedFlag{
			Flag:     "vague_descriptions",
			Evidence: fmt.Sprintf("%d instances of generic language", genericCount),
		})
	}

	return flags
}

var impactSignalRe = regexp.MustCompile(`(?i)\d+%|\$\d+|\d+x|increased.*\d+|reduced.*\d+`)

var (
	topCompanies = []string{"mckinsey", "bcg", "bain", "goldman", "google", "microsoft", "amazon", "apple", "meta", "netflix"}
	topSchools   = []string{"harvard", "stanford", "mit", "yale", "princeton", "wharton", "columbia", "chicago", "berkeley"}
	leadership   = []string{"led team", "managed", "director", "vp", "head of"}
)

// earlyScore estimates an obvious-case score. Ambiguous profiles return nil
// and abstain, deferring to the gestalt stage.
func (g *Gate) earlyScore(resume *model.ParsedResume, hardStatus string) (*int, model.Confidence) {
	if hardStatus == "fail" {
		return intPtr(15), model.ConfidenceHigh
	}

	lower := strings.ToLower(resume.Text)
	years := resume.Fields.YearsExperience

	hasTopCompany := containsAny(lower, topCompanies)
	hasTopSchool := containsAny(lower, topSchools)
	hasLeadership := containsAny(lower, leadership)
	hasImpact := len(impactSignalRe.FindAllString(resume.Text, -1)) >= 5

	strong := 0
	for _, b := range []bool{hasTopCompany, hasTopSchool, hasLeadership, hasImpact} {
		if b {
			strong++
		}
	}

	switch {
	case strong >= 3 && years >= 5:
		return intPtr(85), model.ConfidenceHigh
	case strong >= 2 && years >= 4:
		return intPtr(70), model.ConfidenceMedium
	case strong == 0 && years < 2:
		return intPtr(25), model.ConfidenceHigh
	case strong <= 1 && years < 3:
		return intPtr(35), model.ConfidenceMedium
	}
	return nil, ""
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }
