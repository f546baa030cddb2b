package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

var titleCase = cases.Title(language.English)

// SimExtractor is a deterministic, offline implementation of the extraction
// interfaces. It mirrors the shape of the LLM output closely enough to drive
// the whole pipeline in dry runs and tests.
type SimExtractor struct{}

func NewSimExtractor() *SimExtractor { return &SimExtractor{} }

var (
	revenueRe = regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?)\s*([MBK])\s*(?:in\s+)?(?:revenue|sales|ARR|bookings)`)
	generated = regexp.MustCompile(`(?i)(?:generated|achieved|drove)\s+\$(\d+(?:\.\d+)?)\s*([MBK])`)
	savingsRe = regexp.MustCompile(`(?i)(?:saved|reduced costs?|cut costs?)[^.\n]*?\$(\d+(?:\.\d+)?)\s*([MBK])`)
	growthRe  = regexp.MustCompile(`(?i)(?:grew|increased|improved)[^.\n]*?(\d+)%`)

	acceptanceRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)%\s*acceptance`)
	yearsRe      = regexp.MustCompile(`(?i)(\d+)\+?\s*years?`)
)

// topSchools and eliteFirms carry boost factors for pedigree signals.
var topSchools = map[string]float64{
	"harvard": 1.3, "stanford": 1.3, "wharton": 1.3, "mit": 1.3,
	"yale": 1.25, "princeton": 1.25,
	"cornell": 1.15, "columbia": 1.15, "chicago": 1.15,
}

var eliteFirms = map[string]float64{
	"mckinsey": 1.4, "bain": 1.35, "bcg": 1.35,
	"google": 1.15, "meta": 1.1, "amazon": 1.1, "microsoft": 1.1, "apple": 1.1,
	"deloitte consulting": 1.2, "oliver wyman": 1.15,
}

var consultingFirms = []string{"mckinsey", "bain", "bcg", "deloitte consulting", "accenture", "oliver wyman", "strategy consulting"}

// roleMismatchTerms signal a non-business background with no transfer path.
var roleMismatchTerms = []string{"barista", "cashier", "retail", "server", "waiter", "sales associate", "manual labor"}

func unitMultiplier(unit string) float64 {
	switch strings.ToUpper(unit) {
	case "B":
		return 1000
	case "K":
		return 0.001
	default:
		return 1
	}
}

func (s *SimExtractor) ExtractSignals(_ context.Context, resumeText, _ string) (*model.ExtractionResult, error) {
	lower := strings.ToLower(resumeText)
	result := &model.ExtractionResult{}

	for _, re := range []*regexp.Regexp{revenueRe, generated} {
		for _, m := range re.FindAllStringSubmatch(resumeText, -1) {
			v, _ := strconv.ParseFloat(m[1], 64)
			result.BusinessImpact = append(result.BusinessImpact, model.BusinessImpact{
				Value:      v * unitMultiplier(m[2]),
				Type:       "revenue",
				Context:    m[0],
				Confidence: 0.8,
			})
		}
	}
	for _, m := range savingsRe.FindAllStringSubmatch(resumeText, -1) {
		v, _ := strconv.ParseFloat(m[1], 64)
		result.BusinessImpact = append(result.BusinessImpact, model.BusinessImpact{
			Value:      v * unitMultiplier(m[2]),
			Type:       "cost_savings",
			Context:    m[0],
			Confidence: 0.85,
		})
	}
	for _, m := range growthRe.FindAllStringSubmatch(resumeText, -1) {
		v, _ := strconv.ParseFloat(m[1], 64)
		result.BusinessImpact = append(result.BusinessImpact, model.BusinessImpact{
			Value:      v,
			Type:       "growth",
			Context:    m[0],
			Confidence: 0.75,
		})
	}

	for school, boost := range topSchools {
		if strings.Contains(lower, school) {
			result.EliteSignals = append(result.EliteSignals, model.EliteSignal{
				Type:        "top_tier_institution",
				Detail:      titleCase.String(school) + " degree",
				BoostFactor: boost,
			})
		}
	}
	for firm, boost := range eliteFirms {
		if strings.Contains(lower, firm) {
			result.EliteSignals = append(result.EliteSignals, model.EliteSignal{
				Type:        "elite_company",
				Detail:      "Worked at " + titleCase.String(firm),
				BoostFactor: boost,
			})
		}
	}
	for _, m := range acceptanceRe.FindAllStringSubmatch(resumeText, -1) {
		rate, _ := strconv.ParseFloat(m[1], 64)
		if rate <= 10 {
			boost := 1.2
			if rate <= 5 {
				boost = 1.3
			}
			result.EliteSignals = append(result.EliteSignals, model.EliteSignal{
				Type:        "acceptance_rate",
				Detail:      fmt.Sprintf("Selected from %.0f%% pool", rate),
				BoostFactor: boost,
			})
		}
	}

	var firms []string
	for _, firm := range consultingFirms {
		if strings.Contains(lower, firm) && !nearAny(lower, firm, "volunteer", "student consulting", "pro bono") {
			firms = append(firms, firm)
		}
	}
	hasConsulting := len(firms) > 0 || (strings.Contains(lower, "consultant") && !nearAny(lower, "consultant", "volunteer", "pro bono"))
	years := 0
	if m := yearsRe.FindStringSubmatch(resumeText); m != nil {
		years, _ = strconv.Atoi(m[1])
	}
	result.ConsultingExperience = model.ConsultingExperience{
		HasDirect:  hasConsulting,
		Years:      float64(years),
		Firms:      firms,
		Confidence: 0.7,
	}

	fit := 0.3
	var reasons, concerns []string
	if hasConsulting {
		fit += 0.35
		reasons = append(reasons, "consulting experience")
	}
	if len(result.EliteSignals) > 0 {
		fit += 0.2
		reasons = append(reasons, "elite pedigree")
	}
	if len(result.BusinessImpact) > 0 {
		fit += 0.15
		reasons = append(reasons, "quantified impact")
	}
	if fit > 0.95 {
		fit = 0.95
	}
	if !hasConsulting {
		concerns = append(concerns, "no direct consulting experience")
	}
	result.RoleMatch = model.RoleMatch{FitScore: fit, Reasons: reasons, Concerns: concerns}

	mismatch := false
	for _, kw := range roleMismatchTerms {
		if strings.Contains(lower, kw) {
			mismatch = true
			break
		}
	}
	if mismatch && !hasConsulting && len(result.BusinessImpact) == 0 && len(result.EliteSignals) == 0 {
		result.RedFlags = append(result.RedFlags, "no business experience")
	}

	return result, nil
}

// genericPhrases are buzzwords common in generated resumes.
var genericPhrases = []string{
	"results-driven", "team player", "detail-oriented",
	"proven track record", "passionate about", "dynamic professional",
	"leveraged", "spearheaded", "facilitated",
}

var metricRe = regexp.MustCompile(`\d+%|\$\d+|\d+ years`)

func (s *SimExtractor) DetectAI(_ context.Context, resumeText string) (*model.AIDetection, error) {
	lower := strings.ToLower(resumeText)
	genericCount := 0
	for _, p := range genericPhrases {
		if strings.Contains(lower, p) {
			genericCount++
		}
	}
	hasNumbers := metricRe.MatchString(resumeText)

	det := &model.AIDetection{}
	switch {
	case genericCount >= 5 && !hasNumbers:
		det.Likelihood = "high"
		det.Confidence = 0.8
		det.Flags = []string{fmt.Sprintf("%d generic buzzwords", genericCount), "lacks concrete details"}
	case genericCount >= 3:
		det.Likelihood = "medium"
		det.Confidence = 0.6
		det.Flags = []string{fmt.Sprintf("%d generic phrases detected", genericCount)}
	default:
		det.Likelihood = "low"
		det.Confidence = 0.7
	}
	specificity := "Lacks"
	if hasNumbers {
		specificity = "Has"
	}
	det.Reasoning = fmt.Sprintf("Detected %d generic phrases. %s specific metrics.", genericCount, specificity)
	return det, nil
}

func (s *SimExtractor) CheckDealBreakers(_ context.Context, resumeText string, rules []string) ([]model.HardDisqualifier, error) {
	lower := strings.ToLower(resumeText)
	out := make([]model.HardDisqualifier, 0, len(rules))

	for _, rule := range rules {
		ruleLower := strings.ToLower(rule)
		hd := model.HardDisqualifier{Rule: rule, Confidence: 0.3, Reason: "Unable to determine from resume"}

		switch {
		case strings.Contains(ruleLower, "authorization") || strings.Contains(ruleLower, "visa"):
			if strings.Contains(lower, "visa") || strings.Contains(lower, "h1b") || strings.Contains(lower, "sponsorship") {
				hd.Violated = true
				hd.Confidence = 0.8
				hd.Reason = "Likely requires visa sponsorship"
			} else {
				hd.Confidence = 0.7
				hd.Reason = "No visa issues mentioned"
			}
		case yearsRe.MatchString(ruleLower):
			required, _ := strconv.Atoi(yearsRe.FindStringSubmatch(ruleLower)[1])
			maxYears := 0
			for _, m := range yearsRe.FindAllStringSubmatch(lower, -1) {
				if y, _ := strconv.Atoi(m[1]); y > maxYears {
					maxYears = y
				}
			}
			if maxYears == 0 {
				hd.Violated = true
				hd.Confidence = 0.5
				hd.Reason = "No years of experience mentioned"
			} else if maxYears < required {
				hd.Violated = true
				hd.Confidence = 0.7
				hd.Reason = fmt.Sprintf("Has %d years, needs %d+", maxYears, required)
			} else {
				hd.Confidence = 0.7
				hd.Reason = fmt.Sprintf("Has %d+ years experience", maxYears)
			}
		case strings.Contains(ruleLower, "degree") || strings.Contains(ruleLower, "mba") || strings.Contains(ruleLower, "phd"):
			hasDegree := false
			for _, d := range []string{"bachelor", "master", "mba", "phd", "degree"} {
				if strings.Contains(lower, d) {
					hasDegree = true
					break
				}
			}
			if hasDegree {
				hd.Confidence = 0.8
				hd.Reason = "Has degree"
			} else {
				hd.Violated = true
				hd.Confidence = 0.8
				hd.Reason = "No degree mentioned"
			}
		}
		out = append(out, hd)
	}
	return out, nil
}

// nearAny reports whether any of the exclusion terms appears within 50 chars
// of an occurrence of needle.
func nearAny(text, needle string, exclusions ...string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], needle)
		if pos < 0 {
			return false
		}
		pos += idx
		start := pos - 50
		if start < 0 {
			start = 0
		}
		end := pos + len(needle) + 50
		if end > len(text) {
			end = len(text)
		}
		window := text[start:end]
		for _, ex := range exclusions {
			if strings.Contains(window, ex) {
				return true
			}
		}
		idx = pos + len(needle)
	}
}
