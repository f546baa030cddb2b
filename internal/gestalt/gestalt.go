// Package gestalt makes the screening decision. Instead of a numeric score it
// evaluates the candidate as a bundle of capabilities and answers one
// question: is this person worth talking to?
package gestalt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/extract"
	"github.com/vrijenattawar/ZoATS/internal/model"
)

// ExtractionCache stores signal extractions so repeat evaluations of the same
// candidate reuse the stored result instead of re-calling the extractor.
type ExtractionCache interface {
	CachedExtraction(job, candidate string) (*model.ExtractionResult, error)
	SaveExtraction(job, candidate string, r *model.ExtractionResult) error
}

// Engine runs the gestalt evaluation. It is deterministic: the same resume,
// extraction, and configuration always yield the same decision.
type Engine struct {
	extractor extract.SignalExtractor
	detector  extract.AIDetector
	cache     ExtractionCache
	cfg       config.GestaltConfig
}

func New(extractor extract.SignalExtractor, detector extract.AIDetector, cache ExtractionCache, cfg config.GestaltConfig) *Engine {
	if cfg.MaxClarifiableConcerns <= 0 {
		cfg.MaxClarifiableConcerns = 3
	}
	return &Engine{extractor: extractor, detector: detector, cache: cache, cfg: cfg}
}

// evalState carries the derived predicates the decision rules match on.
type evalState struct {
	extraction *model.ExtractionResult
	ai         *model.AIDetection

	hasTargetCompany bool
	hasConsulting    bool
	hasElite         bool
	hasImpact        bool
	hasMajorImpact   bool
	hasRoleMismatch  bool
	analytical       float64

	strengths      []model.KeyStrength
	concerns       []model.Concern
	focus          []string
	clarifications []model.ClarificationQuestion
}

func (s *evalState) hasBusinessSignal() bool {
	return s.hasImpact || s.hasElite || s.hasConsulting
}

// decisionRule is one entry in the ordered decision table. Rules are checked
// top to bottom; the first match wins.
type decisionRule struct {
	name    string
	matches func(*evalState) bool
	apply   func(*evalState) (model.Decision, model.Confidence, string)
}

// Evaluate produces the gestalt evaluation artifact for a candidate.
func (e *Engine) Evaluate(ctx context.Context, jobID, candidateID string, resume *model.ParsedResume, rubric *model.Rubric) (*model.GestaltEvaluation, error) {
	ai, err := e.detector.DetectAI(ctx, resume.Text)
	if err != nil {
		zap.L().Warn("gestalt: ai detection failed",
			zap.String("candidate", candidateID),
			zap.Error(err),
		)
		ai = &model.AIDetection{Likelihood: "unknown", Reasoning: "detection failed"}
	}

	extraction := e.extractionFor(ctx, jobID, candidateID, resume)

	eval := &model.GestaltEvaluation{
		CandidateID:    candidateID,
		JobID:          jobID,
		AIDetection:    *ai,
		EliteSignals:   extraction.EliteSignals,
		BusinessImpact: extraction.BusinessImpact,
		Timestamp:      time.Now().UTC(),
	}

	// Fundamental-mismatch red flags from extraction short-circuit the whole
	// chain.
	if len(extraction.RedFlags) > 0 && ai.Likelihood != "high" {
		eval.Decision = model.DecisionPass
		eval.Confidence = model.ConfidenceHigh
		for _, flag := range extraction.RedFlags {
			eval.Concerns = append(eval.Concerns, model.Concern{Issue: flag, Severity: "disqualifying"})
		}
		eval.OverallNarrative = "Not a fit: " + strings.Join(extraction.RedFlags, ", ")
		return eval, nil
	}

	state := e.buildState(resume, rubric, extraction, ai)

	for _, rule := range e.rules() {
		if !rule.matches(state) {
			continue
		}
		decision, confidence, narrative := rule.apply(state)
		zap.L().Debug("gestalt: rule matched",
			zap.String("candidate", candidateID),
			zap.String("rule", rule.name),
			zap.String("decision", string(decision)),
		)

		eval.Decision = decision
		eval.Confidence = confidence
		eval.OverallNarrative = narrative
		eval.KeyStrengths = state.strengths
		eval.Concerns = state.concerns
		if decision == model.DecisionStrongInterview || decision == model.DecisionInterview {
			eval.InterviewFocus = state.focus
		}
		if decision == model.DecisionMaybe {
			eval.ClarificationQuestions = state.clarifications
		}
		return eval, nil
	}

	// The default rule always matches, so this is unreachable.
	return nil, fmt.Errorf("gestalt: no decision rule matched for %s", candidateID)
}

// extractionFor returns the cached extraction when one exists, otherwise
// computes and stores a fresh one. Extractor failure degrades to an empty
// result so the decision chain still runs.
func (e *Engine) extractionFor(ctx context.Context, jobID, candidateID string, resume *model.ParsedResume) *model.ExtractionResult {
	if e.cache != nil {
		cached, err := e.cache.CachedExtraction(jobID, candidateID)
		if err != nil {
			zap.L().Warn("gestalt: extraction cache read failed", zap.Error(err))
		} else if cached != nil {
			zap.L().Debug("gestalt: using cached extraction", zap.String("candidate", candidateID))
			return cached
		}
	}

	extraction, err := e.extractor.ExtractSignals(ctx, resume.Text, jobID)
	if err != nil {
		zap.L().Warn("gestalt: signal extraction failed, using empty result",
			zap.String("candidate", candidateID),
			zap.Error(err),
		)
		return &model.ExtractionResult{
			RoleMatch: model.RoleMatch{FitScore: 0.3, Concerns: []string{"extraction failed"}},
		}
	}

	if e.cache != nil {
		if err := e.cache.SaveExtraction(jobID, candidateID, extraction); err != nil {
			zap.L().Warn("gestalt: extraction cache write failed", zap.Error(err))
		}
	}
	return extraction
}

func (e *Engine) buildState(resume *model.ParsedResume, rubric *model.Rubric, extraction *model.ExtractionResult, ai *model.AIDetection) *evalState {
	lower := strings.ToLower(resume.Text)
	s := &evalState{extraction: extraction, ai: ai}

	targets := e.cfg.TargetCompanies
	if rubric != nil && len(rubric.TargetCompanies) > 0 {
		targets = rubric.TargetCompanies
	}
	for _, company := range targets {
		if company != "" && strings.Contains(lower, strings.ToLower(company)) {
			s.hasTargetCompany = true
			break
		}
	}
	// An elite-company signal at the target boost level counts even when the
	// rubric has no explicit target list.
	for _, sig := range extraction.EliteSignals {
		if sig.BoostFactor >= model.TargetCompanyBoost {
			s.hasTargetCompany = true
		}
	}

	s.hasConsulting = extraction.ConsultingExperience.HasDirect
	s.hasElite = len(extraction.EliteSignals) > 0
	s.hasImpact = len(extraction.BusinessImpact) > 0
	for _, imp := range extraction.BusinessImpact {
		if imp.Value >= e.cfg.MajorImpactMillions {
			s.hasMajorImpact = true
		}
	}
	for _, kw := range []string{"barista", "cashier", "retail", "server", "waiter", "sales associate", "manual labor"} {
		if strings.Contains(lower, kw) {
			s.hasRoleMismatch = true
			break
		}
	}
	s.analytical = 0.3
	if extraction.RoleMatch.FitScore > 0.6 {
		s.analytical = 0.7
	}

	e.buildStrengths(s)
	e.buildConcerns(s)
	return s
}

func (e *Engine) buildStrengths(s *evalState) {
	if s.hasTargetCompany {
		s.strengths = append(s.strengths, model.KeyStrength{
			Category:  "Direct Experience",
			Evidence:  "Former employee at target company",
			Relevance: "Already knows the firm, culture, and work style",
		})
	}
	if s.hasMajorImpact {
		var top model.BusinessImpact
		for _, imp := range s.extraction.BusinessImpact {
			if imp.Value > top.Value {
				top = imp
			}
		}
		s.strengths = append(s.strengths, model.KeyStrength{
			Category:  "Quantified Impact",
			Evidence:  fmt.Sprintf("$%.0fM %s", top.Value, top.Type),
			Relevance: "Demonstrated ability to drive large-scale business outcomes",
		})
	}
	if s.hasElite {
		var top model.EliteSignal
		for _, sig := range s.extraction.EliteSignals {
			if sig.BoostFactor > top.BoostFactor {
				top = sig
			}
		}
		s.strengths = append(s.strengths, model.KeyStrength{
			Category:  "Elite Selection",
			Evidence:  top.Detail,
			Relevance: "Proven ability to clear high bars",
		})
	}
	if s.hasConsulting {
		s.strengths = append(s.strengths, model.KeyStrength{
			Category:  "Consulting Background",
			Evidence:  "Direct consulting/strategy experience",
			Relevance: "Familiar with consulting work and client engagement",
		})
	}
	if s.analytical >= 0.7 {
		s.strengths = append(s.strengths, model.KeyStrength{
			Category:  "Analytical Capability",
			Evidence:  "Strong quantitative/analytical background",
			Relevance: "Can handle data-driven problem solving",
		})
	}
}

func (e *Engine) buildConcerns(s *evalState) {
	if !s.hasConsulting && !s.hasTargetCompany {
		s.concerns = append(s.concerns, model.Concern{
			Issue:       "No direct consulting experience",
			Severity:    "moderate",
			CanMitigate: true,
		})
		s.focus = append(s.focus,
			"Assess ability to structure ambiguous problems",
			"Gauge comfort with client-facing work",
		)
	}

	if !s.hasImpact && !s.hasConsulting {
		s.concerns = append(s.concerns, model.Concern{
			Issue:       "Limited evidence of business outcomes",
			Severity:    "moderate",
			CanMitigate: true,
		})
		s.clarifications = append(s.clarifications, model.ClarificationQuestion{
			Question:    "Can you share 1-2 examples of measurable business impact you've driven (with approximate scale)?",
			WhyAsking:   "Resume lacks quantified outcomes; need to assess results orientation",
			DealBreaker: false,
		})
	}

	if s.analytical < 0.5 {
		s.concerns = append(s.concerns, model.Concern{
			Issue:       "Unclear analytical depth",
			Severity:    "major",
			CanMitigate: true,
		})
		s.clarifications = append(s.clarifications, model.ClarificationQuestion{
			Question:    "Can you describe your experience with quantitative analysis or data-driven problem solving?",
			WhyAsking:   "Consulting requires strong analytical capability; need evidence",
			DealBreaker: true,
		})
	}

	for _, issue := range s.extraction.RoleMatch.Concerns {
		if issue == "" {
			continue
		}
		dup := false
		for _, existing := range s.concerns {
			if strings.EqualFold(existing.Issue, issue) {
				dup = true
				break
			}
		}
		if !dup {
			s.concerns = append(s.concerns, model.Concern{Issue: issue, Severity: "minor", CanMitigate: true})
		}
	}

	if s.ai.Likelihood == "high" {
		s.concerns = append(s.concerns, model.Concern{
			Issue:    "Resume appears AI-generated (generic, low specificity)",
			Severity: "major",
		})
	}
}

// rules returns the ordered decision table. Order is the whole contract:
// earlier rules dominate later ones.
func (e *Engine) rules() []decisionRule {
	maxClar := e.cfg.MaxClarifiableConcerns

	return []decisionRule{
		{
			name:    "ai_veto",
			matches: func(s *evalState) bool { return s.ai.Likelihood == "high" },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionPass, model.ConfidenceHigh,
					"Resume appears AI-generated with generic language and low specificity. Not a genuine candidate."
			},
		},
		{
			name:    "target_company",
			matches: func(s *evalState) bool { return s.hasTargetCompany },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionStrongInterview, model.ConfidenceHigh,
					"Former employee at target company. Direct experience makes this a strong fit worth immediate conversation."
			},
		},
		{
			name:    "elite_consulting_with_major_impact",
			matches: func(s *evalState) bool { return s.hasConsulting && s.hasMajorImpact && s.hasElite },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionStrongInterview, model.ConfidenceHigh,
					fmt.Sprintf("Elite consulting background with $%.0fM+ business impact. Strong traditional candidate.", e.cfg.MajorImpactMillions)
			},
		},
		{
			name:    "consulting_with_supporting_signal",
			matches: func(s *evalState) bool { return s.hasConsulting && (s.hasElite || s.hasMajorImpact) },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionStrongInterview, model.ConfidenceMedium,
					"Solid consulting background with strong supporting signals. Worth prioritizing."
			},
		},
		{
			name: "strength_bundle",
			matches: func(s *evalState) bool {
				return len(s.strengths) >= 3 && len(s.concerns) <= 1 && s.hasBusinessSignal()
			},
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionStrongInterview, model.ConfidenceMedium,
					"Compelling combination of signals. Strong candidate worth interviewing."
			},
		},
		{
			name:    "consulting_alone",
			matches: func(s *evalState) bool { return s.hasConsulting },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionInterview, model.ConfidenceMedium,
					"Consulting background. Standard interview to assess depth and fit."
			},
		},
		{
			name:    "elite_analytical",
			matches: func(s *evalState) bool { return s.hasElite && s.analytical >= 0.7 },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionInterview, model.ConfidenceMedium,
					"Promising candidate with elite background and transferable skills. Worth exploring fit."
			},
		},
		{
			name: "maybe_elite_with_gaps",
			matches: func(s *evalState) bool {
				return s.hasElite && len(s.clarifications) >= 1 && len(s.clarifications) <= maxClar
			},
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionMaybe, model.ConfidenceLow,
					"Intriguing elite background but key gaps. Worth clarifying before deciding."
			},
		},
		{
			name: "maybe_impact_unclear_readiness",
			matches: func(s *evalState) bool {
				return s.hasMajorImpact && s.analytical >= 0.6 &&
					len(s.clarifications) >= 1 && len(s.clarifications) <= maxClar
			},
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionMaybe, model.ConfidenceLow,
					"Strong business outcomes but unclear consulting readiness. Clarification needed."
			},
		},
		{
			name:    "too_many_gaps",
			matches: func(s *evalState) bool { return len(s.clarifications) > maxClar },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionBackupList, model.ConfidenceLow,
					"Too many fundamental gaps to clarify efficiently. Consider if shortlist insufficient."
			},
		},
		{
			name: "role_mismatch",
			matches: func(s *evalState) bool {
				return s.hasRoleMismatch && !s.hasBusinessSignal()
			},
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				return model.DecisionPass, model.ConfidenceHigh,
					"Role mismatch for consulting position. Not a fit."
			},
		},
		{
			name:    "default_pass",
			matches: func(s *evalState) bool { return true },
			apply: func(s *evalState) (model.Decision, model.Confidence, string) {
				if !s.hasElite && !s.hasImpact {
					return model.DecisionPass, model.ConfidenceHigh,
						"No compelling signals for consulting role. Not a fit."
				}
				return model.DecisionPass, model.ConfidenceMedium,
					"Insufficient evidence of consulting-relevant capabilities for this role."
			},
		},
	}
}
