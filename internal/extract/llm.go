package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/resilience"
	"github.com/vrijenattawar/ZoATS/pkg/anthropic"
)

// resumeCharLimit bounds how much resume text goes into a single prompt.
const resumeCharLimit = 4000

const signalPrompt = `Extract structured signals from this resume for a %s role.

RESUME:
%s

Return JSON with:
{
  "business_impact": [
    {"value": 90, "type": "revenue", "context": "generated $90M in sales", "confidence": 0.9}
  ],
  "elite_signals": [
    {"type": "top_tier_mba", "detail": "Harvard MBA", "boost_factor": 1.3},
    {"type": "elite_company", "detail": "McKinsey", "boost_factor": 1.4}
  ],
  "consulting_experience": {
    "has_direct": true,
    "years": 4,
    "firms": ["Deloitte Consulting"],
    "confidence": 0.9
  },
  "role_match": {
    "fit_score": 0.85,
    "reasons": ["consulting experience", "top MBA"],
    "concerns": ["no direct industry experience"]
  },
  "red_flags": []
}

RULES:
- Business impact: extract $ amounts, growth %%, user scale (values in $M)
- Elite signals:
  * Top MBAs: H/W/S/MIT/Columbia/Chicago = 1.3, Cornell/Dartmouth/Yale = 1.15
  * MBB: McKinsey/Bain/BCG = 1.4
  * Consulting: Deloitte/Accenture/EY = 1.2
  * FAANG: = 1.15
  * Selective programs: <5%% acceptance = 1.3, <10%% = 1.2
- Consulting: ONLY count real consulting roles, NOT volunteer/student/pro-bono
- Red flags: fundamental mismatches like "retail only", "no business exp", "job hopping"
- Be strict on fit_score: 0.9+ = exceptional, 0.7-0.9 = strong, 0.5-0.7 = moderate, <0.5 = weak

Return ONLY valid JSON, no explanation.`

const aiDetectPrompt = `Analyze this resume for AI-generated content. Look for:
- Generic corporate buzzwords without specifics
- Uniform, monotonous structure (no personality)
- Vague claims without concrete details/numbers
- Perfect grammar but no authentic voice

Resume:
"""
%s
"""

Respond with JSON only:
{
  "likelihood": "low|medium|high",
  "confidence": 0.0-1.0,
  "flags": ["specific indicators found"],
  "reasoning": "brief explanation"
}`

const dealBreakerPrompt = `Check if this resume meets these hard requirements.

Requirements:
%s

Resume:
"""
%s
"""

For each requirement, determine if it is MET or VIOLATED. When the resume is
silent on a requirement, mark it not violated with low confidence.

Return JSON:
{
  "violations": [
    {"requirement": "requirement text", "violated": true, "confidence": 0.8, "reason": "why"}
  ]
}`

// LLMExtractor implements the extraction interfaces against the model API.
type LLMExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig
}

// NewLLMExtractor builds an extractor around an Anthropic client.
func NewLLMExtractor(client anthropic.Client, modelID string, maxTokens int64) *LLMExtractor {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	return &LLMExtractor{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		retry:     retry,
	}
}

func (e *LLMExtractor) complete(ctx context.Context, stage, prompt string) (string, error) {
	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     e.model,
			MaxTokens: e.maxTokens,
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
		})
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(e.model, stage)
	return resp.FirstText(), nil
}

func (e *LLMExtractor) ExtractSignals(ctx context.Context, resumeText, jobContext string) (*model.ExtractionResult, error) {
	if jobContext == "" {
		jobContext = "management consulting"
	}
	prompt := fmt.Sprintf(signalPrompt, jobContext, truncate(resumeText, resumeCharLimit))

	text, err := e.complete(ctx, "signal_extraction", prompt)
	if err != nil {
		return nil, eris.Wrap(err, "extract: signals")
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		return nil, eris.Wrap(err, "extract: parse signals JSON")
	}
	if result.ConsultingExperience.Confidence == 0 {
		result.ConsultingExperience.Confidence = 0.5
	}
	return &result, nil
}

func (e *LLMExtractor) DetectAI(ctx context.Context, resumeText string) (*model.AIDetection, error) {
	prompt := fmt.Sprintf(aiDetectPrompt, truncate(resumeText, 3000))

	text, err := e.complete(ctx, "ai_detection", prompt)
	if err != nil {
		return nil, eris.Wrap(err, "extract: ai detection")
	}

	var det model.AIDetection
	if err := json.Unmarshal([]byte(cleanJSON(text)), &det); err != nil {
		return nil, eris.Wrap(err, "extract: parse ai detection JSON")
	}
	switch det.Likelihood {
	case "low", "medium", "high":
	default:
		zap.L().Warn("extract: unrecognized ai likelihood", zap.String("likelihood", det.Likelihood))
		det.Likelihood = "unknown"
	}
	return &det, nil
}

func (e *LLMExtractor) CheckDealBreakers(ctx context.Context, resumeText string, rules []string) ([]model.HardDisqualifier, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	var numbered strings.Builder
	for i, r := range rules {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, r)
	}
	prompt := fmt.Sprintf(dealBreakerPrompt, numbered.String(), truncate(resumeText, 2000))

	text, err := e.complete(ctx, "deal_breakers", prompt)
	if err != nil {
		return nil, eris.Wrap(err, "extract: deal breakers")
	}

	var parsed struct {
		Violations []struct {
			Requirement string  `json:"requirement"`
			Violated    bool    `json:"violated"`
			Confidence  float64 `json:"confidence"`
			Reason      string  `json:"reason"`
		} `json:"violations"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: parse deal breaker JSON")
	}

	out := make([]model.HardDisqualifier, 0, len(parsed.Violations))
	for _, v := range parsed.Violations {
		out = append(out, model.HardDisqualifier{
			Rule:       v.Requirement,
			Violated:   v.Violated,
			Confidence: v.Confidence,
			Reason:     v.Reason,
		})
	}
	return out, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
