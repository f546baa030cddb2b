// Package extract pulls structured screening signals out of resume text. The
// LLM-backed implementations are the default; simulated implementations keep
// the pipeline runnable offline and deterministic in tests.
package extract

import (
	"context"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

// SignalExtractor extracts business impact, elite signals, consulting
// experience, role match, and red flags from a resume.
type SignalExtractor interface {
	ExtractSignals(ctx context.Context, resumeText, jobContext string) (*model.ExtractionResult, error)
}

// AIDetector classifies how likely a resume is AI-generated.
type AIDetector interface {
	DetectAI(ctx context.Context, resumeText string) (*model.AIDetection, error)
}

// DealBreakerChecker checks a resume against a job's hard requirements.
type DealBreakerChecker interface {
	CheckDealBreakers(ctx context.Context, resumeText string, rules []string) ([]model.HardDisqualifier, error)
}
