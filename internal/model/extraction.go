package model

// BusinessImpact is a quantified business outcome extracted from the resume.
// Value is in millions of dollars.
type BusinessImpact struct {
	Value      float64 `json:"value"`
	Type       string  `json:"type"`
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
}

// EliteSignal is a pedigree marker (school, employer, selectivity) carrying a
// multiplicative scoring boost. A boost at or above the target-company level
// (1.4) marks direct employment at a firm the role targets.
type EliteSignal struct {
	Type        string  `json:"type"`
	Detail      string  `json:"detail"`
	BoostFactor float64 `json:"boost_factor"`
}

// TargetCompanyBoost is the boost factor assigned to direct employment at a
// target-matching elite firm.
const TargetCompanyBoost = 1.4

// ConsultingExperience summarizes direct consulting background.
type ConsultingExperience struct {
	HasDirect  bool     `json:"has_direct"`
	Years      float64  `json:"years"`
	Firms      []string `json:"firms"`
	Confidence float64  `json:"confidence"`
}

// RoleMatch is the extractor's fit assessment against the role.
type RoleMatch struct {
	FitScore float64  `json:"fit_score"`
	Reasons  []string `json:"reasons"`
	Concerns []string `json:"concerns"`
}

// ExtractionResult is the fixed schema of quantified signals produced by the
// external signal extractor. It is cached per candidate: if present on disk
// it is reused, otherwise regenerated.
type ExtractionResult struct {
	BusinessImpact       []BusinessImpact     `json:"business_impact"`
	EliteSignals         []EliteSignal        `json:"elite_signals"`
	ConsultingExperience ConsultingExperience `json:"consulting_experience"`
	RoleMatch            RoleMatch            `json:"role_match"`
	RedFlags             []string             `json:"red_flags"`
}

// Empty reports whether the extraction carries no usable signal. An empty
// result is the safe default when the external extractor is degraded.
func (e *ExtractionResult) Empty() bool {
	return len(e.BusinessImpact) == 0 && len(e.EliteSignals) == 0 &&
		!e.ConsultingExperience.HasDirect && len(e.RedFlags) == 0
}

// AIDetection is the AI-authorship verdict for a resume.
type AIDetection struct {
	Likelihood string   `json:"likelihood"` // low | medium | high
	Confidence float64  `json:"confidence"`
	Flags      []string `json:"flags"`
	Reasoning  string   `json:"reasoning"`
}
