package model

import "github.com/rotisserie/eris"

// Decision is the gestalt classification for a candidate. It is transmitted
// at every stage boundary and stored in the evaluation artifact.
type Decision string

const (
	DecisionStrongInterview Decision = "STRONG_INTERVIEW"
	DecisionInterview       Decision = "INTERVIEW"
	DecisionMaybe           Decision = "MAYBE"
	DecisionPass            Decision = "PASS"
	DecisionBackupList      Decision = "BACKUP_LIST"
	DecisionUnknown         Decision = "UNKNOWN"
)

// AllDecisions returns every valid decision value.
func AllDecisions() []Decision {
	return []Decision{
		DecisionStrongInterview,
		DecisionInterview,
		DecisionMaybe,
		DecisionPass,
		DecisionBackupList,
		DecisionUnknown,
	}
}

// ParseDecision validates a raw decision string. A value outside the enum
// indicates a corrupted artifact, not a transient condition.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	for _, v := range AllDecisions() {
		if d == v {
			return d, nil
		}
	}
	return DecisionUnknown, eris.Errorf("model: invalid decision %q", s)
}

// Confidence tiers how much the engine trusts a decision. It gates whether
// downstream early-exits are trusted; it is never computed from a score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
