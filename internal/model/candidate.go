package model

// ParsedFields is the structured side of the parsed resume, produced by the
// out-of-scope parser. Unknown keys are preserved in Extra.
type ParsedFields struct {
	Name            string  `json:"name,omitempty"`
	Email           string  `json:"email,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	YearsExperience float64 `json:"years_experience"`

	Extra map[string]any `json:"-"`
}

// ParsedResume is the input contract for the quick-test and gestalt stages.
type ParsedResume struct {
	Text   string
	Fields ParsedFields
}

// Rubric is the job-scoped scoring context. Only the fields the decision
// pipeline reads are modeled; the rubric builder is an external collaborator.
type Rubric struct {
	JobTitle        string   `json:"job_title"`
	Company         string   `json:"company,omitempty"`
	TargetCompanies []string `json:"target_companies,omitempty"`
	Industry        string   `json:"industry,omitempty"`
}

// Title returns a human-readable job title, falling back to the job id.
func (r Rubric) Title(jobID string) string {
	if r.JobTitle != "" {
		return r.JobTitle
	}
	return jobID
}
