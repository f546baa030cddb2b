package clarify

import (
	"bytes"
	"os"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Templates holds the email templates for the clarification loop. A YAML file
// can override any of them; unset fields fall back to the built-in defaults.
type Templates struct {
	Clarification   EmailTemplate `yaml:"clarification"`
	ApprovalRequest EmailTemplate `yaml:"approval_request"`
	ApprovalOutcome EmailTemplate `yaml:"approval_outcome"`
}

// EmailTemplate is a subject/body pair in Go text/template syntax.
type EmailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

const defaultTemplates = `
clarification:
  subject: "Additional information needed - {{.JobTitle}} position"
  body: |
    Dear Applicant,

    Thank you for your application for the {{.JobTitle}} position. We've reviewed your background and are interested in learning more about your experience.

    Before scheduling an interview, we'd like to better understand a few aspects of your background:

    {{.NumberedQuestions}}

    Please respond to these questions by {{.Deadline}}. We appreciate your time and look forward to hearing from you.

    Best regards,
    {{.CompanyName}}

    ---
    To respond, simply reply to this email with your answers.

approval_request:
  subject: "[ZoATS] Review clarification questions - {{.CandidateID}}"
  body: |
    # Clarification Request Approval

    **Candidate:** {{.CandidateID}}
    **Position:** {{.JobTitle}}

    ---

    ## Summary
    {{.CandidateSummary}}

    ---

    ## Why Clarification Needed
    {{.Rationale}}

    ---

    ## Proposed Questions

    {{.NumberedQuestions}}

    ---

    ## Next Steps

    **To approve these questions as-is:** reply with APPROVE

    **To modify questions:** reply with your revised questions (1-3), each starting with a number

    **To reject this candidate:** reply with REJECT

    ---

    **Request ID:** {{.RequestID}}

approval_outcome:
  subject: "[ZoATS] Questions {{.Action}} - {{.CandidateID}}"
  body: |
    # Clarification Questions {{.Action}}

    **Candidate:** {{.CandidateID}}
    **Position:** {{.JobTitle}}

    {{if .Questions}}The following questions will be sent to the candidate:

    {{.NumberedQuestions}}
    {{else}}No email will be sent to this candidate.
    {{end}}
    The system will track the response and re-evaluate automatically.
`

// LoadTemplates returns the built-in templates, overlaid with any YAML file
// at path. An empty path means defaults only.
func LoadTemplates(path string) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal([]byte(defaultTemplates), &t); err != nil {
		return nil, eris.Wrap(err, "clarify: parse default templates")
	}
	if path == "" {
		return &t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "clarify: read templates %s", path)
	}
	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "clarify: parse templates %s", path)
	}
	merge := func(dst *EmailTemplate, src EmailTemplate) {
		if src.Subject != "" {
			dst.Subject = src.Subject
		}
		if src.Body != "" {
			dst.Body = src.Body
		}
	}
	merge(&t.Clarification, override.Clarification)
	merge(&t.ApprovalRequest, override.ApprovalRequest)
	merge(&t.ApprovalOutcome, override.ApprovalOutcome)
	return &t, nil
}

// Render executes a subject/body template pair against data.
func (et EmailTemplate) Render(data any) (subject, body string, err error) {
	subject, err = renderOne("subject", et.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = renderOne("body", et.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderOne(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", eris.Wrapf(err, "clarify: parse %s template", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "clarify: render %s template", name)
	}
	return buf.String(), nil
}
