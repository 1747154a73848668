package models

// IssueStatus is the resolution state of an issue.
type IssueStatus string

const (
	IssueUnresolved IssueStatus = "Unresolved"
	IssueResolved   IssueStatus = "Resolved"
)

// Severity grades how serious an issue is.
type Severity string

const (
	SeverityInformational Severity = "Informational"
	SeverityWarning       Severity = "Warning"
	SeverityCritical      Severity = "Critical"
)

// Severities lists the valid severities from least to most serious.
var Severities = []Severity{SeverityInformational, SeverityWarning, SeverityCritical}

// Issue is a problem raised against a phase.
type Issue struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Status      IssueStatus `json:"status"`
	PhaseID     string      `json:"phaseId"`
	Phase       *Ref        `json:"phase,omitempty"`
	Documents   []string    `json:"documents,omitempty"`
	CreatedAt   Timestamp   `json:"createdAt"`
}

// IssueDraft holds the editable fields of an Issue.
type IssueDraft struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	PhaseID     string   `json:"phaseId" validate:"required"`
	Severity    Severity `json:"severity" validate:"required,oneof=Informational Warning Critical"`
	Documents   []string `json:"documents"`
}

// DraftFromIssue copies the editable fields of i.
func DraftFromIssue(i Issue) IssueDraft {
	return IssueDraft{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		PhaseID:     i.PhaseID,
		Severity:    i.Severity,
		Documents:   append([]string(nil), i.Documents...),
	}
}

// Normalize trims fields.
func (d IssueDraft) Normalize() IssueDraft {
	d.Name = trim(d.Name)
	d.Description = trim(d.Description)
	d.PhaseID = trim(d.PhaseID)
	return d
}
