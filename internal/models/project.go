package models

// ProjectStatus is the workflow state shared by projects and phases.
type ProjectStatus string

const (
	StatusTodo       ProjectStatus = "Todo"
	StatusInProgress ProjectStatus = "InProgress"
	StatusOnHold     ProjectStatus = "OnHold"
	StatusDone       ProjectStatus = "Done"
)

// ProjectStatuses lists the valid project/phase statuses in display order.
var ProjectStatuses = []ProjectStatus{StatusTodo, StatusInProgress, StatusOnHold, StatusDone}

// Project is a body of work for a company, split into phases.
type Project struct {
	ID           string        `json:"id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Status       ProjectStatus `json:"status"`
	CompanyID    string        `json:"companyId"`
	Company      *Ref          `json:"company,omitempty"`
	SupervisorID string        `json:"supervisorId,omitempty"`
	Documents    []string      `json:"documents,omitempty"`
	CreatedAt    Timestamp     `json:"createdAt"`
}

// ProjectDraft holds the editable fields of a Project. The supervisor is
// only required when creating.
type ProjectDraft struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name" validate:"required"`
	Description  string        `json:"description" validate:"required"`
	Status       ProjectStatus `json:"status" validate:"omitempty,oneof=Todo InProgress OnHold Done"`
	CompanyID    string        `json:"companyId" validate:"required"`
	SupervisorID string        `json:"supervisorId,omitempty" validate:"required"`
	Documents    []string      `json:"documents"`
}

// DraftFromProject copies the editable fields of p.
func DraftFromProject(p Project) ProjectDraft {
	return ProjectDraft{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Status:       p.Status,
		CompanyID:    p.CompanyID,
		SupervisorID: p.SupervisorID,
		Documents:    append([]string(nil), p.Documents...),
	}
}

// Normalize trims fields and defaults the status to Todo.
func (d ProjectDraft) Normalize() ProjectDraft {
	d.Name = trim(d.Name)
	d.Description = trim(d.Description)
	d.CompanyID = trim(d.CompanyID)
	d.SupervisorID = trim(d.SupervisorID)
	if d.Status == "" {
		d.Status = StatusTodo
	}
	return d
}

// Phase is a stage of a project.
type Phase struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	ProjectID   string        `json:"projectId"`
	Project     *Ref          `json:"project,omitempty"`
	Company     *Ref          `json:"company,omitempty"`
	Documents   []string      `json:"documents,omitempty"`
	CreatedAt   Timestamp     `json:"createdAt"`
}

// PhaseDraft holds the editable fields of a Phase.
type PhaseDraft struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description" validate:"required"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=Todo InProgress OnHold Done"`
	ProjectID   string        `json:"projectId" validate:"required"`
	Documents   []string      `json:"documents"`
}

// DraftFromPhase copies the editable fields of p.
func DraftFromPhase(p Phase) PhaseDraft {
	return PhaseDraft{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		ProjectID:   p.ProjectID,
		Documents:   append([]string(nil), p.Documents...),
	}
}

// Normalize trims fields.
func (d PhaseDraft) Normalize() PhaseDraft {
	d.Name = trim(d.Name)
	d.Description = trim(d.Description)
	d.ProjectID = trim(d.ProjectID)
	return d
}
