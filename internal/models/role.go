package models

// Role is a named bundle of permissions assignable to users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"roleName"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// RoleDraft holds the editable fields of a Role.
type RoleDraft struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"roleName" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// DraftFromRole copies the editable fields of r.
func DraftFromRole(r Role) RoleDraft {
	return RoleDraft{ID: r.ID, Name: r.Name, Description: r.Description}
}

// Normalize trims fields.
func (d RoleDraft) Normalize() RoleDraft {
	d.Name = trim(d.Name)
	d.Description = trim(d.Description)
	return d
}
