package models

import "strings"

// Company is a client organisation that owns projects.
type Company struct {
	ID          string    `json:"id"`
	Code        string    `json:"code,omitempty"`
	Name        string    `json:"name"`
	NamePrefix  string    `json:"namePrefix"`
	Description string    `json:"description"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	IsActive    bool      `json:"isActive"`
	Documents   []string  `json:"documents,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// CompanyDraft holds the editable fields of a Company.
type CompanyDraft struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required"`
	NamePrefix  string   `json:"namePrefix" validate:"required,alpha,max=3"`
	Description string   `json:"description" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	PhoneNumber string   `json:"phoneNumber" validate:"required"`
	Documents   []string `json:"documents"`
}

// DraftFromCompany copies the editable fields of c.
func DraftFromCompany(c Company) CompanyDraft {
	return CompanyDraft{
		ID:          c.ID,
		Name:        c.Name,
		NamePrefix:  c.NamePrefix,
		Description: c.Description,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Documents:   append([]string(nil), c.Documents...),
	}
}

// Normalize trims fields and reduces the name prefix to at most three
// upper-case letters.
func (d CompanyDraft) Normalize() CompanyDraft {
	d.Name = trim(d.Name)
	d.Description = trim(d.Description)
	d.Email = trim(d.Email)
	d.PhoneNumber = trim(d.PhoneNumber)
	d.NamePrefix = NormalizeNamePrefix(d.NamePrefix)
	return d
}

// NormalizeNamePrefix upper-cases s, drops anything that is not A-Z and
// keeps the first three letters.
func NormalizeNamePrefix(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 3 {
			break
		}
	}
	return b.String()
}
