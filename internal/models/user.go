package models

// User is a back-office or company user managed from the console.
type User struct {
	ID          string    `json:"id"`
	UserName    string    `json:"userName"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	RoleName    string    `json:"roleName,omitempty"`
	CompanyID   string    `json:"companyId,omitempty"`
	CompanyName string    `json:"companyName,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// FullName returns "First Last", or the user name when both are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.UserName
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// UserDraft holds the editable fields of a User while a create or edit form is open.
type UserDraft struct {
	ID          string `json:"id,omitempty"`
	UserName    string `json:"userName"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password,omitempty" validate:"required,min=8"`
	Gender      string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
	RoleName    string `json:"roleName" validate:"required"`
	CompanyID   string `json:"companyId,omitempty"`
}

// DraftFromUser copies the editable fields of u.
func DraftFromUser(u User) UserDraft {
	return UserDraft{
		ID:          u.ID,
		UserName:    u.UserName,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Gender:      u.Gender,
		RoleName:    u.RoleName,
		CompanyID:   u.CompanyID,
	}
}

// Normalize trims whitespace and derives the login name from the email,
// which is how the backend identifies console users.
func (d UserDraft) Normalize() UserDraft {
	d.FirstName = trim(d.FirstName)
	d.LastName = trim(d.LastName)
	d.Email = trim(d.Email)
	d.PhoneNumber = trim(d.PhoneNumber)
	d.RoleName = trim(d.RoleName)
	d.UserName = d.Email
	return d
}
