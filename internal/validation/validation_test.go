package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

func TestStruct_CompanyDraft(t *testing.T) {
	tests := []struct {
		name    string
		draft   models.CompanyDraft
		invalid []string
	}{
		{
			name: "valid",
			draft: models.CompanyDraft{
				Name: "Acme", NamePrefix: "ACM", Description: "d",
				Email: "a@b.com", PhoneNumber: "000",
			},
		},
		{
			name:    "empty",
			draft:   models.CompanyDraft{},
			invalid: []string{"description", "email", "name", "namePrefix", "phoneNumber"},
		},
		{
			name: "bad email and prefix",
			draft: models.CompanyDraft{
				Name: "Acme", NamePrefix: "AC1", Description: "d",
				Email: "not-an-email", PhoneNumber: "000",
			},
			invalid: []string{"email", "namePrefix"},
		},
		{
			name: "email without dotted domain",
			draft: models.CompanyDraft{
				Name: "Acme", NamePrefix: "ACM", Description: "d",
				Email: "a@b", PhoneNumber: "000",
			},
			invalid: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.draft)
			if len(tt.invalid) == 0 {
				require.NoError(t, err)
				return
			}
			errs, ok := AsErrors(err)
			require.True(t, ok, "expected Errors, got %v", err)
			assert.Equal(t, tt.invalid, errs.Fields())
		})
	}
}

func TestStruct_EnumMembership(t *testing.T) {
	err := Struct(models.IssueDraft{Name: "n", Description: "d", PhaseID: "p", Severity: "Catastrophic"})
	errs, ok := AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "severity must be one of: Informational, Warning, Critical", errs["severity"])
}

func TestStruct_Except(t *testing.T) {
	draft := models.ProjectDraft{Name: "n", Description: "d", CompanyID: "c"}

	err := Struct(draft)
	errs, ok := AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "supervisorId")

	assert.NoError(t, Struct(draft, "SupervisorID"))
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{"name": "name is required", "email": "invalid email format"}
	assert.Equal(t, "invalid email format; name is required", errs.Error())
	assert.Len(t, errs.List(), 2)
}

func TestNewValidator_StrictEmail(t *testing.T) {
	var v interface {
		Var(field any, tag string) error
	}
	require.NotPanics(t, func() { v = newValidator() })

	assert.Error(t, v.Var("a@b", "email"))
	assert.NoError(t, v.Var("a@b.com", "email"))
}
