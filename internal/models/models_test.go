package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNamePrefix(t *testing.T) {
	tests := map[string]string{
		"acme":   "ACM",
		"a1b2c3": "ABC",
		"ab":     "AB",
		"  x-y ": "XY",
		"123":    "",
		"":       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeNamePrefix(in), "input %q", in)
	}
}

func TestTimestamp_Layouts(t *testing.T) {
	for _, raw := range []string{
		`"2024-03-05T14:30:00Z"`,
		`"2024-03-05T14:30:00.1234567"`,
		`"2024-03-05T14:30:00"`,
		`"2024-03-05 14:30:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestPermissionSet(t *testing.T) {
	s := NewPermissionSet("b", " a ", "", "b")
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.Has("a"))

	c := s.Clone()
	c.Remove("a")
	assert.True(t, s.Has("a"), "clone is independent")
	assert.False(t, s.Equal(c))
	c.Add("a")
	assert.True(t, s.Equal(c))
}

func TestUserDraft_Normalize(t *testing.T) {
	d := UserDraft{FirstName: " Ada ", Email: " ada@example.com "}.Normalize()
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, "ada@example.com", d.UserName)
}

func TestRefName(t *testing.T) {
	assert.Equal(t, "N/A", RefName(nil))
	assert.Equal(t, "N/A", RefName(&Ref{ID: "x"}))
	assert.Equal(t, "Acme", RefName(&Ref{ID: "x", Name: "Acme"}))
}
