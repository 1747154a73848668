package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/trackadmin/internal/fakeapi"
	"github.com/good-yellow-bee/trackadmin/internal/models"
)

const (
	testAdmin    = "admin@example.com"
	testPassword = "correct-horse"
)

type cli struct {
	t       *testing.T
	url     string
	backend *fakeapi.Server
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	backend, err := fakeapi.New(fakeapi.Config{
		JWTSecret:     []byte("cli-secret"),
		AdminEmail:    testAdmin,
		AdminPassword: testPassword,
		BcryptCost:    bcrypt.MinCost,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	t.Setenv("TRACKADMIN_SESSION_FILE", filepath.Join(t.TempDir(), "session.yaml"))
	t.Setenv("TRACKADMIN_NOTIFICATIONS_UNLIMITED", "true")
	return &cli{t: t, url: srv.URL, backend: backend}
}

// run executes one trackctl invocation with stdin as input.
func (c *cli) run(stdin string, args ...string) (string, string, error) {
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--base-url", c.url}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run("", args...)
	require.NoError(c.t, err, "stderr: %s", errOut)
	return out
}

func (c *cli) login() {
	c.t.Helper()
	c.mustRun("login", "--username", testAdmin, "--password", testPassword)
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, errOut, err := c.run(testPassword+"\n", "login", "--username", testAdmin)
	require.NoError(t, err, errOut)
	assert.Contains(t, out, testAdmin)
	assert.Contains(t, errOut, "[SUCCESS] Login successful")

	var who sessionView
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("whoami", "-o", "json")), &who))
	assert.Equal(t, c.backend.AdminID(), who.UserID)
	assert.Equal(t, "System Administrator", who.FullName)
	assert.NotContains(t, c.mustRun("whoami", "-o", "json"), "token")

	assert.Contains(t, c.mustRun("logout"), "Logged out.")
	_, _, err = c.run("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginBadPassword(t *testing.T) {
	c := newCLI(t)
	_, errOut, err := c.run("", "login", "--username", testAdmin, "--password", "nope")
	assert.Error(t, err)
	assert.Contains(t, errOut, "[ERROR]")
}

func TestCompanyLifecycle(t *testing.T) {
	c := newCLI(t)
	c.login()

	_, errOut, err := c.run("", "companies", "create",
		"-f", "name=Acme", "-f", "namePrefix=acme", "-f", "description=Anvils",
		"-f", "email=ops@acme.com", "-f", "phoneNumber=555-0100")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "[SUCCESS] Company created successfully")
	assert.Equal(t, 1, c.backend.Calls("POST /Company/Create"))

	var list []models.Company
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("companies", "list", "-o", "json")), &list))
	require.Len(t, list, 1)
	acme := list[0]
	assert.Equal(t, "ACM-0001", acme.Code)
	assert.True(t, acme.IsActive)

	table := c.mustRun("companies", "list")
	assert.Contains(t, table, "ACM-0001")
	assert.Contains(t, table, "Active")

	_, errOut, err = c.run("", "companies", "toggle", acme.ID, "--yes")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "[SUCCESS] Company disabled successfully")
	assert.Equal(t, 1, c.backend.Calls("GET /Company/Status/Toggle"))

	var shown models.Company
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("companies", "show", acme.ID, "-o", "json")), &shown))
	assert.False(t, shown.IsActive)

	_, errOut, err = c.run("", "companies", "update", acme.ID, "-f", "name=Acme Ltd")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "[SUCCESS] Company updated successfully")

	assert.Contains(t, c.mustRun("companies", "history", acme.ID), "WHEN")
}

func TestListSearch(t *testing.T) {
	c := newCLI(t)
	c.login()

	c.mustRun("roles", "create", "-f", "roleName=Auditor", "-f", "description=Reads reports")
	c.mustRun("roles", "create", "-f", "roleName=Dispatcher", "-f", "description=Assigns field crews")

	var roles []models.Role
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("roles", "list", "--search", "AUDIT", "-o", "json")), &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, "Auditor", roles[0].Name)

	require.NoError(t, json.Unmarshal([]byte(c.mustRun("roles", "list", "-s", "crews", "-o", "json")), &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, "Dispatcher", roles[0].Name)

	require.NoError(t, json.Unmarshal([]byte(c.mustRun("roles", "list", "-s", "nobody", "-o", "json")), &roles))
	assert.Empty(t, roles)
}

func TestCreateInvalidMakesNoRequest(t *testing.T) {
	c := newCLI(t)
	c.login()

	_, errOut, err := c.run("", "companies", "create", "-f", "name=Acme")
	var re reportedError
	assert.True(t, errors.As(err, &re))
	assert.Contains(t, errOut, "Please fill in all required fields.")
	assert.Contains(t, errOut, "email: email is required")
	assert.Zero(t, c.backend.Calls("POST /Company/Create"))
}

func TestToggleDeclined(t *testing.T) {
	c := newCLI(t)
	c.login()

	_, errOut, err := c.run("n\n", "users", "toggle", c.backend.AdminID())
	require.NoError(t, err)
	assert.Contains(t, errOut, "Disable user System Administrator? [y/N]")
	assert.Contains(t, errOut, "Cancelled.")
	assert.Zero(t, c.backend.Calls("GET /Users/Status/Toggle"))
}

func TestRolePermissions(t *testing.T) {
	c := newCLI(t)
	c.login()

	var roles []models.Role
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("roles", "list", "-o", "json")), &roles))
	require.NotEmpty(t, roles)
	id := roles[0].ID

	_, errOut, err := c.run("", "roles", "permissions", "set", id, "issues.view", "projects.view")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "[SUCCESS] Permissions updated successfully")

	var got struct {
		Catalog  []string `json:"catalog"`
		Assigned []string `json:"assigned"`
	}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("roles", "permissions", "get", id, "-o", "json")), &got))
	assert.Equal(t, fakeapi.DefaultClaims, got.Catalog)
	assert.Equal(t, []string{"issues.view", "projects.view"}, got.Assigned)

	_, _, err = c.run("", "roles", "permissions", "set", id)
	assert.Error(t, err)
}

func TestUnauthorizedEndsSession(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.backend.InjectFault("GET /Projects/ViewAll", fakeapi.Fault{Status: 401})

	_, errOut, err := c.run("", "projects", "list")
	assert.Error(t, err)
	assert.Contains(t, errOut, "Your session has expired. Please log in again.")

	_, _, err = c.run("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestApplyFields(t *testing.T) {
	d := models.CompanyDraft{Name: "Old"}
	require.NoError(t, applyFields(&d, []string{"name=New", "email=a=b@c.com"}))
	assert.Equal(t, "New", d.Name)
	assert.Equal(t, "a=b@c.com", d.Email)

	assert.Error(t, applyFields(&d, []string{"colour=red"}))
	assert.Error(t, applyFields(&d, []string{"id=x"}))
	assert.Error(t, applyFields(&d, []string{"name"}))
}

func TestVersionJSON(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("version", "-o", "json")
	assert.Contains(t, out, `"go_version"`)
}
