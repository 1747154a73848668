package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdmin    = "admin@example.com"
	testPassword = "correct-horse"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Config{
		JWTSecret:     []byte("test-jwt-secret-32-bytes-long!!"),
		TokenTTL:      time.Hour,
		AdminEmail:    testAdmin,
		AdminPassword: testPassword,
		BcryptCost:    bcrypt.MinCost,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

type result struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *Server, method, target, token string, body any) (int, result) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var res result
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	return rec.Code, res
}

func login(t *testing.T, srv *Server, user, password string) string {
	t.Helper()
	code, res := call(t, srv, http.MethodPost, "/Home/Authorize", "", map[string]string{"username": user, "password": password})
	require.Equal(t, http.StatusOK, code)
	var grant authorizeResponse
	require.NoError(t, json.Unmarshal(res.Data, &grant))
	require.NotEmpty(t, grant.Token)
	return grant.Token
}

func TestNew_RequiresSecretAndPassword(t *testing.T) {
	_, err := New(Config{AdminPassword: "x"})
	assert.Error(t, err)
	_, err = New(Config{JWTSecret: []byte("s")})
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	srv := testServer(t)

	code, _ := call(t, srv, http.MethodPost, "/Home/Authorize", "", map[string]string{"username": testAdmin, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	token := login(t, srv, testAdmin, testPassword)
	code, res := call(t, srv, http.MethodGet, "/Users/ViewById?Id="+srv.AdminID(), token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), testAdmin)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv := testServer(t)

	code, _ := call(t, srv, http.MethodGet, "/Company/ViewAll", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, srv, http.MethodGet, "/Company/ViewAll", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCompanyScopedUserIsForbidden(t *testing.T) {
	srv := testServer(t)
	admin := login(t, srv, testAdmin, testPassword)

	_, res := call(t, srv, http.MethodPost, "/Company/Create", admin, map[string]any{
		"name": "Acme", "namePrefix": "ACM", "description": "d", "email": "a@b.com", "phoneNumber": "000",
	})
	var company struct{ ID string }
	require.NoError(t, json.Unmarshal(res.Data, &company))

	code, _ := call(t, srv, http.MethodPost, "/Users/Create", admin, map[string]any{
		"firstName": "Sam", "lastName": "Super", "email": "sam@acme.com", "phoneNumber": "1",
		"password": "supersecret", "roleName": "Supervisor", "companyId": company.ID,
	})
	require.Equal(t, http.StatusOK, code)

	token := login(t, srv, "sam@acme.com", "supersecret")
	code, _ = call(t, srv, http.MethodGet, "/Users/ViewAll", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCompanyLifecycle(t *testing.T) {
	srv := testServer(t)
	token := login(t, srv, testAdmin, testPassword)

	draft := map[string]any{"name": "Acme", "namePrefix": "acme1", "description": "d", "email": "a@b.com", "phoneNumber": "000"}
	code, res := call(t, srv, http.MethodPost, "/Company/Create", token, draft)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Company created successfully", res.Message)

	var c struct {
		ID         string `json:"id"`
		Code       string `json:"code"`
		NamePrefix string `json:"namePrefix"`
		IsActive   bool   `json:"isActive"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &c))
	assert.Equal(t, "ACM", c.NamePrefix)
	assert.Equal(t, "ACM-0001", c.Code)
	assert.True(t, c.IsActive)

	_, res = call(t, srv, http.MethodPost, "/Company/Create", token, draft)
	require.NotNil(t, res.Status)
	assert.False(t, *res.Status)
	assert.Contains(t, res.Message, "already exists")

	code, _ = call(t, srv, http.MethodGet, "/Company/Status/Toggle?CompanyId="+c.ID, token, nil)
	assert.Equal(t, http.StatusOK, code)

	_, res = call(t, srv, http.MethodGet, "/Company/ViewById?CompanyId="+c.ID, token, nil)
	require.NoError(t, json.Unmarshal(res.Data, &c))
	assert.False(t, c.IsActive)

	_, res = call(t, srv, http.MethodGet, "/Company/History?CompanyId="+c.ID, token, nil)
	var history []struct {
		Summary string `json:"summary"`
		User    string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "Company disabled", history[1].Summary)
	assert.Equal(t, testAdmin, history[1].User)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	srv := testServer(t)
	token := login(t, srv, testAdmin, testPassword)

	code, res := call(t, srv, http.MethodPost, "/Roles/Create", token, map[string]any{"roleName": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Message, "roleName is required")
}

func TestUnknownRecordIsNotFound(t *testing.T) {
	srv := testServer(t)
	token := login(t, srv, testAdmin, testPassword)

	code, _ := call(t, srv, http.MethodGet, "/Projects/GetByCode?code=PRJ-9999", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestClaimsReplaceSet(t *testing.T) {
	srv := testServer(t)
	token := login(t, srv, testAdmin, testPassword)
	id := srv.AdminID()

	for i := 0; i < 2; i++ {
		code, _ := call(t, srv, http.MethodPost, "/Claims/AddToUser", token, map[string]any{
			"userId": id, "claims": []string{"users.view", "users.view", "roles.manage"},
		})
		require.Equal(t, http.StatusOK, code)
	}

	_, res := call(t, srv, http.MethodGet, "/Claims/GetByUser?userId="+id, token, nil)
	var names []string
	require.NoError(t, json.Unmarshal(res.Data, &names))
	assert.Equal(t, []string{"roles.manage", "users.view"}, names)

	code, _ := call(t, srv, http.MethodPost, "/Claims/AddToUser", token, map[string]any{
		"userId": id, "claims": []string{"no.such.claim"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestInjectFaultAndCalls(t *testing.T) {
	srv := testServer(t)
	token := login(t, srv, testAdmin, testPassword)

	srv.InjectFault("GET /Roles/List", Fault{Status: http.StatusServiceUnavailable})

	code, _ := call(t, srv, http.MethodGet, "/Roles/List", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = call(t, srv, http.MethodGet, "/Roles/List", token, nil)
	assert.Equal(t, http.StatusOK, code)

	assert.Equal(t, 2, srv.Calls("GET /Roles/List"))
	assert.Equal(t, 1, srv.Calls("POST /Home/Authorize"))
}
