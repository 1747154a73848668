package fakeapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockout(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLockout(3, 10*time.Minute, func() time.Time { return now })

	assert.False(t, l.fail("a"))
	assert.False(t, l.fail("a"))
	assert.True(t, l.fail("a"))
	assert.Equal(t, 10*time.Minute, l.locked("a"))
	assert.Zero(t, l.locked("b"))

	now = now.Add(11 * time.Minute)
	assert.Zero(t, l.locked("a"))
	assert.False(t, l.fail("a"), "counter restarts after the lock expires")

	l.clear("a")
	assert.Zero(t, l.locked("a"))
}

func TestLockout_Disabled(t *testing.T) {
	l := newLockout(-1, time.Minute, time.Now)
	for range 10 {
		assert.False(t, l.fail("a"))
	}
	assert.Zero(t, l.locked("a"))
}

func TestAuthorize_LocksAfterRepeatedFailures(t *testing.T) {
	srv := testServer(t)
	bad := map[string]string{"username": testAdmin, "password": "wrong"}

	for range 5 {
		code, _ := call(t, srv, http.MethodPost, "/Home/Authorize", "", bad)
		assert.Equal(t, http.StatusUnauthorized, code)
	}

	good := map[string]string{"username": testAdmin, "password": testPassword}
	code, res := call(t, srv, http.MethodPost, "/Home/Authorize", "", good)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, res.Message, "Account locked")
}
