package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/loyalty-client/internal/crmstub"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/handler"
	"github.com/mmeshcher/loyalty-client/internal/middleware"
)

type harness struct {
	t    *testing.T
	base []string
}

func newHarness(t *testing.T, baseURL string) *harness {
	t.Helper()

	for _, key := range []string{"CRM_BASE_URL", "TOKEN_STORE", "LANGUAGE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	token := "file:" + filepath.Join(t.TempDir(), "token")
	return &harness{
		t:    t,
		base: []string{"--lang", "en", "-l", "error", "-s", token, "-u", baseURL},
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand("test", Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	cmd.SetArgs(append(append([]string{}, h.base...), args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func startStub(t *testing.T) string {
	t.Helper()

	seed, err := demo.DefaultSeed()
	require.NoError(t, err)

	backend := crmstub.NewBackend(seed.Available, zap.NewNop(), crmstub.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, backend.Seed("91234567", "secret1", seed))

	h := handler.NewHandler(backend, zap.NewNop(), middleware.NewAuthMiddleware("cli"), nil)
	srv := httptest.NewServer(h.SetupRouter())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestDemoFlow(t *testing.T) {
	// Демо-режим не обращается к сети: адрес заведомо недоступен.
	h := newHarness(t, "http://127.0.0.1:1")

	out, err := h.run("", "login", demo.Phone, demo.Password)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Demo Member")

	out, err = h.run("", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "Gold")
	assert.Contains(t, out, "2,580 points")

	out, err = h.run("", "points")
	require.NoError(t, err)
	assert.Contains(t, out, "Lifetime points: 15,420")
	assert.Contains(t, out, "2024.12.01 14:30")

	out, err = h.run("", "coupons")
	require.NoError(t, err)
	assert.Contains(t, out, "coupon-001")

	out, err = h.run("", "redeem", "coupon-001", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Redeemed successfully")
	assert.Contains(t, out, "Redemption code: BLN-")

	out, err = h.run("", "logout", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = h.run("", "whoami")
	require.Error(t, err)
	assert.Equal(t, "Your session has expired. Please log in again.", err.Error())
}

func TestLiveFlow(t *testing.T) {
	h := newHarness(t, startStub(t))

	_, err := h.run("", "login", "91234567", "secret1")
	require.NoError(t, err)

	out, err := h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "91234567")
	assert.Contains(t, out, "live")

	out, err = h.run("", "history", "-n", "4", "--pages", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "No more transactions")

	out, err = h.run("n\n", "redeem", "coupon-003")
	require.NoError(t, err)
	assert.NotContains(t, out, "Redeemed successfully")

	_, err = h.run("", "coupon", "coupon-404")
	require.Error(t, err)
	assert.Equal(t, "Coupon not found", err.Error())

	out, err = h.run("", "notifications", "on")
	require.NoError(t, err)
	assert.Contains(t, out, "Push notifications: On")
}

func TestLogin_ValidationFailsFast(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	_, err := h.run("", "login", "123", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid 8-digit phone number", err.Error())
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	out, err := h.run(demo.Password+"\n", "login", demo.Phone)
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Welcome, Demo Member")
}

func TestLanguage(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	out, err := h.run("", "language")
	require.NoError(t, err)
	assert.Equal(t, "Language: en\n", out)

	out, err = h.run("", "language", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Language: en\n", out)

	_, err = h.run("", "language", "fr")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Equal(t, "loyalty version test\n", out)
}
