package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"freshcart/errs"
	"freshcart/middleware"
	"freshcart/models"
	"freshcart/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	mu      sync.Mutex
	byPhone map[string]*models.Account
	logins  int
}

func (m *memAccounts) EnsureByPhone(_ context.Context, phone string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.byPhone[phone]; ok {
		return acc, nil
	}
	acc := &models.Account{ID: "acc-" + phone, Phone: phone, Role: models.RoleCustomer}
	m.byPhone[phone] = acc
	return acc, nil
}

func (m *memAccounts) FindByPhone(_ context.Context, phone string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byPhone[phone], nil
}

func (m *memAccounts) MarkLoggedIn(context.Context, string) error {
	m.mu.Lock()
	m.logins++
	m.mu.Unlock()
	return nil
}

type captureSender struct {
	last string
}

func (c *captureSender) Send(_ context.Context, _ string, message string) error {
	c.last = message
	return nil
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func (c *captureSender) code(t *testing.T) string {
	t.Helper()
	m := codeRe.FindStringSubmatch(c.last)
	require.Len(t, m, 2, "no code in %q", c.last)
	return m[1]
}

func newTestService(t *testing.T) (*Service, *memAccounts, *captureSender, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	kv := rdx.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })

	accounts := &memAccounts{byPhone: map[string]*models.Account{}}
	sender := &captureSender{}
	svc := NewService(kv, accounts, sender, "secret", 5*time.Minute, time.Hour)
	svc.cost = bcrypt.MinCost
	return svc, accounts, sender, mr
}

func TestOTPLogin(t *testing.T) {
	svc, accounts, sender, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "98765 43210"))
	require.Contains(t, accounts.byPhone, "9876543210")

	stored, err := mr.Get("otp:9876543210")
	require.NoError(t, err)
	assert.NotContains(t, stored, sender.code(t))

	token, acc, err := svc.VerifyOTP(ctx, "9876543210", sender.code(t))
	require.NoError(t, err)
	assert.Equal(t, "acc-9876543210", acc.ID)
	assert.Equal(t, 1, accounts.logins)

	claims, err := middleware.ValidateJWT([]byte("secret"), token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, claims.UserID)

	// codes are single use
	_, _, err = svc.VerifyOTP(ctx, "9876543210", sender.code(t))
	assert.True(t, errs.Has(err, errs.ValidationError))
}

func TestOTPWrongCodeAndExpiry(t *testing.T) {
	svc, _, sender, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "9876543210"))
	wrong := "000000"
	if sender.code(t) == wrong {
		wrong = "111111"
	}
	_, _, err := svc.VerifyOTP(ctx, "9876543210", wrong)
	assert.True(t, errs.Has(err, errs.ValidationError))

	mr.FastForward(6 * time.Minute)
	_, _, err = svc.VerifyOTP(ctx, "9876543210", sender.code(t))
	assert.True(t, errs.Has(err, errs.ValidationError))
}

func TestOTPAttemptLimit(t *testing.T) {
	svc, _, sender, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "9876543210"))
	good := sender.code(t)
	wrong := "000000"
	if good == wrong {
		wrong = "111111"
	}
	for i := 0; i < maxOTPAttempts; i++ {
		_, _, err := svc.VerifyOTP(ctx, "9876543210", wrong)
		require.True(t, errs.Has(err, errs.ValidationError))
	}
	_, _, err := svc.VerifyOTP(ctx, "9876543210", good)
	assert.True(t, errs.Has(err, errs.Busy))
}

func TestOTPSendLimit(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxOTPSends; i++ {
		require.NoError(t, svc.SendOTP(ctx, "9876543210"))
	}
	assert.True(t, errs.Has(svc.SendOTP(ctx, "9876543210"), errs.Busy))
}

func TestOTPDisabledAccount(t *testing.T) {
	svc, accounts, sender, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "9876543210"))
	accounts.byPhone["9876543210"].Disabled = true

	_, _, err := svc.VerifyOTP(ctx, "9876543210", sender.code(t))
	assert.True(t, errs.Has(err, errs.Forbidden))
}

func TestSendOTPRequiresPhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	assert.True(t, errs.Has(svc.SendOTP(context.Background(), "  "), errs.ValidationError))
}
