package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freshcart/errs"
	"freshcart/models"
	"freshcart/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type accountMap map[string]*models.Account

func (m accountMap) FindByID(_ context.Context, id string) (*models.Account, error) {
	return m[id], nil
}

func newResolver() *Resolver {
	return &Resolver{Secret: secret, Accounts: accountMap{
		"u1":   {ID: "u1", Role: models.RoleCustomer},
		"off":  {ID: "off", Role: models.RoleCustomer, Disabled: true},
		"boss": {ID: "boss", Role: models.RoleAdmin},
	}}
}

func token(t *testing.T, id string) string {
	t.Helper()
	tok, err := IssueToken(secret, &models.Account{ID: id, Role: models.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestResolveFromHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart/get", nil)
	r.Header.Set("Authorization", "Bearer "+token(t, "u1"))

	acc, err := newResolver().Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", acc.ID)
}

func TestResolveFromBodyKeepsBody(t *testing.T) {
	body := `{"token":"` + token(t, "u1") + `","product":"p1"}`
	r := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	acc, err := newResolver().Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", acc.ID)

	rest := new(strings.Builder)
	_, _ = rest.ReadFrom(r.Body)
	assert.Equal(t, body, rest.String())
}

func TestResolveFromOversizedBodyKeepsBody(t *testing.T) {
	body := `{"token":"` + token(t, "u1") + `","notes":"` + strings.Repeat("x", maxTokenScan) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	_, err := newResolver().Resolve(r)
	assert.Equal(t, errs.Unauthenticated, errs.KindOf(err))

	rest := new(strings.Builder)
	_, err = rest.ReadFrom(r.Body)
	require.NoError(t, err)
	assert.Equal(t, len(body), rest.Len())
	assert.Equal(t, body, rest.String())
}

func TestResolveFailures(t *testing.T) {
	otherSecret, err := IssueToken([]byte("other"), &models.Account{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, &models.Account{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString(secret)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   errs.Kind
	}{
		{"missing", "", errs.Unauthenticated},
		{"not bearer", "Basic abc", errs.Unauthenticated},
		{"bad signature", "Bearer " + otherSecret, errs.Unauthenticated},
		{"expired", "Bearer " + expired, errs.Unauthenticated},
		{"no subject", "Bearer " + noSubject, errs.Unauthenticated},
		{"unknown account", "Bearer " + token(t, "ghost"), errs.AccountNotFound},
		{"disabled", "Bearer " + token(t, "off"), errs.Forbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			_, err := newResolver().Resolve(r)
			assert.Equal(t, tc.want, errs.KindOf(err))
		})
	}
}

func TestAuthenticateAbortsBeforeHandler(t *testing.T) {
	called := false
	h := newResolver().Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChainRequireAdmin(t *testing.T) {
	rs := newResolver()
	h := Chain(rs.Authenticate, Require(OrderListAll))(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, utils.GetAccountFromRequest(r).ID)
	})

	customer := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/order/list", nil)
	r.Header.Set("Authorization", "Bearer "+token(t, "u1"))
	h(customer, r, nil)
	assert.Equal(t, http.StatusForbidden, customer.Code)

	admin := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/order/list", nil)
	r.Header.Set("Authorization", "Bearer "+token(t, "boss"))
	h(admin, r, nil)
	assert.Equal(t, http.StatusOK, admin.Code)
}

func TestPolicyTable(t *testing.T) {
	customer := &models.Account{ID: "c", Role: models.RoleCustomer}
	admin := &models.Account{ID: "a", Role: models.RoleAdmin}
	super := &models.Account{ID: "s", Role: models.RoleSuperAdmin}

	assert.True(t, Allowed(OrderRead, customer, true))
	assert.False(t, Allowed(OrderRead, customer, false))
	assert.True(t, Allowed(OrderRead, admin, false))
	assert.True(t, Allowed(OrderCancelOwn, customer, true))
	assert.False(t, Allowed(OrderCancelOwn, admin, false))
	assert.False(t, Allowed(OrderUpdateStatus, customer, true))
	assert.False(t, Allowed(CatalogWrite, nil, true))

	assert.True(t, CanToggle(admin, customer))
	assert.False(t, CanToggle(admin, super))
	assert.False(t, CanToggle(admin, &models.Account{Role: models.RoleAdmin}))
	assert.True(t, CanToggle(super, admin))
	assert.False(t, CanToggle(customer, customer))
}
