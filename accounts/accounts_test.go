package accounts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freshcart/globals"
	"freshcart/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAccounts map[string]*models.Account

func (m memAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	return m[id], nil
}

func (m memAccounts) AddAddress(_ context.Context, id string, addr models.Address) (*models.Account, error) {
	acc, ok := m[id]
	if !ok {
		return nil, nil
	}
	acc.Addresses = append(acc.Addresses, addr)
	return acc, nil
}

func (m memAccounts) SetName(_ context.Context, id, name string) (*models.Account, error) {
	acc, ok := m[id]
	if !ok {
		return nil, nil
	}
	acc.Name = name
	return acc, nil
}

func (m memAccounts) SetDisabled(_ context.Context, id string, disabled bool) (*models.Account, error) {
	acc, ok := m[id]
	if !ok {
		return nil, nil
	}
	acc.Disabled = disabled
	return acc, nil
}

func fixtures() memAccounts {
	return memAccounts{
		"c1": {ID: "c1", Role: models.RoleCustomer},
		"c2": {ID: "c2", Role: models.RoleCustomer},
		"a1": {ID: "a1", Role: models.RoleAdmin},
		"a2": {ID: "a2", Role: models.RoleAdmin},
		"s1": {ID: "s1", Role: models.RoleSuperAdmin},
	}
}

func as(actor *models.Account, h httprouter.Handle, body string, ps httprouter.Params) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), globals.AccountKey, actor)
	ctx = context.WithValue(ctx, globals.UserIDKey, actor.ID)
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx), ps)
	return rec
}

func id(v string) httprouter.Params { return httprouter.Params{{Key: "id", Value: v}} }

func TestToggleRules(t *testing.T) {
	tests := []struct {
		actor, target string
		want          int
	}{
		{"a1", "c1", http.StatusOK},
		{"a1", "a2", http.StatusForbidden},
		{"a1", "s1", http.StatusForbidden},
		{"s1", "a1", http.StatusOK},
		{"c1", "c2", http.StatusForbidden},
		{"a1", "a1", http.StatusForbidden},
		{"a1", "nobody", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		store := fixtures()
		h := NewHandler(store)
		rec := as(store[tt.actor], h.Disable, "", id(tt.target))
		assert.Equal(t, tt.want, rec.Code, "%s disables %s", tt.actor, tt.target)
		if tt.want == http.StatusOK {
			assert.True(t, store[tt.target].Disabled)
		}
	}
}

func TestEnable(t *testing.T) {
	store := fixtures()
	store["c1"].Disabled = true
	h := NewHandler(store)

	rec := as(store["a1"], h.Enable, "", id("c1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, store["c1"].Disabled)
}

func TestMeAndAddresses(t *testing.T) {
	store := fixtures()
	h := NewHandler(store)

	rec := as(store["c1"], h.Me, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c1"`)

	rec = as(store["c1"], h.AddAddress, `{"zipCode":"411001"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = as(store["c1"], h.AddAddress, `{"street":"1 Main St","city":"Pune","zipCode":"411001"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store["c1"].Addresses, 1)
	assert.Equal(t, "Pune", store["c1"].Addresses[0].City)

	rec = as(store["c1"], h.UpdateMe, `{"name":"  Asha "}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asha", store["c1"].Name)
}
