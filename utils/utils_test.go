package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freshcart/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addPayload struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONValidates(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product":"","quantity":0}`))
	var p addPayload
	err := DecodeJSON(r, &p)

	require.Error(t, err)
	assert.Equal(t, errs.ValidationError, errs.KindOf(err))
	assert.Contains(t, err.Error(), "product is required")
	assert.Contains(t, err.Error(), "quantity must be greater than 0")
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var p addPayload
	assert.True(t, errs.Has(DecodeJSON(r, &p), errs.ValidationError))
}

func TestRespondWithErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, errs.E(errs.OrderNotFound, "Order not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "OrderNotFound", body["error"])
	assert.Equal(t, "Order not found", body["message"])
}

func TestRespondWithErrorHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, errors.New("mongo: connection refused at 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestGenerateRandomDigitString(t *testing.T) {
	otp := GenerateRandomDigitString(6)
	assert.Len(t, otp, 6)
	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestParseQueryOptions(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10&userId=u1", nil)
	q := ParseQueryOptions(r)
	assert.Equal(t, 20, q.Skip())
	assert.Equal(t, "u1", q.UserID)
}
