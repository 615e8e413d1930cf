package utils

import (
	"net/http"

	"freshcart/globals"
	"freshcart/models"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetAccountFromRequest returns the account put in the context by the
// identity middleware, or nil on unauthenticated routes.
func GetAccountFromRequest(r *http.Request) *models.Account {
	acc, _ := r.Context().Value(globals.AccountKey).(*models.Account)
	return acc
}
