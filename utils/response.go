package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"freshcart/errs"
)

// RespondWithJSON sends data as-is with the given status.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// RespondSuccess writes the {success, message, data} envelope.
func RespondSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	RespondWithJSON(w, status, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// RespondWithError maps err onto its HTTP status. Internal errors are logged
// and answered with a generic message.
func RespondWithError(w http.ResponseWriter, err error) {
	msg := "Something went wrong"
	kind := errs.Internal

	var e *errs.Error
	if errors.As(err, &e) && e.Kind != errs.Internal {
		kind, msg = e.Kind, e.Message
	} else {
		log.Printf("internal error: %v", err)
	}
	RespondWithJSON(w, kind.Status(), map[string]interface{}{
		"success": false,
		"error":   kind.String(),
		"message": msg,
	})
}

// M is a short alias for ad-hoc JSON objects.
type M map[string]interface{}
