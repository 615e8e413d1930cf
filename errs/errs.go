// Package errs holds the error kinds shared by the storefront handlers and
// their mapping onto HTTP status codes.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	AccountNotFound
	Forbidden
	NotFound
	CartNotFound
	ItemNotInCart
	OrderNotFound
	InvalidOrderItems
	MissingShippingAddress
	InvalidStatus
	InvalidTransition
	InvalidSignature
	ValidationError
	Conflict
	Busy
	GatewayUnavailable
)

var kindNames = map[Kind]string{
	Internal:               "Internal",
	Unauthenticated:        "Unauthenticated",
	AccountNotFound:        "AccountNotFound",
	Forbidden:              "Forbidden",
	NotFound:               "NotFound",
	CartNotFound:           "CartNotFound",
	ItemNotInCart:          "ItemNotInCart",
	OrderNotFound:          "OrderNotFound",
	InvalidOrderItems:      "InvalidOrderItems",
	MissingShippingAddress: "MissingShippingAddress",
	InvalidStatus:          "InvalidStatus",
	InvalidTransition:      "InvalidTransition",
	InvalidSignature:       "InvalidSignature",
	ValidationError:        "ValidationError",
	Conflict:               "Conflict",
	Busy:                   "Busy",
	GatewayUnavailable:     "GatewayUnavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Status returns the HTTP status a handler answers with for this kind.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated, AccountNotFound:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound, CartNotFound, ItemNotInCart, OrderNotFound:
		return http.StatusNotFound
	case InvalidOrderItems, MissingShippingAddress, InvalidStatus, InvalidSignature, ValidationError:
		return http.StatusBadRequest
	case InvalidTransition, Conflict:
		return http.StatusConflict
	case Busy:
		return http.StatusTooManyRequests
	case GatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind so callers can write
// errors.Is(err, errs.E(errs.OrderNotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err, Internal if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Has reports whether err is classified as kind.
func Has(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
