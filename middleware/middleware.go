package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"freshcart/errs"
	"freshcart/globals"
	"freshcart/models"
	"freshcart/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccountFinder is the identity store lookup the resolver needs.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// Resolver turns a bearer credential into a loaded Account.
type Resolver struct {
	Secret   []byte
	Accounts AccountFinder
}

// IssueToken signs an HS256 token for acc that expires after ttl.
func IssueToken(secret []byte, acc *models.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: acc.ID,
		Role:   acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateJWT verifies tokenString and returns its claims.
func ValidateJWT(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errs.Wrap(errs.Unauthenticated, "Invalid token", err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errs.E(errs.Unauthenticated, "Invalid token")
	}
	return claims, nil
}

// Resolve verifies the request credential and loads its account. It never
// writes anything.
func (rs *Resolver) Resolve(r *http.Request) (*models.Account, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return nil, errs.E(errs.Unauthenticated, "Missing token")
	}
	claims, err := ValidateJWT(rs.Secret, tokenString)
	if err != nil {
		return nil, err
	}
	acc, err := rs.Accounts.FindByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errs.E(errs.AccountNotFound, "Account not found")
	}
	if acc.Disabled {
		return nil, errs.E(errs.Forbidden, "Account is disabled")
	}
	return acc, nil
}

// Authenticate resolves the caller and stores the account in the request
// context, aborting the request on failure.
func (rs *Resolver) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		acc, err := rs.Resolve(r)
		if err != nil {
			utils.RespondWithError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), globals.AccountKey, acc)
		ctx = context.WithValue(ctx, globals.UserIDKey, acc.ID)
		ctx = context.WithValue(ctx, globals.RoleKey, acc.Role)
		next(w, r.WithContext(ctx), ps)
	}
}

const maxTokenScan = 1 << 20

type readCloser struct {
	io.Reader
	io.Closer
}

// bearerToken reads the Authorization header, falling back to a "token"
// field in a JSON body. The body is restored for the next handler.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, maxTokenScan))
	// whatever was not scanned still follows, so large bodies reach the
	// handler whole
	r.Body = readCloser{io.MultiReader(bytes.NewReader(body), orig), orig}
	if err != nil || len(body) == maxTokenScan {
		return ""
	}
	var payload struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Token
}

// Chain composes middlewares; the first one runs outermost.
func Chain(mws ...func(httprouter.Handle) httprouter.Handle) func(httprouter.Handle) httprouter.Handle {
	return func(h httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
