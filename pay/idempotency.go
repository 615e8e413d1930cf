package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"freshcart/errs"
	"freshcart/models"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
)

// IdempotencyStore keeps Idempotency-Key reservations and their responses.
type IdempotencyStore interface {
	Reserve(ctx context.Context, rec models.IdempotencyRecord) (bool, error)
	Find(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	SaveResponse(ctx context.Context, key string, response map[string]interface{}) error
	Release(ctx context.Context, key string) error
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// captureResponseWriter wraps http.ResponseWriter to capture status and body.
type captureResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func (c *captureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.ResponseWriter.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *captureResponseWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotent replays the stored response for a repeated Idempotency-Key.
//   - no header: pass-through
//   - first use: run the handler and keep its response; 5xx answers release
//     the key so the client can retry
//   - same key, different request: 409
//   - same key while the first request is still running: 429
//
// It must run after Authenticate so the key is scoped to the caller.
func Idempotent(store IdempotencyStore, ttl time.Duration) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next(w, r, ps)
				return
			}

			userID := utils.GetUserIDFromRequest(r)

			// Limit body size to 1 MB to prevent memory issues
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				utils.RespondWithError(w, errs.Wrap(errs.ValidationError, "Failed to read request body", err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			scoped := userID + ":" + key
			reqHash := computeRequestHash(r, bodyBytes, userID)
			now := time.Now()
			rec := models.IdempotencyRecord{
				Key:         scoped,
				Method:      r.Method,
				Path:        r.URL.Path,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			}

			ctx := r.Context()
			fresh, err := store.Reserve(ctx, rec)
			if err != nil {
				utils.RespondWithError(w, err)
				return
			}
			if fresh {
				crw := &captureResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
				next(crw, r, ps)

				// the request context may already be done; persist regardless
				bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if crw.statusCode >= http.StatusInternalServerError {
					if err := store.Release(bg, scoped); err != nil {
						log.Printf("idempotency: release %s: %v", scoped, err)
					}
					return
				}
				if err := store.SaveResponse(bg, scoped, map[string]interface{}{
					"status": crw.statusCode,
					"body":   crw.buf.String(),
				}); err != nil {
					log.Printf("idempotency: save %s: %v", scoped, err)
				}
				return
			}

			existing, err := store.Find(ctx, scoped)
			if err != nil {
				utils.RespondWithError(w, err)
				return
			}
			if existing == nil {
				utils.RespondWithError(w, errs.E(errs.Busy, "please retry"))
				return
			}
			if existing.RequestHash != reqHash {
				utils.RespondWithError(w, errs.E(errs.Conflict, "Idempotency-Key was used for a different request"))
				return
			}
			if existing.Response == nil {
				utils.RespondWithError(w, errs.E(errs.Busy, "A request with this Idempotency-Key is in progress"))
				return
			}

			body, _ := existing.Response["body"].(string)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(storedStatus(existing.Response["status"]))
			io.WriteString(w, body)
		}
	}
}

// storedStatus reads the status back whatever integer type the store used.
func storedStatus(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return http.StatusOK
	}
}
