package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freshcart/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client wraps the shared Redis connection.
type Client struct {
	Conn *redis.Client

	// LockAttempts and LockBackoff bound how long Lock waits for a held key.
	LockAttempts int
	LockBackoff  time.Duration
}

func Connect(ctx context.Context, addr, password string) (*Client, error) {
	conn := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(conn), nil
}

func New(conn *redis.Client) *Client {
	return &Client{Conn: conn, LockAttempts: 5, LockBackoff: 40 * time.Millisecond}
}

func (c *Client) Close() error { return c.Conn.Close() }

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock takes key for ttl and returns the release func. When the key stays
// held through every attempt it fails with errs.Busy.
func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	attempts := max(c.LockAttempts, 1)

	for i := 0; i < attempts; i++ {
		ok, err := c.Conn.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				// the request context may already be done; release regardless
				relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(relCtx, c.Conn, []string{key}, token).Err()
			}, nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.LockBackoff):
			}
		}
	}
	return nil, errs.E(errs.Busy, "please retry")
}

// SetEx stores value under key for ttl.
func (c *Client) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Conn.Set(ctx, key, value, ttl).Err()
}

// Get returns "" with no error when key is missing.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.Conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *Client) Del(ctx context.Context, key string) error {
	return c.Conn.Del(ctx, key).Err()
}

// Incr bumps a counter and sets its expiry when it is first created.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := c.Conn.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		c.Conn.Expire(ctx, key, ttl)
	}
	return n, nil
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Conn.Publish(ctx, channel, payload).Err()
}
