// Package idempotency records responses to client-keyed requests in Redis so
// that a retried request is answered with the original response instead of
// being executed twice.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrInProgress means another request holding the same key has not finished
	ErrInProgress = errors.New("request with this idempotency key is in progress")
	// ErrKeyReused means the key was already used for a different payload
	ErrKeyReused = errors.New("idempotency key was used with a different request")
)

const (
	statePending = "pending"
	stateDone    = "done"

	keyPrefix = "idempotency:"
)

// Record is what is kept under a key
type Record struct {
	State       string          `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	StatusCode  int             `json:"status_code,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// Store keeps idempotency records in Redis
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewStore wraps an existing client. Completed responses live for ttl; a claim
// that is never completed expires after lockTTL.
func NewStore(client *redis.Client, ttl, lockTTL time.Duration) *Store {
	return &Store{client: client, ttl: ttl, lockTTL: lockTTL}
}

// Connect parses a redis:// URL, pings the server and returns a Store
func Connect(ctx context.Context, redisURL string, ttl, lockTTL time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewStore(client, ttl, lockTTL), nil
}

// Key namespaces a client key by scope, usually the caller's user ID
func Key(scope, clientKey string) string {
	return keyPrefix + scope + ":" + clientKey
}

// Fingerprint identifies a request payload
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Begin claims key for a new request. It returns (nil, nil) when the caller now
// owns the key, or the stored record when a completed response can be replayed.
func (s *Store) Begin(ctx context.Context, key, fingerprint string) (*Record, error) {
	claim, err := json.Marshal(Record{State: statePending, Fingerprint: fingerprint})
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, key, claim, s.lockTTL).Result()
	if err != nil {
		return nil, errors.Wrap(err, "claim idempotency key")
	}
	if ok {
		return nil, nil
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// claim expired between SETNX and GET
			return nil, ErrInProgress
		}
		return nil, errors.Wrap(err, "read idempotency key")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "decode idempotency record")
	}
	if rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	if rec.State != stateDone {
		return nil, ErrInProgress
	}
	return &rec, nil
}

// Complete stores the response for key so later retries replay it
func (s *Store) Complete(ctx context.Context, key, fingerprint string, statusCode int, body []byte) error {
	data, err := json.Marshal(Record{
		State:       stateDone,
		Fingerprint: fingerprint,
		StatusCode:  statusCode,
		Body:        json.RawMessage(body),
	})
	if err != nil {
		return err
	}
	return errors.Wrap(s.client.Set(ctx, key, data, s.ttl).Err(), "store idempotency record")
}

// Release drops a claim so the client may retry with the same key
func (s *Store) Release(ctx context.Context, key string) error {
	return errors.Wrap(s.client.Del(ctx, key).Err(), "release idempotency key")
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
