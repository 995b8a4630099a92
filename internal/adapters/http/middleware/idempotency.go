package middleware

import (
	"errors"
	"strconv"

	"loanbook/internal/pkg/idempotency"
	"loanbook/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderIdempotencyKey carries the client-chosen key
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed marks a response served from the store
	HeaderIdempotentReplayed = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

// Idempotency replays the stored response when a request is retried with the
// same Idempotency-Key. Requests without the header, or any request when store
// is nil, pass straight through. Keys are scoped per authenticated user, so it
// must run after AuthMiddleware.
func Idempotency(store *idempotency.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientKey := c.Get(HeaderIdempotencyKey)
		if store == nil || clientKey == "" {
			return c.Next()
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			return response.BadRequest(c, "Idempotency-Key is too long")
		}

		ctx := c.UserContext()
		key := idempotency.Key(strconv.FormatUint(uint64(CurrentUserID(c)), 10), clientKey)
		fingerprint := idempotency.Fingerprint([]byte(c.Method()), []byte(c.Path()), c.Body())

		rec, err := store.Begin(ctx, key, fingerprint)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			return response.Conflict(c, err.Error())
		case errors.Is(err, idempotency.ErrKeyReused):
			return response.UnprocessableEntity(c, err.Error())
		case err != nil:
			log.WithError(err).Error("idempotency store unavailable")
			return response.Error(c, fiber.StatusServiceUnavailable, "Idempotency store unavailable")
		case rec != nil:
			c.Set(HeaderIdempotentReplayed, "true")
			return response.Raw(c, rec.StatusCode, rec.Body)
		}

		if err := c.Next(); err != nil {
			release(c, store, key, log)
			return err
		}

		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			release(c, store, key, log)
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Complete(ctx, key, fingerprint, status, body); err != nil {
			log.WithField("key", key).WithError(err).Error("failed to store idempotent response")
		}
		return nil
	}
}

func release(c *fiber.Ctx, store *idempotency.Store, key string, log *logrus.Logger) {
	if err := store.Release(c.UserContext(), key); err != nil {
		log.WithField("key", key).WithError(err).Warn("failed to release idempotency key")
	}
}
