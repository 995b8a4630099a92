package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, app *fiber.App, path string) (int, Response) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out Response
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestHelpers(t *testing.T) {
	app := fiber.New()
	app.Get("/created", func(c *fiber.Ctx) error { return Created(c, "made", fiber.Map{"id": 1}) })
	app.Get("/unprocessable", func(c *fiber.Ctx) error { return UnprocessableEntity(c, "nope") })
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ValidationError(c, map[string]string{"amount": "gt"})
	})
	app.Get("/raw", func(c *fiber.Ctx) error { return Raw(c, fiber.StatusAccepted, []byte(`{"success":true}`)) })

	status, body := decode(t, app, "/created")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "made", body.Message)

	status, body = decode(t, app, "/unprocessable")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.False(t, body.Success)
	assert.Equal(t, "nope", body.Error)

	status, body = decode(t, app, "/validation")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, map[string]interface{}{"amount": "gt"}, body.Details)

	status, body = decode(t, app, "/raw")
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.True(t, body.Success)
}
