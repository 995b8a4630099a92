package config

import (
	"context"
	"testing"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/pkg/logger"
	"loanbook/internal/pkg/password"
	"loanbook/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_CreatesAdminOnce(t *testing.T) {
	db := testdb.New(t)
	seeder := NewSeeder(db, logger.Discard())
	ctx := context.Background()

	seeder.Run(ctx, "admin123456")
	seeder.Run(ctx, "admin123456")

	var admins []models.User
	require.NoError(t, db.Where("role = ?", "ADMIN").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, DefaultAdminUsername, admins[0].Username)
	assert.True(t, password.Verify("admin123456", admins[0].Password))
}
