package repositories

import (
	"context"
	"testing"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: "CUSTOMER", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	bob := testdb.CreateUser(t, db, "bob", "ADMIN")
	users, err := repo.GetByIDs(ctx, []uint{user.ID, bob.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
