package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"usercenter/database"
	"usercenter/models"
	"usercenter/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq int64

// setupService creates a fresh in-memory database with seeded roles and
// installs it as the global DB used by permission checks.
func setupService(t *testing.T) UserService {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}))
	database.SeedRolesAndPermissions(db)

	originalDB := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = originalDB })

	return NewUserService(repositories.NewUserRepository(db))
}

func mustCreate(t *testing.T, svc UserService, email, name, password string, roles ...string) *models.User {
	t.Helper()
	user, err := svc.CreateUser(&CreateUserInput{Email: email, Name: name, Password: password, Roles: roles})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	svc := setupService(t)

	t.Run("Success", func(t *testing.T) {
		user, err := svc.CreateUser(&CreateUserInput{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, user.Active)
		assert.True(t, user.HasRole(database.RoleUser))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	})

	t.Run("Duplicate email", func(t *testing.T) {
		before := countUsers(t)
		_, err := svc.CreateUser(&CreateUserInput{Email: "alice@example.com", Name: "Other Alice", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.Equal(t, before, countUsers(t))
	})

	t.Run("Admin role and inactive flag", func(t *testing.T) {
		inactive := false
		user, err := svc.CreateUser(&CreateUserInput{
			Email:    "root@example.com",
			Name:     "Root",
			Password: "secret123",
			Roles:    []string{database.RoleUser, database.RoleAdmin},
			Active:   &inactive,
		})
		require.NoError(t, err)
		assert.True(t, user.HasRole(database.RoleAdmin))
		assert.False(t, user.Active)
	})
}

func countUsers(t *testing.T) int64 {
	t.Helper()
	var total int64
	require.NoError(t, database.DB.Model(&models.User{}).Count(&total).Error)
	return total
}

func TestGetUserByID(t *testing.T) {
	svc := setupService(t)

	alice := mustCreate(t, svc, "alice@example.com", "Alice", "secret123")
	bob := mustCreate(t, svc, "bob@example.com", "Bob", "secret123")
	admin := mustCreate(t, svc, "admin@example.com", "Admin", "secret123", database.RoleUser, database.RoleAdmin)

	t.Run("Self read allowed", func(t *testing.T) {
		got, err := svc.GetUserByID(alice.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.Email, got.Email)
	})

	t.Run("Reading others forbidden without users:read:all", func(t *testing.T) {
		_, err := svc.GetUserByID(bob.ID, alice.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Admin reads anyone", func(t *testing.T) {
		got, err := svc.GetUserByID(bob.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.Email, got.Email)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := svc.GetUserByID(99999, admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateUser(t *testing.T) {
	svc := setupService(t)

	alice := mustCreate(t, svc, "alice@example.com", "Alice", "secret123")
	bob := mustCreate(t, svc, "bob@example.com", "Bob", "secret123")

	t.Run("Self update", func(t *testing.T) {
		newName := "Alice Cooper"
		newPassword := "evenmoresecret"
		updated, err := svc.UpdateUser(alice.ID, alice.ID, &UpdateUserInput{Name: &newName, Password: &newPassword})
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", updated.Name)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("evenmoresecret")))
	})

	t.Run("Email conflict", func(t *testing.T) {
		taken := "bob@example.com"
		_, err := svc.UpdateUser(alice.ID, alice.ID, &UpdateUserInput{Email: &taken})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("Updating others forbidden", func(t *testing.T) {
		name := "Hacked"
		_, err := svc.UpdateUser(bob.ID, alice.ID, &UpdateUserInput{Name: &name})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestListUsers(t *testing.T) {
	svc := setupService(t)

	user := mustCreate(t, svc, "user@example.com", "User", "secret123")
	admin := mustCreate(t, svc, "admin@example.com", "Admin", "secret123", database.RoleUser, database.RoleAdmin)

	t.Run("Requires users:list", func(t *testing.T) {
		_, _, err := svc.ListUsers(1, 10, user.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Admin lists with pagination", func(t *testing.T) {
		users, total, err := svc.ListUsers(1, 1, admin.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, users, 1)
	})
}

func TestDeleteUser(t *testing.T) {
	svc := setupService(t)

	alice := mustCreate(t, svc, "alice@example.com", "Alice", "secret123")
	bob := mustCreate(t, svc, "bob@example.com", "Bob", "secret123")
	admin := mustCreate(t, svc, "admin@example.com", "Admin", "secret123", database.RoleUser, database.RoleAdmin)

	t.Run("Deleting others forbidden", func(t *testing.T) {
		err := svc.DeleteUser(bob.ID, alice.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Self delete", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(alice.ID, alice.ID))
		_, err := svc.GetUserByID(alice.ID, admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Admin deletes anyone", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(bob.ID, admin.ID))
	})
}
