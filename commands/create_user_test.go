package commands

import (
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"usercenter/database"
	"usercenter/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq int64

// setupTestDB injects a fresh in-memory database as the global connection
// so commands skip the MySQL bootstrap.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cmd_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}))
	database.SeedRolesAndPermissions(db)

	originalDB := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = originalDB })
	return db
}

func runCommand(cmd *cobra.Command, input string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCreateUserInteractive(t *testing.T) {
	db := setupTestDB(t)

	out, _, err := runCommand(NewCreateUserCmd(), "alice@example.com\nAlice\nsecret123\n")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")

	var user models.User
	require.NoError(t, db.Preload("Roles").Where("email = ?", "alice@example.com").First(&user).Error)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, user.Active)
	assert.True(t, user.HasRole(database.RoleUser))
	assert.False(t, user.HasRole(database.RoleAdmin))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
}

func TestCreateUserRepromptsOnInvalidInput(t *testing.T) {
	db := setupTestDB(t)

	// First email and password answers are invalid and must be re-asked.
	input := "not-an-email\nbob@example.com\nBob\nshort\nsecret123\n"
	out, _, err := runCommand(NewCreateUserCmd(), input)
	require.NoError(t, err)
	assert.Contains(t, out, "is not a valid email address")
	assert.Contains(t, out, "at least 6 characters")

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestCreateUserGivesUpAfterTooManyAttempts(t *testing.T) {
	setupTestDB(t)

	input := "bad\nworse\nstill-bad\n"
	_, _, err := runCommand(NewCreateUserCmd(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many invalid answers")
}

func TestCreateUserWithFlags(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := runCommand(NewCreateUserCmd(), "",
		"--email", "root@example.com", "--name", "Root", "--password", "secret123", "--admin", "--inactive")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Preload("Roles").Where("email = ?", "root@example.com").First(&user).Error)
	assert.True(t, user.HasRole(database.RoleAdmin))
	assert.False(t, user.Active)
}

func TestCreateUserInvalidFlagValue(t *testing.T) {
	setupTestDB(t)

	_, _, err := runCommand(NewCreateUserCmd(), "",
		"--email", "not-an-email", "--name", "Bob", "--password", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid email address")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)

	existing := models.User{Email: "taken@example.com", Name: "First", Password: "hash", Active: true}
	require.NoError(t, db.Create(&existing).Error)

	_, errOut, err := runCommand(NewCreateUserCmd(), "",
		"--email", "taken@example.com", "--name", "Second", "--password", "secret123")
	require.Error(t, err)
	assert.Contains(t, errOut, "[ERROR]")
	assert.Contains(t, errOut, "already exists")

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.EqualValues(t, 1, total, "no second row may appear")
}

func TestLoadFixturesCommand(t *testing.T) {
	db := setupTestDB(t)

	out, _, err := runCommand(NewLoadFixturesCmd(), "", "--count", "5", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	// No admin account: the admin email comes from configuration, which
	// tests leave empty.
	assert.EqualValues(t, 5, total)
}
