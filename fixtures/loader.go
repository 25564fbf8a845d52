package fixtures

import (
	"errors"
	"fmt"

	"usercenter/database"
	"usercenter/models"
	"usercenter/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoadOptions controls what the fixture loader seeds.
type LoadOptions struct {
	UserCount           int
	PlaceholderPassword string
	AdminEmail          string
	AdminName           string
	AdminPassword       string
	// Seed for the faker; 0 means random.
	Seed uint64
	// Purge wipes existing users (and their role links) before loading.
	Purge bool
}

// Load seeds the database with fake users and one admin account. Roles and
// permissions must already be seeded (database.SeedRolesAndPermissions).
// The admin load is idempotent: an existing account with the admin email is
// left alone.
func Load(db *gorm.DB, opts LoadOptions) error {
	repo := repositories.NewUserRepository(db)

	if opts.Purge {
		if err := purgeUsers(db); err != nil {
			return fmt.Errorf("purging users: %w", err)
		}
	}

	factory, err := NewUserFactory(opts.Seed, opts.PlaceholderPassword)
	if err != nil {
		return err
	}

	for i := 0; i < opts.UserCount; i++ {
		user := factory.Fake()
		if err := repo.Create(&user); err != nil {
			return fmt.Errorf("creating fixture user %s: %w", user.Email, err)
		}
		if err := repo.AssignRoles(&user, []string{database.RoleUser}); err != nil {
			return fmt.Errorf("assigning role to fixture user %s: %w", user.Email, err)
		}
	}

	return loadAdmin(repo, opts)
}

func loadAdmin(repo repositories.UserRepository, opts LoadOptions) error {
	if opts.AdminEmail == "" {
		return nil
	}

	_, err := repo.FindByEmail(opts.AdminEmail)
	if err == nil {
		return nil // admin already present
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking for existing admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := models.User{
		Email:    opts.AdminEmail,
		Name:     opts.AdminName,
		Password: string(hash),
		Active:   true,
	}
	if err := repo.Create(&admin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	return repo.AssignRoles(&admin, []string{database.RoleAdmin, database.RoleUser})
}

func purgeUsers(db *gorm.DB) error {
	if err := db.Exec("DELETE FROM user_roles").Error; err != nil {
		return err
	}
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.User{}).Error
}
