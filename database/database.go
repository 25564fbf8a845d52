package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"usercenter/config"
	"usercenter/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Role names known to the seeder and the rest of the application.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func InitDB() {
	dsn := config.AppConfig.DatabaseURL

	// GORM logger configuration
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect database: %w", err))
	}

	// AutoMigrate models including join tables
	if err := db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}); err != nil {
		panic(fmt.Errorf("failed to migrate database: %w", err))
	}

	DB = db

	SeedRolesAndPermissions(DB)
}

// SeedRolesAndPermissions seeds the database with the permission catalog and
// the built-in roles. It is idempotent: existing rows are left untouched and
// role/permission associations are replaced with the canonical set.
func SeedRolesAndPermissions(db *gorm.DB) {
	// --- Permissions ---
	permissions := []models.Permission{
		{Name: "users:list", Description: "Ability to list users"},
		{Name: "users:read:self", Description: "Ability to read own user profile"},
		{Name: "users:read:all", Description: "Ability to read any user profile"},
		{Name: "users:update:self", Description: "Ability to update own user profile"},
		{Name: "users:update:all", Description: "Ability to update any user profile"},
		{Name: "users:delete:self", Description: "Ability to delete own user account"},
		{Name: "users:delete:all", Description: "Ability to delete any user account"},
		{Name: "roles:manage", Description: "Ability to manage roles and permissions"},
	}

	for _, p := range permissions {
		var existing models.Permission
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&p).Error; err != nil {
				log.Printf("Failed to seed permission %s: %v\n", p.Name, err)
			}
		}
	}

	// --- Roles ---
	roles := []struct {
		Role        models.Role
		Permissions []string
	}{
		{
			Role:        models.Role{Name: RoleAdmin, Description: "Administrator with full access"},
			Permissions: []string{"users:list", "users:read:all", "users:update:all", "users:delete:all", "roles:manage"},
		},
		{
			Role:        models.Role{Name: RoleUser, Description: "Standard user"},
			Permissions: []string{"users:read:self", "users:update:self", "users:delete:self"},
		},
	}

	for _, rData := range roles {
		var existingRole models.Role
		err := db.Where("name = ?", rData.Role.Name).First(&existingRole).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&rData.Role).Error; err != nil {
				log.Printf("Failed to seed role %s: %v\n", rData.Role.Name, err)
				continue
			}
			existingRole = rData.Role
		} else if err != nil {
			log.Printf("Error checking for role %s: %v\n", rData.Role.Name, err)
			continue
		}

		var perms []models.Permission
		if err := db.Where("name IN ?", rData.Permissions).Find(&perms).Error; err != nil {
			log.Printf("Failed to find permissions for role %s: %v\n", existingRole.Name, err)
			continue
		}

		if len(perms) > 0 {
			if err := db.Model(&existingRole).Association("Permissions").Replace(perms); err != nil {
				log.Printf("Failed to associate permissions with role %s: %v\n", existingRole.Name, err)
			}
		}
	}
}
