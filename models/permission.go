package models

import "gorm.io/gorm"

// Permission represents an action that can be performed (e.g., "users:list", "users:update:self")
type Permission struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
	Roles       []Role `gorm:"many2many:role_permissions;"` // Many-to-Many relationship back to Role
}
