package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email    string `gorm:"unique;not null"`
	Name     string
	Password string `gorm:"not null" json:"-"` // Don't expose password hash
	Active   bool   `gorm:"default:true"`
	Roles    []Role `gorm:"many2many:user_roles;"` // Many-to-Many relationship with Role
}

// HasRole reports whether the user carries the named role. Roles must have
// been loaded (preloaded or appended) for this to be meaningful.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
