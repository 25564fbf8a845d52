package repositories

import (
	"usercenter/models"

	"gorm.io/gorm"
)

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(user *models.User) error
	FindAll(page int, pageSize int) ([]models.User, int64, error)
	AssignRoles(user *models.User, roleNames []string) error
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new User
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a User by ID, with roles preloaded
func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.Preload("Roles").First(&user, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail finds a User by email, with roles preloaded
func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Preload("Roles").Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// Update saves changed User fields
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete removes a User
func (r *userRepository) Delete(user *models.User) error {
	return r.db.Delete(user).Error
}

// FindAll returns one page of Users plus the total row count
func (r *userRepository) FindAll(page int, pageSize int) ([]models.User, int64, error) {
	offset := (page - 1) * pageSize
	var users []models.User
	var total int64

	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := r.db.Preload("Roles").Offset(offset).Limit(pageSize).Find(&users)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return users, total, nil
}

// AssignRoles appends the named roles to the user. Unknown role names are
// silently skipped; the caller decides whether that matters.
func (r *userRepository) AssignRoles(user *models.User, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}

	var roles []models.Role
	if err := r.db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}

	return r.db.Model(user).Association("Roles").Append(roles)
}
