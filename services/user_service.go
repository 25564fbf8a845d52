package services

import (
	"errors"
	"fmt"

	"usercenter/auth"
	"usercenter/database"
	"usercenter/models"
	"usercenter/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Sentinel errors the controllers translate to HTTP status codes.
var (
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrNotFound    = errors.New("user not found")
	ErrForbidden   = errors.New("forbidden")
)

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	CreateUser(input *CreateUserInput) (*models.User, error)
	GetUserByID(userID uint, requestingUserID uint) (*models.User, error)
	UpdateUser(userID uint, requestingUserID uint, input *UpdateUserInput) (*models.User, error)
	ListUsers(page int, pageSize int, requestingUserID uint) ([]models.User, int64, error)
	DeleteUser(userID uint, requestingUserID uint) error
}

// --- Structs for Input/Output ---

type CreateUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`

	// Roles to assign on creation. Empty means the standard "user" role.
	// Not accepted from the HTTP registration endpoint; the CLI sets it.
	Roles []string `json:"-"`
	// Active defaults to true when nil.
	Active *bool `json:"-"`
}

type UpdateUserInput struct {
	// Pointers distinguish "not provided" from "set to empty".
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Active   *bool   `json:"active"`
}

// userService is the gorm-backed implementation of UserService
type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

// CreateUser handles the creation of a new user. The email-uniqueness check
// is query-then-insert; the unique index on email is the backstop for races.
func (s *userService) CreateUser(input *CreateUserInput) (*models.User, error) {
	_, err := s.repo.FindByEmail(input.Email)
	if err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	user := models.User{
		Email:    input.Email,
		Name:     input.Name,
		Password: string(hashedPassword),
		Active:   active,
	}

	if err := s.repo.Create(&user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{database.RoleUser}
	}
	if err := s.repo.AssignRoles(&user, roles); err != nil {
		return nil, fmt.Errorf("failed to assign roles: %w", err)
	}

	// Re-fetch so the returned user carries its role associations.
	return s.repo.FindByID(user.ID)
}

// GetUserByID retrieves a single user by their ID.
// Permissions: "users:read:self" or "users:read:all"
func (s *userService) GetUserByID(targetUserID uint, requestingUserID uint) (*models.User, error) {
	canReadAny, _ := auth.UserHasPermissions(requestingUserID, "users:read:all")
	canReadSelf, _ := auth.UserHasPermissions(requestingUserID, "users:read:self")
	isSelf := targetUserID == requestingUserID

	if !((isSelf && canReadSelf) || (!isSelf && canReadAny)) {
		return nil, fmt.Errorf("%w: 'users:read:all' permission required to view other profiles", ErrForbidden)
	}

	user, err := s.repo.FindByID(targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("retrieving user: %w", err)
	}

	return user, nil
}

// UpdateUser updates a user's details.
// Permissions: self-update, or "users:update:all" for other accounts
func (s *userService) UpdateUser(targetUserID uint, requestingUserID uint, input *UpdateUserInput) (*models.User, error) {
	canUpdateAny, _ := auth.UserHasPermissions(requestingUserID, "users:update:all")
	isSelf := targetUserID == requestingUserID

	if !isSelf && !canUpdateAny {
		return nil, fmt.Errorf("%w: you can only update your own profile", ErrForbidden)
	}

	user, err := s.repo.FindByID(targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("retrieving user for update: %w", err)
	}

	needsSave := false

	if input.Email != nil {
		// The new email must not belong to another account.
		existing, err := s.repo.FindByEmail(*input.Email)
		if err == nil && existing.ID != user.ID {
			return nil, ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking email uniqueness: %w", err)
		}

		if user.Email != *input.Email {
			user.Email = *input.Email
			needsSave = true
		}
	}

	if input.Name != nil && user.Name != *input.Name {
		user.Name = *input.Name
		needsSave = true
	}

	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("could not hash new password: %w", err)
		}
		user.Password = string(hashedPassword)
		needsSave = true
	}

	// Deactivating other accounts requires the update:all permission too;
	// self-deactivation is allowed.
	if input.Active != nil && user.Active != *input.Active {
		user.Active = *input.Active
		needsSave = true
	}

	if needsSave {
		if err := s.repo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to save user updates: %w", err)
		}
	}

	return s.repo.FindByID(user.ID)
}

// ListUsers retrieves a paginated list of users.
// Permissions: "users:list"
func (s *userService) ListUsers(page int, pageSize int, requestingUserID uint) ([]models.User, int64, error) {
	canList, err := auth.UserHasPermissions(requestingUserID, "users:list")
	if err != nil {
		return nil, 0, fmt.Errorf("checking permissions: %w", err)
	}
	if !canList {
		return nil, 0, fmt.Errorf("%w: 'users:list' permission required", ErrForbidden)
	}

	users, total, err := s.repo.FindAll(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieving users: %w", err)
	}

	return users, total, nil
}

// DeleteUser removes a user account.
// Permissions: self-delete with "users:delete:self", others with "users:delete:all"
func (s *userService) DeleteUser(userID uint, requestingUserID uint) error {
	canDeleteAny, _ := auth.UserHasPermissions(requestingUserID, "users:delete:all")
	canDeleteSelf, _ := auth.UserHasPermissions(requestingUserID, "users:delete:self")
	isSelf := userID == requestingUserID

	if !((isSelf && canDeleteSelf) || (!isSelf && canDeleteAny)) {
		return fmt.Errorf("%w: no permission to delete this user", ErrForbidden)
	}

	user, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("retrieving user for delete: %w", err)
	}

	if err := s.repo.Delete(user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
