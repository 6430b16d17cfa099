package acl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// NewUser is the input of Users.Create.
type NewUser struct {
	Username  string `json:"username"  validate:"required,min=3,max=100"`
	Email     string `json:"email"     validate:"omitempty,email,max=255"`
	Password  string `json:"password"` //nolint:gosec
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
	// GroupID 0 selects the default group.
	GroupID uint `json:"groupId"`
	// LanguageID 0 selects the first language.
	LanguageID uint              `json:"languageId"`
	Admin      bool              `json:"admin"`
	AuthSource models.AuthSource `json:"-"`
	ExternalID string            `json:"-"`
}

const minPasswordLength = "min=8"

// Users manages user accounts and their group membership.
type Users struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewUsers creates the user store.
func NewUsers(db *gorm.DB, validate *validator.Validate) *Users {
	return &Users{db: db, validate: validate}
}

// ValidatePassword checks the local password policy.
func (u *Users) ValidatePassword(password string) error {
	if err := u.validate.Var(password, "required,"+minPasswordLength); err != nil {
		return newError(ErrValidation, "password must be at least 8 characters")
	}

	return nil
}

// Create adds a user. Local users need a password, external users may have none.
func (u *Users) Create(in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)

	if in.AuthSource == "" {
		in.AuthSource = models.AuthSourceLocal
	}

	if err := u.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	user := models.User{
		Username:   in.Username,
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Admin:      in.Admin,
		Enabled:    true,
		AuthSource: in.AuthSource,
		ExternalID: in.ExternalID,
	}

	if in.AuthSource == models.AuthSourceLocal || in.Password != "" {
		if err := u.ValidatePassword(in.Password); err != nil {
			return nil, err
		}

		hash, err := models.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}

		user.Password = hash
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return newError(ErrDuplicateUser, fmt.Sprintf("user %s already exists", in.Username))
		}

		groupID, err := u.resolveGroup(tx, in.GroupID)
		if err != nil {
			return err
		}

		languageID, err := resolveLanguage(tx, in.LanguageID)
		if err != nil {
			return err
		}

		user.GroupID = groupID
		user.LanguageID = languageID

		if err = tx.Create(&user).Error; err != nil {
			return storeError(err, ErrDuplicateUser, "user %s already exists", in.Username)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (u *Users) resolveGroup(tx *gorm.DB, groupID uint) (uint, error) {
	if groupID != 0 {
		return groupID, groupExists(tx, groupID)
	}

	group, err := NewGroups(tx, u.validate).Default()
	if err != nil {
		return 0, err
	}

	return group.ID, nil
}

func resolveLanguage(tx *gorm.DB, languageID uint) (uint, error) {
	var language models.Language

	q := tx.Select("id")
	if languageID != 0 {
		q = q.Where("id = ?", languageID)
	}

	err := q.Order("id").First(&language).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if languageID != 0 {
			return 0, newError(ErrNotFound, fmt.Sprintf("language %d not found", languageID))
		}

		return 0, newError(ErrConfiguration, "no language is configured")
	}

	if err != nil {
		return 0, err
	}

	return language.ID, nil
}

// Get returns the user id with its group.
func (u *Users) Get(id uint64) (*models.User, error) {
	var user models.User
	if err := u.db.Preload("Group").First(&user, id).Error; err != nil {
		return nil, notFound(err, "user %d not found", id)
	}

	return &user, nil
}

// GetByUsername returns the user called username.
func (u *Users) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := u.db.Preload("Group").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user %s not found", username)
	}

	return &user, nil
}

func (u *Users) update(id uint64, values map[string]any) error {
	var user models.User
	if err := u.db.Select("id").First(&user, id).Error; err != nil {
		return notFound(err, "user %d not found", id)
	}

	if err := u.db.Model(&user).Updates(values).Error; err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}

	return nil
}

// AssignGroup moves the user into groupID.
func (u *Users) AssignGroup(userID uint64, groupID uint) error {
	if err := groupExists(u.db, groupID); err != nil {
		return err
	}

	return u.update(userID, map[string]any{"group_id": groupID})
}

// SetEnabled enables or disables the account. Enabling also clears the login faults.
func (u *Users) SetEnabled(userID uint64, enabled bool) error {
	values := map[string]any{"enabled": enabled}
	if enabled {
		values["faults"] = 0
	}

	return u.update(userID, values)
}

// SetAdmin grants or removes the admin bypass.
func (u *Users) SetAdmin(userID uint64, admin bool) error {
	return u.update(userID, map[string]any{"admin": admin})
}

// SetPassword stores a new password hash.
func (u *Users) SetPassword(userID uint64, password string) error {
	if err := u.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	return u.update(userID, map[string]any{"password": hash})
}

// Delete removes the user. Group grants are not touched.
func (u *Users) Delete(id uint64) error {
	result := u.db.Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return newError(ErrNotFound, fmt.Sprintf("user %d not found", id))
	}

	return nil
}

// List returns every user with its group name, by username.
func (u *Users) List() ([]UserView, error) {
	var users []models.User
	if err := u.db.Preload("Group").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]UserView, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserView(user))
	}

	return out, nil
}
