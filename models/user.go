package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	digitPattern     = regexp.MustCompile(`\d`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// User represents a registered account
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       string     `gorm:"uniqueIndex;not null" json:"user_id"` // login identifier chosen at registration
	Name         string     `json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Age          int        `json:"age"`
	PasswordHash string     `gorm:"not null" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SetPassword hashes and sets the password for the user
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies the provided password against the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ValidatePassword enforces the registration password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !uppercasePattern.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !digitPattern.MatchString(password) {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

// Validate checks registration fields
func (u *User) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if !emailPattern.MatchString(u.Email) {
		return fmt.Errorf("invalid email address")
	}
	if u.Age <= 18 {
		return fmt.Errorf("must be older than 18")
	}
	return nil
}

// MigrateUserModels runs database migrations for user models
func MigrateUserModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
	)
}
