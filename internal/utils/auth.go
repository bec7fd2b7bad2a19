package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/storyloom-backend/internal/types"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
)

// ParseInputString collapses user-supplied text to a trimmed value.
func ParseInputString(s string) string {
	return strings.TrimSpace(s)
}

func NormalizeUserFields(user *types.User) {
	user.Username = strings.ToLower(ParseInputString(user.Username))
}

func ValidateRegistration(user *types.User, password string) error {
	if user == nil {
		return fmt.Errorf("no user given, cannot proceed with registration")
	}
	if user.Username == "" {
		return fmt.Errorf("a username is required to register")
	}
	if n := utf8.RuneCountInString(user.Username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if strings.ContainsAny(user.Username, " \t\n") {
		return fmt.Errorf("username must not contain whitespace")
	}
	return ValidatePassword(password)
}

func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("a password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
