package services

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	BCryptCost = 12

	MinPasswordLength = 12
	MaxPasswordLength = 72 // bcrypt input limit
)

var (
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong     = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial   = errors.New("password must contain at least one special character")

	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	numberRegex    = regexp.MustCompile(`[0-9]`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?]`)
)

type PasswordService struct {
	cost int
}

// NewPasswordService returns a bcrypt password service. cost <= 0 uses BCryptCost.
func NewPasswordService(cost int) PasswordServiceInterface {
	if cost <= 0 {
		cost = BCryptCost
	}
	return &PasswordService{cost: cost}
}

// ValidatePassword checks length and character class rules
func (ps *PasswordService) ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrPasswordEmpty
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	case !uppercaseRegex.MatchString(password):
		return ErrPasswordNoUppercase
	case !lowercaseRegex.MatchString(password):
		return ErrPasswordNoLowercase
	case !numberRegex.MatchString(password):
		return ErrPasswordNoNumber
	case !specialRegex.MatchString(password):
		return ErrPasswordNoSpecial
	}
	return nil
}

func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordPolicyViolation returns the ValidatePassword rule err violates, or nil
func PasswordPolicyViolation(err error) error {
	for _, policyErr := range []error{
		ErrPasswordEmpty, ErrPasswordTooShort, ErrPasswordTooLong, ErrPasswordNoUppercase,
		ErrPasswordNoLowercase, ErrPasswordNoNumber, ErrPasswordNoSpecial,
	} {
		if errors.Is(err, policyErr) {
			return policyErr
		}
	}
	return nil
}
