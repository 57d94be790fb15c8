package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	minPasswordScore  = 2
)

// ErrWeakPassword indicates the password failed policy validation.
var ErrWeakPassword = errors.New("password does not meet strength requirements")

// ValidatePassword enforces the registration password policy: length
// bounds, at least one letter and one digit, and a zxcvbn strength score.
// User inputs (username, email) feed the strength estimate so passwords
// derived from them are rejected.
func ValidatePassword(password string, userInputs ...string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, maxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: must contain at least one letter and one digit", ErrWeakPassword)
	}

	inputs := make([]string, 0, len(userInputs))
	for _, in := range userInputs {
		if trimmed := strings.TrimSpace(in); trimmed != "" {
			inputs = append(inputs, trimmed)
		}
	}

	if zxcvbn.PasswordStrength(password, inputs).Score < minPasswordScore {
		return fmt.Errorf("%w: too guessable", ErrWeakPassword)
	}

	return nil
}
