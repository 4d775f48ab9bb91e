package services

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{11}$`)
	phonePattern = regexp.MustCompile(`^\d{10,11}$`)
)

const minPasswordLength = 6

func validateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 3 || n > 100 {
		return validation("name must have between 3 and 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 100 {
		return validation("a valid email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validation("a valid email is required")
	}
	return nil
}

func validatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return validation("phone must have 10 or 11 digits")
	}
	return nil
}

func validateCPF(cpf string) error {
	if !cpfPattern.MatchString(cpf) {
		return validation("cpf must have 11 digits")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return validation("password must have at least %d characters", minPasswordLength)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return validation("%s is required", field)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
