// Package validation содержит клиентские проверки форм входа и регистрации.
// Проверки выполняются до любого обращения к сети.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ключи причин отказа, передаваемые представлению.
const (
	ReasonInvalidPhone     = "auth.invalidPhone"
	ReasonInvalidPassword  = "auth.invalidPassword"
	ReasonPasswordMismatch = "auth.passwordMismatch"
	ReasonInvalidEmail     = "auth.invalidEmail"
	ReasonInvalidName      = "auth.invalidName"
)

const (
	// DefaultPhoneDigits задаёт длину номера телефона Гонконга.
	DefaultPhoneDigits = 8
	// MinPasswordLength задаёт минимальную длину пароля при регистрации.
	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Policy содержит настраиваемые правила проверки.
type Policy struct {
	// PhoneDigits задаёт точное число цифр в телефоне; при 0 достаточно непустого значения.
	PhoneDigits int
	// MinPasswordLength применяется только при регистрации.
	MinPasswordLength int
}

// DefaultPolicy возвращает строгую политику: 8 цифр, пароль от 6 символов.
func DefaultPolicy() Policy {
	return Policy{PhoneDigits: DefaultPhoneDigits, MinPasswordLength: MinPasswordLength}
}

// IsValidPhone проверяет номер телефона по политике.
func (p Policy) IsValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false
	}
	if p.PhoneDigits <= 0 {
		return true
	}
	if len(phone) != p.PhoneDigits {
		return false
	}
	for _, ch := range phone {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}

// IsValidEmail проверяет форму local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Login проверяет форму входа и возвращает ключ причины отказа, если он есть.
func (p Policy) Login(phone, password string) (string, bool) {
	if !p.IsValidPhone(phone) {
		return ReasonInvalidPhone, false
	}
	if password == "" {
		return ReasonInvalidPassword, false
	}
	return "", true
}

// RegisterForm содержит поля формы регистрации.
type RegisterForm struct {
	Phone           string
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Birthday        string
	Gender          string
}

// Register проверяет форму регистрации. Email проверяется, только если указан.
func (p Policy) Register(f RegisterForm) (string, bool) {
	if !p.IsValidPhone(f.Phone) {
		return ReasonInvalidPhone, false
	}
	if strings.TrimSpace(f.Name) == "" {
		return ReasonInvalidName, false
	}
	minLen := p.MinPasswordLength
	if minLen <= 0 {
		minLen = MinPasswordLength
	}
	if utf8.RuneCountInString(f.Password) < minLen {
		return ReasonInvalidPassword, false
	}
	if f.Password != f.ConfirmPassword {
		return ReasonPasswordMismatch, false
	}
	if f.Email != "" && !IsValidEmail(f.Email) {
		return ReasonInvalidEmail, false
	}
	return "", true
}
