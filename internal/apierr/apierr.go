// Package apierr описывает типизированные ошибки обращения к бэкенду CRM.
package apierr

import (
	"errors"
	"fmt"
)

// Code задаёт стабильный код ошибки.
type Code string

const (
	Unauthorized      Code = "UNAUTHORIZED"
	NetworkError      Code = "NETWORK_ERROR"
	APIError          Code = "API_ERROR"
	UnknownError      Code = "UNKNOWN_ERROR"
	NotFound          Code = "NOT_FOUND"
	MalformedResponse Code = "MALFORMED_RESPONSE"
	LoginFailed       Code = "LOGIN_FAILED"
	RegisterFailed    Code = "REGISTER_FAILED"
	ValidationError   Code = "VALIDATION_ERROR"
)

// Error описывает ошибку с кодом, сообщением сервера и необязательными деталями.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	// Status хранит HTTP-статус ответа, 0 если ответа не было.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создаёт ошибку с указанным кодом и сообщением.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap создаёт ошибку с указанным кодом поверх исходной.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf возвращает код ошибки; для ошибок без кода возвращает UnknownError.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownError
}

// Is сообщает, имеет ли ошибка указанный код.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf возвращает сообщение сервера либо текст ошибки.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
