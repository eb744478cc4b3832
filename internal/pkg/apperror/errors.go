package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodePrecondition      ErrorCode = "FAILED_PRECONDITION"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeSignature         ErrorCode = "SIGNATURE_ERROR"
	ErrCodeGateway           ErrorCode = "GATEWAY_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	// Details содержит дополнительные данные для клиента,
	// например список допустимых переходов статуса.
	Details map[string]any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// NewInvalidTransition формирует ошибку недопустимого перехода статуса.
// В Details всегда кладётся текущий статус и список допустимых целей,
// чтобы клиент понимал, какие действия ему доступны.
func NewInvalidTransition(current, target string, allowed []string) *AppError {
	msg := fmt.Sprintf("переход из статуса %q в %q невозможен", current, target)
	if len(allowed) == 0 {
		msg += ": статус терминальный"
	} else {
		msg += ", допустимые статусы: " + strings.Join(allowed, ", ")
	}
	return &AppError{
		Code:       ErrCodeInvalidTransition,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"current_status":      current,
			"allowed_transitions": allowed,
		},
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidTransition, ErrCodePrecondition, ErrCodeSignature:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func IsInvalidTransition(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidTransition
}

func IsPrecondition(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodePrecondition
}

var (
	ErrRequestNotFound = New(ErrCodeNotFound, "запрос не найден")
	ErrOfferNotFound   = New(ErrCodeNotFound, "предложение не найдено")
	ErrDisputeNotFound = New(ErrCodeNotFound, "спор не найден")
	ErrUserNotFound    = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized    = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden       = New(ErrCodeForbidden, "недостаточно прав")
)
