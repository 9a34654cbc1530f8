// Package apperror defines the closed error taxonomy shared by the domain,
// the registry and both transports.
package apperror

import (
	"errors"
	"strings"
)

// Domain is the error domain reported in gRPC ErrorInfo details.
const Domain = "github.com/oksasatya/go-user-registry"

// Kind is the error class a caller can branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAlreadyExists
	KindUnimplemented
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnimplemented:
		return "unimplemented"
	default:
		return "internal"
	}
}

// Code is a machine-readable reason within a kind.
type Code string

const (
	CodeRequestInvalid      Code = "REQUEST_INVALID"
	CodeUserIDLength        Code = "USER_ID_LENGTH"
	CodeUserIDCharset       Code = "USER_ID_CHARSET"
	CodeUserEmailLength     Code = "USER_EMAIL_LENGTH"
	CodeUserEmailFormat     Code = "USER_EMAIL_FORMAT"
	CodeUserNameLength      Code = "USER_NAME_LENGTH"
	CodeUserPhoneLength     Code = "USER_PHONE_LENGTH"
	CodeUserUpdateInvalid   Code = "USER_UPDATE_INVALID"
	CodePasswordWeak        Code = "PASSWORD_WEAK"
	CodeHashMalformed       Code = "HASH_MALFORMED"
	CodeHashFailed          Code = "HASH_FAILED"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeUserDuplicateID     Code = "USER_DUPLICATE_ID"
	CodeRecordMalformed     Code = "RECORD_MALFORMED"
	CodeStoreLoadFailed     Code = "STORE_LOAD_FAILED"
	CodeStoreWriteFailed    Code = "STORE_WRITE_FAILED"
	CodeResetNotImplemented Code = "RESET_NOT_IMPLEMENTED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeUnknown             Code = "UNKNOWN"
)

// FieldViolation names one field and the constraint it broke.
type FieldViolation struct {
	Field      string
	Constraint string
	Message    string
}

// Error is the structured error carried through every layer.
type Error struct {
	Kind       Kind
	Code       Code
	Field      string
	Constraint string
	Message    string
	Violations []FieldViolation
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code when the target carries one, otherwise by kind. This
// lets callers test either errors.Is(err, ErrNotFound) or a specific sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists, Message: "already exists"}
	ErrInternal      = &Error{Kind: KindInternal, Message: "internal error"}
	ErrUnimplemented = &Error{Kind: KindUnimplemented, Message: "unimplemented"}
)

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Field builds a validation error for a single field.
func Field(code Code, field, constraint, message string) *Error {
	return &Error{
		Kind:       KindValidation,
		Code:       code,
		Field:      field,
		Constraint: constraint,
		Message:    message,
		Violations: []FieldViolation{{Field: field, Constraint: constraint, Message: message}},
	}
}

func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// Internal wraps an infrastructure failure.
func Internal(code Code, message string, cause error) *Error {
	return Wrap(KindInternal, code, message, cause)
}

// Invalid builds a request shape error.
func Invalid(field, message string) *Error {
	return Field(CodeRequestInvalid, field, "required", message)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies err. Errors outside the taxonomy count as internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return CodeUnknown
}
